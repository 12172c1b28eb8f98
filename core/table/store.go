package table

import "context"

// Color is a background fill for a row, as a hex string like "#fff2cc".
// The empty string means the neutral (default) background.
type Color string

// Neutral resets a row's background to the sheet default.
const Neutral Color = ""

// SheetStore is the abstract tabular backend every table operation runs
// against. Implementations cover one sheet: a header row followed by data
// rows in stable column order. Row indexes are 1-based sheet positions.
//
// The store is the only I/O boundary of this module. Operations perform a
// full read-then-write round trip with no isolation from concurrent
// external modification; callers needing freshness must reload.
type SheetStore interface {
	// ReadDisplayStrings returns every cell as the sheet displays it,
	// header row included.
	ReadDisplayStrings(ctx context.Context) ([][]string, error)

	// ReadRawValues returns every cell's underlying value, header row
	// included. Used when a write must preserve values the display-string
	// coercion does not cover.
	ReadRawValues(ctx context.Context) ([][]any, error)

	// WriteBlock writes a rectangular block of values with its top-left
	// corner at (topRow, leftCol), both 1-based.
	WriteBlock(ctx context.Context, topRow, leftCol int, values [][]any) error

	// AppendRow appends one row after the last data row.
	AppendRow(ctx context.Context, values []any) error

	// DeleteRow removes the row at the given 1-based position, shifting
	// later rows up.
	DeleteRow(ctx context.Context, rowIndex int) error

	// SetBackground sets the background fill of an entire row.
	SetBackground(ctx context.Context, rowIndex int, color Color) error

	// ColumnCount returns the number of columns in the sheet.
	ColumnCount(ctx context.Context) (int, error)
}
