// Package sqlite provides a concrete implementation of the table.SheetStore
// interface backed by a SQLite database. Each sheet row is stored as one
// record holding its 1-based position, its cells as a JSON array, and its
// background color. It is the store of choice for local use and tests,
// where a spreadsheet service is unavailable.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/harishpvv/SheetUtils/core/row"
	"github.com/harishpvv/SheetUtils/core/table"
)

// Options configures the store.
type Options struct {
	// TableName is the SQLite table backing the sheet. Defaults to "sheet".
	TableName string

	// DropIfExists drops the backing table before creating it.
	DropIfExists bool
}

// DefaultOptions returns the default store configuration.
func DefaultOptions() *Options {
	return &Options{TableName: "sheet"}
}

// Store is a SQLite-backed sheet. Positions are 1-based; position 1 is the
// header row.
type Store struct {
	db     *sql.DB
	name   string
	logger *zap.Logger
}

// Ensure Store implements the table.SheetStore interface.
var _ table.SheetStore = (*Store)(nil)

// NewStore creates a Store over db, creating the backing table if needed.
func NewStore(db *sql.DB, logger *zap.Logger, options *Options) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite: db handle is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultOptions()
	}
	name := options.TableName
	if name == "" {
		name = "sheet"
	}

	if options.DropIfExists {
		if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, name)); err != nil {
			return nil, fmt.Errorf("drop table: %w", err)
		}
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		pos INTEGER PRIMARY KEY,
		cells TEXT NOT NULL,
		background TEXT NOT NULL DEFAULT ''
	)`, name)
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db, name: name, logger: logger}, nil
}

// SetHeader writes the header row, creating it if the sheet is empty.
func (s *Store) SetHeader(ctx context.Context, columns []string) error {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %q (pos, cells) VALUES (1, ?)
		ON CONFLICT(pos) DO UPDATE SET cells = excluded.cells`, s.name)
	if _, err := s.db.ExecContext(ctx, query, string(encoded)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// readAll returns every row's decoded cells in position order.
func (s *Store) readAll(ctx context.Context) ([][]any, error) {
	query := fmt.Sprintf(`SELECT cells FROM %q ORDER BY pos`, s.name)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select rows: %w", err)
	}
	defer rows.Close()

	var grid [][]any
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var cells []any
		if err := json.Unmarshal([]byte(encoded), &cells); err != nil {
			return nil, fmt.Errorf("decode cells: %w", err)
		}
		grid = append(grid, cells)
	}
	return grid, rows.Err()
}

// ReadDisplayStrings implements table.SheetStore.
func (s *Store) ReadDisplayStrings(ctx context.Context) ([][]string, error) {
	grid, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	display := make([][]string, len(grid))
	for i, record := range grid {
		display[i] = make([]string, len(record))
		for j, v := range record {
			display[i][j] = row.DisplayString(v)
		}
	}
	return display, nil
}

// ReadRawValues implements table.SheetStore.
func (s *Store) ReadRawValues(ctx context.Context) ([][]any, error) {
	return s.readAll(ctx)
}

// WriteBlock implements table.SheetStore.
func (s *Store) WriteBlock(ctx context.Context, topRow, leftCol int, values [][]any) error {
	if topRow < 1 || leftCol < 1 {
		return fmt.Errorf("sqlite: block origin (%d,%d) out of range", topRow, leftCol)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	selectQuery := fmt.Sprintf(`SELECT cells FROM %q WHERE pos = ?`, s.name)
	updateQuery := fmt.Sprintf(`INSERT INTO %q (pos, cells) VALUES (?, ?)
		ON CONFLICT(pos) DO UPDATE SET cells = excluded.cells`, s.name)

	for i, record := range values {
		pos := topRow + i

		var cells []any
		var encoded string
		err := tx.QueryRowContext(ctx, selectQuery, pos).Scan(&encoded)
		switch {
		case err == sql.ErrNoRows:
			// Writing past the last row extends the sheet.
		case err != nil:
			return fmt.Errorf("read row %d: %w", pos, err)
		default:
			if err := json.Unmarshal([]byte(encoded), &cells); err != nil {
				return fmt.Errorf("decode row %d: %w", pos, err)
			}
		}

		for j, v := range record {
			ci := leftCol - 1 + j
			for len(cells) <= ci {
				cells = append(cells, "")
			}
			cells[ci] = v
		}

		out, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", pos, err)
		}
		if _, err := tx.ExecContext(ctx, updateQuery, pos, string(out)); err != nil {
			return fmt.Errorf("write row %d: %w", pos, err)
		}
	}

	return tx.Commit()
}

// AppendRow implements table.SheetStore.
func (s *Store) AppendRow(ctx context.Context, values []any) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %q (pos, cells)
		SELECT COALESCE(MAX(pos), 0) + 1, ? FROM %q`, s.name, s.name)
	if _, err := s.db.ExecContext(ctx, query, string(encoded)); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// DeleteRow implements table.SheetStore. Rows after the deleted position
// shift up by one, as they do in a spreadsheet.
func (s *Store) DeleteRow(ctx context.Context, rowIndex int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q WHERE pos = ?`, s.name), rowIndex)
	if err != nil {
		return fmt.Errorf("delete row %d: %w", rowIndex, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		s.logger.Warn("delete of missing row", zap.Int("row", rowIndex))
		return tx.Commit()
	}

	shift := fmt.Sprintf(`UPDATE %q SET pos = pos - 1 WHERE pos > ?`, s.name)
	if _, err := tx.ExecContext(ctx, shift, rowIndex); err != nil {
		return fmt.Errorf("shift rows after %d: %w", rowIndex, err)
	}
	return tx.Commit()
}

// SetBackground implements table.SheetStore.
func (s *Store) SetBackground(ctx context.Context, rowIndex int, color table.Color) error {
	query := fmt.Sprintf(`UPDATE %q SET background = ? WHERE pos = ?`, s.name)
	if _, err := s.db.ExecContext(ctx, query, string(color), rowIndex); err != nil {
		return fmt.Errorf("set background on row %d: %w", rowIndex, err)
	}
	return nil
}

// Background returns the stored background color of a row. Rows never
// highlighted report the neutral color.
func (s *Store) Background(ctx context.Context, rowIndex int) (table.Color, error) {
	query := fmt.Sprintf(`SELECT background FROM %q WHERE pos = ?`, s.name)
	var color string
	err := s.db.QueryRowContext(ctx, query, rowIndex).Scan(&color)
	if err == sql.ErrNoRows {
		return table.Neutral, nil
	}
	if err != nil {
		return table.Neutral, fmt.Errorf("read background of row %d: %w", rowIndex, err)
	}
	return table.Color(color), nil
}

// ColumnCount implements table.SheetStore. The header row defines the
// sheet's width.
func (s *Store) ColumnCount(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT cells FROM %q WHERE pos = 1`, s.name)
	var encoded string
	err := s.db.QueryRowContext(ctx, query).Scan(&encoded)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	var cells []any
	if err := json.Unmarshal([]byte(encoded), &cells); err != nil {
		return 0, fmt.Errorf("decode header: %w", err)
	}
	return len(cells), nil
}
