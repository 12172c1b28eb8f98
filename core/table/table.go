// Package table layers condition-driven operations over an abstract sheet
// store: load rows into typed snapshots, select them with a condition tree,
// and apply batched updates, inserts, deletes and highlighting to the
// matches. Every operation loads a fresh snapshot; nothing is cached and
// nothing guards against concurrent external modification.
package table

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harishpvv/SheetUtils/core/condition"
	"github.com/harishpvv/SheetUtils/core/row"
)

var (
	// ErrNilStore is returned by New when no sheet store is supplied.
	ErrNilStore = errors.New("table: sheet store is required")

	// ErrNoSession is returned by ClearHighlight when the session token is
	// missing or carries no row identifiers.
	ErrNoSession = errors.New("table: highlight session with row ids is required")
)

// Table binds a sheet store to a condition evaluator.
type Table struct {
	store  SheetStore
	eval   *condition.Evaluator
	logger *zap.Logger
	events *emitter
}

// New creates a Table over the given store. The store is required; a nil
// evaluator defaults to UTC date handling and a nil logger to a no-op
// logger.
func New(store SheetStore, eval *condition.Evaluator, logger *zap.Logger) (*Table, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if eval == nil {
		eval = condition.NewEvaluator(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	em, err := newEmitter()
	if err != nil {
		return nil, fmt.Errorf("initialize event bus: %w", err)
	}
	return &Table{store: store, eval: eval, logger: logger, events: em}, nil
}

// Load reads the sheet and returns a fresh snapshot of its data rows. The
// first data row carries ID 2 (row 1 is the header). A sheet with fewer
// than one data row yields an empty snapshot, not an error.
func (t *Table) Load(ctx context.Context) ([]row.Row, error) {
	grid, err := t.store.ReadDisplayStrings(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(grid) <= row.HeaderRows {
		return []row.Row{}, nil
	}
	header := grid[0]
	rows := make([]row.Row, 0, len(grid)-row.HeaderRows)
	for i, record := range grid[row.HeaderRows:] {
		rows = append(rows, row.FromDisplay(i+row.HeaderRows+1, header, record))
	}
	return rows, nil
}

// Find returns the rows matching the condition. A nil or empty condition
// matches every row.
func (t *Table) Find(ctx context.Context, cond *condition.Condition) ([]row.Row, error) {
	rows, err := t.Load(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]row.Row, 0, len(rows))
	for _, r := range rows {
		if t.eval.Matches(r, cond) {
			matched = append(matched, r)
		}
	}
	t.logger.Debug("condition applied", zap.Int("total", len(rows)), zap.Int("matched", len(matched)))
	return matched, nil
}

// Project returns the matching rows restricted to the named columns.
// Columns absent from a row are present in the result with an empty value.
func (t *Table) Project(ctx context.Context, cond *condition.Condition, columns []string) ([]row.Row, error) {
	matched, err := t.Find(ctx, cond)
	if err != nil {
		return nil, err
	}
	projected := make([]row.Row, 0, len(matched))
	for _, r := range matched {
		cells := make(map[string]any, len(columns))
		for _, col := range columns {
			if v, ok := r.Cells[col]; ok {
				cells[col] = v
			} else {
				cells[col] = ""
			}
		}
		projected = append(projected, row.Row{ID: r.ID, Cells: cells})
	}
	return projected, nil
}

// Update rewrites the given columns on every matching row and writes the
// whole data block back in one batched write, preserving raw values in
// untouched cells. It returns the number of rows changed; zero matches is
// a no-op, not an error.
func (t *Table) Update(ctx context.Context, cond *condition.Condition, changes map[string]any) (int, error) {
	return t.events.withEvents("update", RowUpdateStart, RowUpdateSuccess, RowUpdateFailed, cond, func() (int, error) {
		matched, err := t.Find(ctx, cond)
		if err != nil {
			return 0, err
		}
		if len(matched) == 0 {
			t.logger.Info("update matched no rows")
			return 0, nil
		}

		raw, err := t.store.ReadRawValues(ctx)
		if err != nil {
			return 0, fmt.Errorf("read raw values: %w", err)
		}
		if len(raw) <= row.HeaderRows {
			return 0, nil
		}
		index := columnIndex(raw[0])

		for _, r := range matched {
			i := r.ID - 1 // 1-based sheet position to raw grid offset
			if i < row.HeaderRows || i >= len(raw) {
				continue
			}
			record := raw[i]
			for col, val := range changes {
				ci, ok := index[col]
				if !ok {
					t.logger.Warn("unknown column in update, skipping", zap.String("column", col))
					continue
				}
				for len(record) <= ci {
					record = append(record, "")
				}
				record[ci] = val
			}
			raw[i] = record
		}

		if err := t.store.WriteBlock(ctx, row.HeaderRows+1, 1, raw[row.HeaderRows:]); err != nil {
			return 0, fmt.Errorf("write updated rows: %w", err)
		}
		return len(matched), nil
	})
}

// Insert appends one row. Columns missing from cells default to the empty
// string; columns not present in the header are ignored with a warning.
func (t *Table) Insert(ctx context.Context, cells map[string]any) error {
	_, err := t.events.withEvents("insert", RowInsertStart, RowInsertSuccess, RowInsertFailed, nil, func() (int, error) {
		grid, err := t.store.ReadDisplayStrings(ctx)
		if err != nil {
			return 0, fmt.Errorf("read sheet: %w", err)
		}
		if len(grid) == 0 {
			return 0, errors.New("sheet has no header row")
		}
		header := grid[0]

		width, err := t.store.ColumnCount(ctx)
		if err != nil {
			return 0, fmt.Errorf("column count: %w", err)
		}
		if width < len(header) {
			width = len(header)
		}

		values := make([]any, width)
		for i := range values {
			values[i] = ""
		}
		index := columnIndexStrings(header)
		for col, val := range cells {
			ci, ok := index[col]
			if !ok {
				t.logger.Warn("unknown column in insert, skipping", zap.String("column", col))
				continue
			}
			values[ci] = val
		}

		if err := t.store.AppendRow(ctx, values); err != nil {
			return 0, fmt.Errorf("append row: %w", err)
		}
		return 1, nil
	})
	return err
}

// Delete removes every matching row, deleting in descending position order
// so earlier positions stay valid while later rows are removed. It returns
// the number of rows deleted; zero matches is a no-op.
func (t *Table) Delete(ctx context.Context, cond *condition.Condition) (int, error) {
	return t.events.withEvents("delete", RowDeleteStart, RowDeleteSuccess, RowDeleteFailed, cond, func() (int, error) {
		matched, err := t.Find(ctx, cond)
		if err != nil {
			return 0, err
		}
		if len(matched) == 0 {
			t.logger.Info("delete matched no rows")
			return 0, nil
		}

		ids := make([]int, 0, len(matched))
		for _, r := range matched {
			ids = append(ids, r.ID)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ids)))

		for _, id := range ids {
			if err := t.store.DeleteRow(ctx, id); err != nil {
				return 0, fmt.Errorf("delete row %d: %w", id, err)
			}
		}
		return len(ids), nil
	})
}

// Highlight paints every matching row with the given color and returns a
// session token recording which rows were painted. Zero matches returns a
// nil session and no error.
func (t *Table) Highlight(ctx context.Context, cond *condition.Condition, color Color) (*HighlightSession, error) {
	var session *HighlightSession
	_, err := t.events.withEvents("highlight", HighlightStart, HighlightSuccess, HighlightFailed, cond, func() (int, error) {
		matched, err := t.Find(ctx, cond)
		if err != nil {
			return 0, err
		}
		if len(matched) == 0 {
			t.logger.Info("highlight matched no rows")
			return 0, nil
		}

		ids := make([]int, 0, len(matched))
		for _, r := range matched {
			if err := t.store.SetBackground(ctx, r.ID, color); err != nil {
				return 0, fmt.Errorf("set background on row %d: %w", r.ID, err)
			}
			ids = append(ids, r.ID)
		}

		session = &HighlightSession{
			ID:        uuid.New(),
			RowIDs:    ids,
			Color:     color,
			CreatedAt: time.Now(),
		}
		return len(ids), nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ClearHighlight repaints the rows recorded in the session back to the
// neutral background. The session comes straight from a prior Highlight
// call; the rows are repainted by position with no check that they still
// exist or are unchanged.
func (t *Table) ClearHighlight(ctx context.Context, session *HighlightSession) error {
	if session == nil || len(session.RowIDs) == 0 {
		return ErrNoSession
	}
	for _, id := range session.RowIDs {
		if err := t.store.SetBackground(ctx, id, Neutral); err != nil {
			return fmt.Errorf("clear background on row %d: %w", id, err)
		}
	}
	t.events.emit(Event{
		Type:      HighlightCleared,
		Operation: "clear-highlight",
		Timestamp: time.Now().UnixMilli(),
		Rows:      len(session.RowIDs),
	})
	return nil
}

// Subscribe registers a callback for a table event type and returns the
// subscription id for later removal.
func (t *Table) Subscribe(event EventType, label *string, cb EventCallback) string {
	return t.events.subscribe(event, label, cb)
}

// Unsubscribe removes a subscription registered with Subscribe.
func (t *Table) Unsubscribe(id string) {
	t.events.unsubscribe(id)
}

func columnIndex(header []any) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := row.DisplayString(h)
		if name != "" {
			index[name] = i
		}
	}
	return index
}

func columnIndexStrings(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if name != "" {
			index[name] = i
		}
	}
	return index
}
