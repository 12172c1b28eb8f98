package table

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harishpvv/SheetUtils/core/condition"
	"github.com/harishpvv/SheetUtils/core/row"
)

// fakeStore is an in-memory SheetStore. The grid holds raw values, header
// row included; display strings are derived on read.
type fakeStore struct {
	grid        [][]any
	backgrounds map[int]Color
	writeBlocks int
}

func newFakeStore(grid [][]any) *fakeStore {
	return &fakeStore{grid: grid, backgrounds: map[int]Color{}}
}

func (f *fakeStore) ReadDisplayStrings(ctx context.Context) ([][]string, error) {
	display := make([][]string, len(f.grid))
	for i, record := range f.grid {
		display[i] = make([]string, len(record))
		for j, v := range record {
			display[i][j] = row.DisplayString(v)
		}
	}
	return display, nil
}

func (f *fakeStore) ReadRawValues(ctx context.Context) ([][]any, error) {
	grid := make([][]any, len(f.grid))
	for i, record := range f.grid {
		grid[i] = append([]any{}, record...)
	}
	return grid, nil
}

func (f *fakeStore) WriteBlock(ctx context.Context, topRow, leftCol int, values [][]any) error {
	f.writeBlocks++
	for i, record := range values {
		pos := topRow - 1 + i
		for len(f.grid) <= pos {
			f.grid = append(f.grid, []any{})
		}
		for j, v := range record {
			ci := leftCol - 1 + j
			for len(f.grid[pos]) <= ci {
				f.grid[pos] = append(f.grid[pos], "")
			}
			f.grid[pos][ci] = v
		}
	}
	return nil
}

func (f *fakeStore) AppendRow(ctx context.Context, values []any) error {
	f.grid = append(f.grid, values)
	return nil
}

func (f *fakeStore) DeleteRow(ctx context.Context, rowIndex int) error {
	i := rowIndex - 1
	if i < 0 || i >= len(f.grid) {
		return fmt.Errorf("row %d out of range", rowIndex)
	}
	f.grid = append(f.grid[:i], f.grid[i+1:]...)
	return nil
}

func (f *fakeStore) SetBackground(ctx context.Context, rowIndex int, color Color) error {
	f.backgrounds[rowIndex] = color
	return nil
}

func (f *fakeStore) ColumnCount(ctx context.Context) (int, error) {
	if len(f.grid) == 0 {
		return 0, nil
	}
	return len(f.grid[0]), nil
}

func demoGrid() [][]any {
	return [][]any{
		{"name", "status", "age"},
		{"Asha", "Active", float64(25)},
		{"Bob", "Pending", float64(17)},
		{"Chen", "Open", float64(42)},
		{"Dina", "Closed", float64(30)},
	}
}

func newTestTable(t *testing.T, store SheetStore) *Table {
	t.Helper()
	tbl, err := New(store, nil, nil)
	require.NoError(t, err)
	return tbl
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns positions starting at 2", func(t *testing.T) {
		tbl := newTestTable(t, newFakeStore(demoGrid()))
		rows, err := tbl.Load(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, 2, rows[0].ID)
		assert.Equal(t, 5, rows[3].ID)
		assert.Equal(t, "Asha", rows[0].Cells["name"])
		assert.Equal(t, float64(25), rows[0].Cells["age"])
	})

	t.Run("header-only sheet yields empty snapshot", func(t *testing.T) {
		tbl := newTestTable(t, newFakeStore([][]any{{"name"}}))
		rows, err := tbl.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("empty sheet yields empty snapshot", func(t *testing.T) {
		tbl := newTestTable(t, newFakeStore(nil))
		rows, err := tbl.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t, newFakeStore(demoGrid()))

	t.Run("nil condition matches all", func(t *testing.T) {
		rows, err := tbl.Find(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})

	t.Run("field condition", func(t *testing.T) {
		cond := condition.NewBuilder().Where("status").In("Open", "Pending").Build()
		rows, err := tbl.Find(ctx, cond)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Bob", rows[0].Cells["name"])
		assert.Equal(t, "Chen", rows[1].Cells["name"])
	})
}

func TestProject(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t, newFakeStore(demoGrid()))

	rows, err := tbl.Project(ctx, nil, []string{"name", "missing"})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, map[string]any{"name": "Asha", "missing": ""}, rows[0].Cells)
	assert.Equal(t, 2, rows[0].ID)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites matching rows in one batched write", func(t *testing.T) {
		store := newFakeStore(demoGrid())
		tbl := newTestTable(t, store)

		cond := condition.NewBuilder().Where("status").Eq("Pending").Build()
		count, err := tbl.Update(ctx, cond, map[string]any{"status": "Active", "age": float64(18)})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, store.writeBlocks)

		assert.Equal(t, "Active", store.grid[2][1])
		assert.Equal(t, float64(18), store.grid[2][2])
		// Untouched rows keep their raw values.
		assert.Equal(t, "Active", store.grid[1][1])
		assert.Equal(t, float64(42), store.grid[3][2])
	})

	t.Run("zero matches is a no-op", func(t *testing.T) {
		store := newFakeStore(demoGrid())
		tbl := newTestTable(t, store)

		cond := condition.NewBuilder().Where("status").Eq("nope").Build()
		count, err := tbl.Update(ctx, cond, map[string]any{"status": "Active"})
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Zero(t, store.writeBlocks)
	})

	t.Run("unknown columns are skipped", func(t *testing.T) {
		store := newFakeStore(demoGrid())
		tbl := newTestTable(t, store)

		cond := condition.ByRowID(2)
		count, err := tbl.Update(ctx, cond, map[string]any{"ghost": "x", "status": "Closed"})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, "Closed", store.grid[1][1])
		assert.Len(t, store.grid[1], 3)
	})
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(demoGrid())
	tbl := newTestTable(t, store)

	err := tbl.Insert(ctx, map[string]any{"name": "Esi", "age": float64(28)})
	require.NoError(t, err)

	last := store.grid[len(store.grid)-1]
	require.Len(t, last, 3)
	assert.Equal(t, "Esi", last[0])
	assert.Equal(t, "", last[1], "missing columns default to empty string")
	assert.Equal(t, float64(28), last[2])
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("descending order keeps later positions intact", func(t *testing.T) {
		store := newFakeStore(demoGrid())
		tbl := newTestTable(t, store)

		// Rows at positions 3 and 4 (Bob, Chen). Deleting ascending would
		// shift Dina into position 4 and remove her too.
		count, err := tbl.Delete(ctx, condition.ByRowID(3, 4))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		require.Len(t, store.grid, 3)
		assert.Equal(t, "Asha", store.grid[1][0])
		assert.Equal(t, "Dina", store.grid[2][0])
	})

	t.Run("zero matches is a no-op", func(t *testing.T) {
		store := newFakeStore(demoGrid())
		tbl := newTestTable(t, store)

		count, err := tbl.Delete(ctx, condition.NewBuilder().Where("name").Eq("nobody").Build())
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Len(t, store.grid, 5)
	})
}

func TestHighlight(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := newFakeStore(demoGrid())
		tbl := newTestTable(t, store)

		cond := condition.NewBuilder().Where("status").In("Open", "Pending").Build()
		session, err := tbl.Highlight(ctx, cond, "#fff2cc")
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, []int{3, 4}, session.RowIDs)
		assert.Equal(t, Color("#fff2cc"), session.Color)
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, Color("#fff2cc"), store.backgrounds[3])
		assert.Equal(t, Color("#fff2cc"), store.backgrounds[4])

		// Mutating the table afterwards must not change what clear targets.
		_, err = tbl.Delete(ctx, condition.ByRowID(2))
		require.NoError(t, err)

		require.NoError(t, tbl.ClearHighlight(ctx, session))
		assert.Equal(t, Neutral, store.backgrounds[3])
		assert.Equal(t, Neutral, store.backgrounds[4])
	})

	t.Run("zero matches returns nil session", func(t *testing.T) {
		store := newFakeStore(demoGrid())
		tbl := newTestTable(t, store)

		session, err := tbl.Highlight(ctx, condition.NewBuilder().Where("name").Eq("nobody").Build(), "#fff2cc")
		require.NoError(t, err)
		assert.Nil(t, session)
		assert.Empty(t, store.backgrounds)
	})
}

func TestClearHighlight_RequiresSession(t *testing.T) {
	ctx := context.Background()
	tbl := newTestTable(t, newFakeStore(demoGrid()))

	assert.ErrorIs(t, tbl.ClearHighlight(ctx, nil), ErrNoSession)
	assert.ErrorIs(t, tbl.ClearHighlight(ctx, &HighlightSession{}), ErrNoSession)
}

func TestSubscriptions(t *testing.T) {
	tbl := newTestTable(t, newFakeStore(demoGrid()))

	id := tbl.Subscribe(RowUpdateSuccess, nil, func(ctx context.Context, event Event) error {
		return nil
	})
	assert.NotEmpty(t, id)
	assert.Contains(t, tbl.events.subscriptions, id)

	tbl.Unsubscribe(id)
	assert.NotContains(t, tbl.events.subscriptions, id)
}
