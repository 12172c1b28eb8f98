package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/harishpvv/SheetUtils/configuration"
	"github.com/harishpvv/SheetUtils/core/condition"
	"github.com/harishpvv/SheetUtils/core/table"
	"github.com/harishpvv/SheetUtils/gsheets"
	"github.com/harishpvv/SheetUtils/sqlite"
)

func main() {
	cfg := configuration.Read()

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open sheet store: %v", err)
	}
	defer cleanup()

	eval := condition.NewEvaluator(cfg.Location(), logger)
	tbl, err := table.New(store, eval, logger)
	if err != nil {
		log.Fatalf("Failed to create table: %v", err)
	}

	if err := seed(ctx, store, tbl); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	// Everyone over 18 whose ticket is open or pending.
	cond := condition.NewBuilder().
		Where("age").Satisfies(func(v any) bool {
			age, ok := v.(float64)
			return ok && age > 18
		}).
		Or().
		Where("status").Eq("Open").
		Where("status").Eq("Pending").
		End().
		Build()

	matches, err := tbl.Find(ctx, cond)
	if err != nil {
		log.Fatalf("Find failed: %v", err)
	}
	fmt.Println("Matching rows:")
	for _, r := range matches {
		fmt.Printf("  row %d: %v\n", r.ID, r.Cells)
	}

	count, err := tbl.Update(ctx, cond, map[string]any{"status": "Active"})
	if err != nil {
		log.Fatalf("Update failed: %v", err)
	}
	fmt.Printf("Updated %d rows\n", count)

	session, err := tbl.Highlight(ctx, condition.NewBuilder().Where("status").Eq("Active").Build(), "#fff2cc")
	if err != nil {
		log.Fatalf("Highlight failed: %v", err)
	}
	if session != nil {
		fmt.Printf("Highlighted rows %v (session %s)\n", session.RowIDs, session.ID)
		if err := tbl.ClearHighlight(ctx, session); err != nil {
			log.Fatalf("ClearHighlight failed: %v", err)
		}
	}

	deleted, err := tbl.Delete(ctx, condition.NewBuilder().Where("status").Eq("Closed").Build())
	if err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	fmt.Printf("Deleted %d rows\n", deleted)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore picks the backend: a spreadsheet when an id is configured,
// the local SQLite file otherwise.
func openStore(ctx context.Context, cfg configuration.Configuration, logger *zap.Logger) (table.SheetStore, func(), error) {
	if cfg.SpreadsheetID != "" {
		store, err := gsheets.NewStore(ctx, cfg.Credentials, cfg.SpreadsheetID, cfg.SheetName, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	db, err := sql.Open("sqlite3", cfg.SqlitePath)
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.NewStore(db, logger, nil)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

// seed populates the demo sheet when it is empty.
func seed(ctx context.Context, store table.SheetStore, tbl *table.Table) error {
	rows, err := tbl.Load(ctx)
	if err != nil || len(rows) > 0 {
		return err
	}

	if s, ok := store.(*sqlite.Store); ok {
		if err := s.SetHeader(ctx, []string{"name", "status", "age", "joined"}); err != nil {
			return err
		}
	}

	records := []map[string]any{
		{"name": "Asha", "status": "Open", "age": 25, "joined": "2020-01-01"},
		{"name": "Bob", "status": "Pending", "age": 17, "joined": "2021-06-15"},
		{"name": "Chen", "status": "Closed", "age": 42, "joined": "2019-11-30"},
	}
	for _, record := range records {
		if err := tbl.Insert(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
