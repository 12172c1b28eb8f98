// Package gsheets implements the table.SheetStore interface on top of the
// Google Sheets v4 API. One Store covers one named sheet inside one
// spreadsheet. Rate-limited calls are retried with exponential backoff.
package gsheets

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/harishpvv/SheetUtils/core/row"
	"github.com/harishpvv/SheetUtils/core/table"
)

const (
	maxRetries = 15
	maxBackoff = 60 * time.Second
)

// Store is a Google Sheets-backed sheet.
type Store struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	sheetID       int64
	logger        *zap.Logger
}

// Ensure Store implements the table.SheetStore interface.
var _ table.SheetStore = (*Store)(nil)

// NewStore creates a Store for one sheet of a spreadsheet, authenticating
// with the given service-account credentials file. The sheet must already
// exist; its numeric id is resolved once here and reused for structural
// requests.
func NewStore(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zap.Logger) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("gsheets: spreadsheet id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	s := &Store{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}
	if err := s.resolveSheetID(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) resolveSheetID(ctx context.Context) error {
	ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties.Title == s.sheetName {
			s.sheetID = sh.Properties.SheetId
			return nil
		}
	}
	return fmt.Errorf("gsheets: sheet %q not found in spreadsheet", s.sheetName)
}

// withRetry runs fn, backing off exponentially on rate-limit responses.
func (s *Store) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if gErr, ok := err.(*googleapi.Error); ok && (gErr.Code == 429 || gErr.Code == 403) {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			s.logger.Warn("rate limited by Sheets API, retrying",
				zap.Duration("backoff", backoff), zap.Int("attempt", attempt))
			time.Sleep(backoff)
			continue
		}
		return err
	}
	return fmt.Errorf("gsheets: giving up after %d retries: %w", maxRetries, err)
}

func (s *Store) readValues(ctx context.Context, renderOption string) ([][]any, error) {
	var resp *sheets.ValueRange
	err := s.withRetry(func() error {
		var err error
		resp, err = s.service.Spreadsheets.Values.Get(
			s.spreadsheetID,
			s.sheetName,
		).ValueRenderOption(renderOption).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read sheet values: %w", err)
	}
	return resp.Values, nil
}

// ReadDisplayStrings implements table.SheetStore.
func (s *Store) ReadDisplayStrings(ctx context.Context) ([][]string, error) {
	values, err := s.readValues(ctx, "FORMATTED_VALUE")
	if err != nil {
		return nil, err
	}
	grid := make([][]string, len(values))
	for i, record := range values {
		grid[i] = make([]string, len(record))
		for j, v := range record {
			grid[i][j] = row.DisplayString(v)
		}
	}
	return grid, nil
}

// ReadRawValues implements table.SheetStore.
func (s *Store) ReadRawValues(ctx context.Context) ([][]any, error) {
	return s.readValues(ctx, "UNFORMATTED_VALUE")
}

// WriteBlock implements table.SheetStore.
func (s *Store) WriteBlock(ctx context.Context, topRow, leftCol int, values [][]any) error {
	if len(values) == 0 {
		return nil
	}
	width := 0
	for _, record := range values {
		if len(record) > width {
			width = len(record)
		}
	}
	rangeA1 := fmt.Sprintf("%s!%s%d:%s%d",
		s.sheetName,
		columnLetters(leftCol), topRow,
		columnLetters(leftCol+width-1), topRow+len(values)-1)

	return s.withRetry(func() error {
		_, err := s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			rangeA1,
			&sheets.ValueRange{Values: values},
		).ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
}

// AppendRow implements table.SheetStore.
func (s *Store) AppendRow(ctx context.Context, values []any) error {
	return s.withRetry(func() error {
		_, err := s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			s.sheetName+"!A:Z",
			&sheets.ValueRange{Values: [][]any{values}},
		).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
}

// DeleteRow implements table.SheetStore.
func (s *Store) DeleteRow(ctx context.Context, rowIndex int) error {
	request := &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    s.sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(rowIndex - 1),
				EndIndex:   int64(rowIndex),
			},
		},
	}
	return s.batchUpdate(ctx, request)
}

// SetBackground implements table.SheetStore.
func (s *Store) SetBackground(ctx context.Context, rowIndex int, color table.Color) error {
	rgb, err := parseColor(color)
	if err != nil {
		return err
	}
	request := &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:       s.sheetID,
				StartRowIndex: int64(rowIndex - 1),
				EndRowIndex:   int64(rowIndex),
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{BackgroundColor: rgb},
			},
			Fields: "userEnteredFormat.backgroundColor",
		},
	}
	return s.batchUpdate(ctx, request)
}

func (s *Store) batchUpdate(ctx context.Context, requests ...*sheets.Request) error {
	return s.withRetry(func() error {
		_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do()
		return err
	})
}

// ColumnCount implements table.SheetStore.
func (s *Store) ColumnCount(ctx context.Context) (int, error) {
	var count int
	err := s.withRetry(func() error {
		ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).
			Fields("sheets(properties(sheetId,gridProperties(columnCount)))").
			Context(ctx).Do()
		if err != nil {
			return err
		}
		for _, sh := range ss.Sheets {
			if sh.Properties.SheetId == s.sheetID && sh.Properties.GridProperties != nil {
				count = int(sh.Properties.GridProperties.ColumnCount)
				return nil
			}
		}
		return fmt.Errorf("gsheets: sheet id %d not found", s.sheetID)
	})
	return count, err
}

// columnLetters converts a 1-based column number to its A1 letters.
func columnLetters(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}

// parseColor converts a "#rrggbb" hex string to the API's color struct.
// The neutral color maps to white.
func parseColor(color table.Color) (*sheets.Color, error) {
	if color == table.Neutral {
		return &sheets.Color{Red: 1, Green: 1, Blue: 1}, nil
	}
	hex := string(color)
	if len(hex) != 7 || hex[0] != '#' {
		return nil, fmt.Errorf("gsheets: invalid color %q, want #rrggbb", color)
	}
	channels := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("gsheets: invalid color %q: %w", color, err)
		}
		channels[i] = float64(v) / 255
	}
	return &sheets.Color{Red: channels[0], Green: channels[1], Blue: channels[2]}, nil
}
