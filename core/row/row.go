// Package row defines the Row data model shared by the condition evaluator
// and the table operations. A Row is a snapshot of one sheet row: a stable
// position identifier plus column-keyed scalar cell values.
package row

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// HeaderRows is the number of leading rows reserved for column headers.
// The first data row therefore carries ID 2, matching its sheet position.
const HeaderRows = 1

// Row is one data record. ID is the row's 1-based position in the backing
// sheet, offset by the header row. It is unique within a loaded snapshot and
// stable only for that snapshot's lifetime; inserting or deleting rows
// invalidates IDs that refer to positions after the mutation point.
type Row struct {
	ID    int
	Cells map[string]any
}

// isoDatePattern recognizes date-like display strings. Cells in this form
// are deliberately kept as strings rather than parsed into time values, so
// a sheet rendered in one timezone never shifts a day when read in another.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const (
	isoDateLayout    = "2006-01-02"
	legacyDateLayout = "01-02-2006"
)

// CoerceCell converts a display-string cell value into its typed form:
// ISO date-like strings stay strings, fully numeric strings become float64,
// everything else (including the empty string) stays a string. Coercion
// happens once at load time.
func CoerceCell(display string) any {
	if isoDatePattern.MatchString(display) {
		return display
	}
	trimmed := strings.TrimSpace(display)
	if trimmed != "" {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return display
}

// FromDisplay builds a Row with the given ID from a header and one record of
// display strings. Records shorter than the header are padded with empty
// strings so every column is present.
func FromDisplay(id int, header []string, record []string) Row {
	cells := make(map[string]any, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if i < len(record) {
			cells[name] = CoerceCell(record[i])
		} else {
			cells[name] = ""
		}
	}
	return Row{ID: id, Cells: cells}
}

// ToDate converts a cell value to an instant in the given location.
// Accepted forms are time.Time values, ISO date strings (YYYY-MM-DD),
// legacy dash dates (MM-DD-YYYY) and RFC 3339 timestamps. The boolean
// reports whether the conversion succeeded.
func ToDate(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		if t, err := time.ParseInLocation(isoDateLayout, val, loc); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation(legacyDateLayout, val, loc); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayString renders a cell value the way the sheet displays it. Numbers
// drop trailing zeros, dates use the ISO layout, and everything else falls
// back to its string form.
func DisplayString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(isoDateLayout)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Numeric converts a value of any numeric Go type to a float64. Strings are
// never converted; the sheet has a single number type and a numeric-looking
// string is still a string.
func Numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}
