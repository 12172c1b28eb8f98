// Package utils provides small helpers shared by callers of the module.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// StructToCells converts a Go struct into the column-keyed cell map that
// table.Insert consumes, using the struct's JSON field names as column
// names.
//
// The input is marshaled to JSON and unmarshaled into a map. Cells hold
// scalars only, so any nested object or array value is re-marshaled and
// stored as its JSON text.
//
// The input must be a struct or a pointer to a struct; anything else
// returns an error.
func StructToCells[T any](record T) (map[string]any, error) {
	val := reflect.ValueOf(record)
	if !val.IsValid() {
		return nil, fmt.Errorf("input record cannot be nil")
	}
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("input record cannot be a nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input record must be a struct, got %s", val.Kind())
	}

	encoded, err := json.Marshal(val.Interface())
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	cells := map[string]any{}
	if err := json.Unmarshal(encoded, &cells); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	for key, value := range cells {
		switch value.(type) {
		case map[string]any, []any:
			nested, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("marshal nested value for %q: %w", key, err)
			}
			cells[key] = string(nested)
		}
	}
	return cells, nil
}
