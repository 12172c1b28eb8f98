package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type member struct {
	Name   string   `json:"name"`
	Age    int      `json:"age"`
	Active bool     `json:"is_active"`
	Tags   []string `json:"tags"`
}

func TestStructToCells(t *testing.T) {
	cells, err := StructToCells(member{Name: "Asha", Age: 25, Active: true, Tags: []string{"a", "b"}})
	assert.NoError(t, err)
	assert.Equal(t, "Asha", cells["name"])
	assert.Equal(t, float64(25), cells["age"])
	assert.Equal(t, true, cells["is_active"])
	assert.Equal(t, `["a","b"]`, cells["tags"], "nested values are stored as JSON text")
}

func TestStructToCells_Pointer(t *testing.T) {
	cells, err := StructToCells(&member{Name: "Bob"})
	assert.NoError(t, err)
	assert.Equal(t, "Bob", cells["name"])
}

func TestStructToCells_Invalid(t *testing.T) {
	_, err := StructToCells("not a struct")
	assert.Error(t, err)

	var m *member
	_, err = StructToCells(m)
	assert.Error(t, err)
}
