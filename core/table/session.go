package table

import (
	"time"

	"github.com/google/uuid"
)

// HighlightSession records which rows a Highlight call painted, so a later
// ClearHighlight can repaint exactly those rows. It is an opaque token:
// nothing verifies the rows still exist or are unchanged when it is used.
type HighlightSession struct {
	ID        uuid.UUID `json:"id"`
	RowIDs    []int     `json:"rowIds"`
	Color     Color     `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}
