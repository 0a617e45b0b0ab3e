package entryservice

import (
	"strings"

	"github.com/starford/notenest/internal/models"
)

// Sort orders accepted by Query.
const (
	SortNone     = ""
	SortTitle    = "title"
	SortCreated  = "created"
	SortModified = "modified"
)

// SortOrders lists every accepted Query.Sort value.
var SortOrders = []any{SortNone, SortTitle, SortCreated, SortModified}

// Query selects and orders entries for List. The zero Query matches every
// entry in insertion order.
type Query struct {
	// Tag keeps entries carrying this exact tag.
	Tag string
	// Text keeps entries whose title or note contains it, ignoring case.
	Text string
	// Sort is one of the Sort* constants. SortModified is newest first;
	// the others ascend.
	Sort string
}

// Matches implements cache.Filter.
func (q Query) Matches(e models.Entry) bool {
	if q.Tag != "" && !e.HasTag(q.Tag) {
		return false
	}
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Note), needle) {
			return false
		}
	}
	return true
}

// Precedes implements cache.Sorter.
func (q Query) Precedes(a, b models.Entry) bool {
	switch q.Sort {
	case SortTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	case SortCreated:
		return a.CreationDate.Before(b.CreationDate)
	case SortModified:
		return a.ModificationDate.After(b.ModificationDate)
	default:
		return false
	}
}
