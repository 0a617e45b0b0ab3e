// Package storage provides the durable tier behind the entry cache: single
// file JSON documents written atomically, plus a watcher for external edits.
package storage

import (
	"context"

	"github.com/starford/notenest/internal/models"
)

// EntryStore is the durable whole-collection store for entries.
type EntryStore interface {
	// Retrieve returns the full persisted collection. It fails with an error
	// wrapping ErrRetrieval when nothing has been persisted yet.
	Retrieve(ctx context.Context) ([]models.Entry, error)
	// Insert replaces the persisted collection with entries.
	Insert(ctx context.Context, entries []models.Entry) error
}
