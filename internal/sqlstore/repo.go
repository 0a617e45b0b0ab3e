package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notenest/internal/models"
	"github.com/starford/notenest/internal/storage"
)

var _ storage.EntryStore = (*DB)(nil)

// Insert replaces the stored collection with entries in one transaction.
func (db *DB) Insert(ctx context.Context, entries []models.Entry) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("sqlstore: clear entries: %w", err)
	}

	if len(entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entries (position, id, creation_date, modification_date, title, url, note, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("sqlstore: prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, e := range entries {
			tags := e.Tags
			if tags == nil {
				tags = []string{}
			}
			tagsJSON, err := json.Marshal(tags)
			if err != nil {
				return fmt.Errorf("sqlstore: encode tags: %w", err)
			}
			var link sql.NullString
			if e.URL != nil {
				link = sql.NullString{String: e.URL.String(), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, i, e.ID.String(),
				e.CreationDate.UTC().Format(time.RFC3339Nano),
				e.ModificationDate.UTC().Format(time.RFC3339Nano),
				e.Title, link, e.Note, string(tagsJSON)); err != nil {
				return fmt.Errorf("sqlstore: insert entry %s: %w", e.ID, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, '1')
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, initialisedKey); err != nil {
		return fmt.Errorf("sqlstore: mark initialised: %w", err)
	}

	return tx.Commit()
}

// Retrieve returns the stored collection in its persisted order. Before the
// first Insert it fails with storage.ErrRetrieval.
func (db *DB) Retrieve(ctx context.Context) ([]models.Entry, error) {
	var marker string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, initialisedKey).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshot written: %w", storage.ErrRetrieval, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrRetrieval, err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, creation_date, modification_date, title, url, note, tags
		FROM entries
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", storage.ErrRetrieval, err)
	}
	defer rows.Close()

	out := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrRetrieval, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrRetrieval, err)
	}
	return out, nil
}

func scanEntry(rows *sql.Rows) (models.Entry, error) {
	var (
		id, created, modified, title, note, tagsJSON string
		link                                         sql.NullString
	)
	if err := rows.Scan(&id, &created, &modified, &title, &link, &note, &tagsJSON); err != nil {
		return models.Entry{}, err
	}

	e := models.Entry{Title: title, Note: note}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return models.Entry{}, fmt.Errorf("id %q: %w", id, err)
	}
	if e.CreationDate, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return models.Entry{}, fmt.Errorf("creation_date: %w", err)
	}
	if e.ModificationDate, err = time.Parse(time.RFC3339Nano, modified); err != nil {
		return models.Entry{}, fmt.Errorf("modification_date: %w", err)
	}
	if link.Valid {
		if e.URL, err = url.Parse(link.String); err != nil {
			return models.Entry{}, fmt.Errorf("url: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		return models.Entry{}, fmt.Errorf("tags: %w", err)
	}
	return e, nil
}
