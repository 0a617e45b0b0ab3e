// Package models defines the domain types for NoteNest.
package models

import (
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Entry is a single persisted note.
type Entry struct {
	ID               uuid.UUID
	CreationDate     time.Time
	ModificationDate time.Time
	Title            string
	URL              *url.URL
	Note             string
	Tags             []string
}

// NewEntry creates an entry with a fresh identifier. Creation and
// modification dates are both set to now.
func NewEntry(title, note string, link *url.URL, tags []string) Entry {
	now := time.Now().UTC()
	return Entry{
		ID:               uuid.New(),
		CreationDate:     now,
		ModificationDate: now,
		Title:            title,
		URL:              link,
		Note:             note,
		Tags:             tags,
	}
}

// Identity returns the key entries are cached and upserted by.
func (e Entry) Identity() uuid.UUID {
	return e.ID
}

// Touch returns a copy of e with the modification date set to now.
func (e Entry) Touch(now time.Time) Entry {
	e.ModificationDate = now.UTC()
	return e
}

// Equal reports whether every field of e and other match.
// Timestamps are compared as instants; nil and empty tag lists are equal.
func (e Entry) Equal(other Entry) bool {
	return e.ID == other.ID &&
		e.CreationDate.Equal(other.CreationDate) &&
		e.ModificationDate.Equal(other.ModificationDate) &&
		e.Title == other.Title &&
		urlString(e.URL) == urlString(other.URL) &&
		(e.URL == nil) == (other.URL == nil) &&
		e.Note == other.Note &&
		slices.Equal(e.Tags, other.Tags)
}

// HasTag reports whether tag is one of the entry's tags.
func (e Entry) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
