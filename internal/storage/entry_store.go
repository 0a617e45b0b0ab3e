package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notenest/internal/models"
)

// ErrRetrieval is returned when the durable entry collection is missing,
// unreadable or undecodable.
var ErrRetrieval = errors.New("storage: retrieval failed")

// codableEntry is the on-disk shape of models.Entry. It is kept separate so
// the wire format does not follow every change of the domain type.
type codableEntry struct {
	ID               uuid.UUID `json:"id"`
	CreationDate     time.Time `json:"creationDate"`
	ModificationDate time.Time `json:"modificationDate"`
	Title            string    `json:"title"`
	URL              *string   `json:"url"`
	Note             string    `json:"note"`
	Tags             []string  `json:"tags"`
}

func toCodable(e models.Entry) codableEntry {
	var link *string
	if e.URL != nil {
		s := e.URL.String()
		link = &s
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return codableEntry{
		ID:               e.ID,
		CreationDate:     e.CreationDate,
		ModificationDate: e.ModificationDate,
		Title:            e.Title,
		URL:              link,
		Note:             e.Note,
		Tags:             tags,
	}
}

func (c codableEntry) model() (models.Entry, error) {
	var link *url.URL
	if c.URL != nil {
		u, err := url.Parse(*c.URL)
		if err != nil {
			return models.Entry{}, fmt.Errorf("entry %s: url: %w", c.ID, err)
		}
		link = u
	}
	return models.Entry{
		ID:               c.ID,
		CreationDate:     c.CreationDate,
		ModificationDate: c.ModificationDate,
		Title:            c.Title,
		URL:              link,
		Note:             c.Note,
		Tags:             c.Tags,
	}, nil
}

// CodableEntryStore persists the whole entry collection as one JSON array
// through a CodableStore.
type CodableEntryStore struct {
	doc *CodableStore[[]codableEntry]
}

var _ EntryStore = (*CodableEntryStore)(nil)

// NewCodableEntryStore creates an entry store over the file at path.
func NewCodableEntryStore(path string) *CodableEntryStore {
	return &CodableEntryStore{doc: NewCodableStore[[]codableEntry](path)}
}

// Path returns the backing file path.
func (s *CodableEntryStore) Path() string {
	return s.doc.Path()
}

// Retrieve decodes the stored entries. Every failure wraps ErrRetrieval;
// a missing file additionally matches os.ErrNotExist.
func (s *CodableEntryStore) Retrieve(ctx context.Context) ([]models.Entry, error) {
	raw, err := s.doc.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return fromCodable(raw)
}

// Insert encodes entries and atomically overwrites the file.
func (s *CodableEntryStore) Insert(ctx context.Context, entries []models.Entry) error {
	return s.doc.Insert(ctx, toCodableAll(entries))
}

// Delete removes the file. It fails when the file does not exist.
func (s *CodableEntryStore) Delete(ctx context.Context) error {
	return s.doc.Delete(ctx)
}

// OwnsContent reports whether sum is the checksum of this store's most
// recent Insert.
func (s *CodableEntryStore) OwnsContent(sum string) bool {
	return s.doc.OwnsContent(sum)
}

func toCodableAll(entries []models.Entry) []codableEntry {
	out := make([]codableEntry, len(entries))
	for i, e := range entries {
		out[i] = toCodable(e)
	}
	return out
}

func fromCodable(raw []codableEntry) ([]models.Entry, error) {
	out := make([]models.Entry, 0, len(raw))
	for _, c := range raw {
		e, err := c.model()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// EncodeEntries renders entries in the durable document format.
func EncodeEntries(entries []models.Entry) ([]byte, error) {
	data, err := json.MarshalIndent(toCodableAll(entries), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("storage: encode entries: %w", err)
	}
	return data, nil
}
