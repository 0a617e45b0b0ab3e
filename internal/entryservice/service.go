// Package entryservice is the composition root for entry reads and writes:
// one shared cache, a read coordinator and a write coordinator over the
// configured durable store.
package entryservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/notenest/internal/apperr"
	"github.com/starford/notenest/internal/cache"
	"github.com/starford/notenest/internal/checksum"
	"github.com/starford/notenest/internal/coordinator"
	"github.com/starford/notenest/internal/models"
	"github.com/starford/notenest/internal/sse"
	"github.com/starford/notenest/internal/storage"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	PublishEntry(kind, id string)
	PublishReload(reason string)
}

var _ Publisher = (*sse.Broker)(nil)

type nopPublisher struct{}

func (nopPublisher) PublishEntry(string, string) {}
func (nopPublisher) PublishReload(string)        {}

// Option configures a Service.
type Option func(*Service)

// WithOrdering makes List honour Query.Sort.
func WithOrdering(enabled bool) Option {
	return func(s *Service) { s.ordered = enabled }
}

// WithBackupPolicy sets what a failed durable write does to a mutation.
func WithBackupPolicy(p coordinator.BackupPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPublisher sets the change notification sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// Service exposes entry CRUD over the cache and durable store.
//
// Mutations and invalidation hold mu exclusively. Reads hold it shared while
// the cache is warm and exclusively while warming it, so the cache is only
// ever refilled from the durable store under the exclusive lock.
type Service struct {
	cache  *cache.InMemoryCache[uuid.UUID, models.Entry]
	reader *coordinator.ReadCacheCoordinator[uuid.UUID, Query, models.Entry]
	writer *coordinator.WriteCacheCoordinator[uuid.UUID, models.Entry]

	ordered bool
	policy  coordinator.BackupPolicy
	events  Publisher
	logger  *slog.Logger
	now     func() time.Time

	mu sync.RWMutex
}

// New builds a Service over store.
func New(store storage.EntryStore, opts ...Option) *Service {
	s := &Service{
		cache:  cache.New[uuid.UUID, models.Entry](),
		policy: coordinator.BackupBestEffort,
		events: nopPublisher{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	readOpts := []coordinator.ReadOption{
		coordinator.WithFallbackQuery(),
		coordinator.WithReadLogger(s.logger),
	}
	if s.ordered {
		readOpts = append(readOpts, coordinator.WithOrdering())
	}
	s.reader = coordinator.NewReadCacheCoordinator[uuid.UUID, Query, models.Entry](s.cache, store.Retrieve, readOpts...)
	s.writer = coordinator.NewWriteCacheCoordinator[uuid.UUID, models.Entry](s.cache, store.Insert,
		coordinator.WithBackupPolicy(s.policy),
		coordinator.WithWriteLogger(s.logger),
	)
	return s
}

// Close stops delivering in-flight reads.
func (s *Service) Close() {
	s.reader.Close()
}

// List returns the entries matching q. A durable store that has never been
// written lists as empty. q.Sort applies only when the service was built
// WithOrdering(true); otherwise entries come in insertion order.
func (s *Service) List(ctx context.Context, q Query) ([]models.Entry, error) {
	if q.Sort != SortNone && !s.ordered {
		s.logger.Debug("sort ignored: ordering disabled", slog.String("sort", q.Sort))
	}
	var entries []models.Entry
	err := s.read(ctx, func() error {
		var err error
		entries, err = s.reader.Fetch(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Entry, error) {
	var e models.Entry
	err := s.read(ctx, func() error {
		var err error
		e, err = s.lookup(id)
		return err
	})
	return e, err
}

// Create stores a new entry built from d.
func (s *Service) Create(ctx context.Context, d Draft) (models.Entry, error) {
	if err := d.Validate(); err != nil {
		return models.Entry{}, err
	}
	r := d.resolve()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.warm(ctx); err != nil {
		return models.Entry{}, err
	}
	e := models.NewEntry(r.title, r.note, r.link, r.tags)
	e.CreationDate = s.now().UTC()
	e.ModificationDate = e.CreationDate
	if err := s.writer.Add(ctx, e); err != nil {
		return models.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	s.logger.Info("entry created", slog.String("id", e.ID.String()))
	s.events.PublishEntry(sse.EntryCreated, e.ID.String())
	return e, nil
}

// Update replaces the editable fields of entry id. A non-empty ifMatch must
// equal the entry's current ETag.
func (s *Service) Update(ctx context.Context, id uuid.UUID, d Draft, ifMatch string) (models.Entry, error) {
	if err := d.Validate(); err != nil {
		return models.Entry{}, err
	}
	r := d.resolve()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.warm(ctx); err != nil {
		return models.Entry{}, err
	}
	existing, err := s.lookup(id)
	if err != nil {
		return models.Entry{}, err
	}
	if ifMatch != "" && ifMatch != ETag(existing) {
		return models.Entry{}, apperr.ErrConflict
	}

	updated := existing
	updated.Title = r.title
	updated.URL = r.link
	updated.Note = r.note
	updated.Tags = r.tags
	updated = updated.Touch(s.now())
	if err := s.writer.Edit(ctx, updated); err != nil {
		return models.Entry{}, fmt.Errorf("update entry: %w", err)
	}

	s.logger.Info("entry updated", slog.String("id", id.String()))
	s.events.PublishEntry(sse.EntryUpdated, id.String())
	return updated, nil
}

// Delete removes entry id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.warm(ctx); err != nil {
		return err
	}
	existing, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := s.writer.Delete(ctx, existing); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.logger.Info("entry deleted", slog.String("id", id.String()))
	s.events.PublishEntry(sse.EntryDeleted, id.String())
	return nil
}

// Invalidate drops the cached collection so the next read goes to the
// durable store. Used when the store changes behind the service's back.
func (s *Service) Invalidate(reason string) {
	s.mu.Lock()
	s.cache.Clear()
	s.mu.Unlock()

	s.logger.Info("entry cache invalidated", slog.String("reason", reason))
	s.events.PublishReload(reason)
}

// ETag is the short checksum of the entry's durable encoding.
func ETag(e models.Entry) string {
	data, err := storage.EncodeEntries([]models.Entry{e})
	if err != nil {
		return ""
	}
	return checksum.Tag(data)
}

// read runs fn against a warm cache. fn holds mu shared, so Invalidate
// cannot empty the cache underneath it; a cold cache is warmed under the
// exclusive lock first.
func (s *Service) read(ctx context.Context, fn func() error) error {
	s.mu.RLock()
	if s.cache.Initialised() {
		defer s.mu.RUnlock()
		return fn()
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.warm(ctx); err != nil {
		return err
	}
	return fn()
}

// warm makes sure the cache holds the durable collection so a write never
// replaces a durable file it has not read. Callers hold mu.
func (s *Service) warm(ctx context.Context) error {
	if s.cache.Initialised() {
		return nil
	}
	_, err := s.reader.Fetch(ctx, Query{})
	if errors.Is(err, os.ErrNotExist) {
		s.cache.CacheAll(nil)
		return nil
	}
	return err
}

func (s *Service) lookup(id uuid.UUID) (models.Entry, error) {
	e, ok, err := s.cache.RetrieveByID(id)
	if err != nil {
		return models.Entry{}, err
	}
	if !ok {
		return models.Entry{}, apperr.ErrNotFound
	}
	return e, nil
}
