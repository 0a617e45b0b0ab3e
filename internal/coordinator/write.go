package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/notenest/internal/cache"
)

// BackupFunc persists the full collection.
type BackupFunc[E any] func(ctx context.Context, items []E) error

// BackupPolicy decides what happens when a backup after a mutation fails.
type BackupPolicy int

const (
	// BackupBestEffort logs backup failures and reports the mutation as
	// successful. The cache keeps the new state; the durable store lags.
	BackupBestEffort BackupPolicy = iota
	// BackupPropagate returns backup failures to the caller. The cache
	// still keeps the new state.
	BackupPropagate
)

// Backup policy names as used in configuration.
const (
	BackupPolicyBestEffort = "best_effort"
	BackupPolicyPropagate  = "propagate"
)

// ParseBackupPolicy maps a configuration name to a BackupPolicy.
func ParseBackupPolicy(name string) (BackupPolicy, error) {
	switch name {
	case "", BackupPolicyBestEffort:
		return BackupBestEffort, nil
	case BackupPolicyPropagate:
		return BackupPropagate, nil
	default:
		return 0, fmt.Errorf("coordinator: unknown backup policy %q", name)
	}
}

// String implements fmt.Stringer.
func (p BackupPolicy) String() string {
	if p == BackupPropagate {
		return BackupPolicyPropagate
	}
	return BackupPolicyBestEffort
}

type writeOptions struct {
	policy BackupPolicy
	logger *slog.Logger
}

// WriteOption configures a WriteCacheCoordinator.
type WriteOption func(*writeOptions)

// WithBackupPolicy sets the backup failure policy. Default: BackupBestEffort.
func WithBackupPolicy(p BackupPolicy) WriteOption {
	return func(o *writeOptions) { o.policy = p }
}

// WithWriteLogger sets the logger used for swallowed backup failures.
func WithWriteLogger(logger *slog.Logger) WriteOption {
	return func(o *writeOptions) { o.logger = logger }
}

// WriteCacheCoordinator applies mutations to the shared cache and then backs
// up the whole cache snapshot.
//
// Each call finishes its cache mutation before its backup starts, but calls
// are not serialised against each other: two concurrent writers may back up
// in the opposite order to their cache mutations, leaving the durable copy a
// step behind the cache until the next write.
type WriteCacheCoordinator[K comparable, E cache.Identifiable[K]] struct {
	cache  *cache.InMemoryCache[K, E]
	backup BackupFunc[E]
	opts   writeOptions
}

// NewWriteCacheCoordinator creates a write coordinator over a shared cache.
func NewWriteCacheCoordinator[K comparable, E cache.Identifiable[K]](c *cache.InMemoryCache[K, E], backup BackupFunc[E], opts ...WriteOption) *WriteCacheCoordinator[K, E] {
	w := &WriteCacheCoordinator[K, E]{
		cache:  c,
		backup: backup,
		opts:   writeOptions{policy: BackupBestEffort, logger: slog.Default()},
	}
	for _, opt := range opts {
		opt(&w.opts)
	}
	return w
}

// Add upserts item into the cache and backs up.
func (w *WriteCacheCoordinator[K, E]) Add(ctx context.Context, item E) error {
	w.cache.Cache(item)
	return w.backupAll(ctx)
}

// Edit upserts item into the cache and backs up. At this layer it is the
// same operation as Add.
func (w *WriteCacheCoordinator[K, E]) Edit(ctx context.Context, item E) error {
	w.cache.Cache(item)
	return w.backupAll(ctx)
}

// Delete removes item by identity and backs up. Deleting from an
// uninitialised cache fails with cache.ErrUninitialised and skips the backup.
func (w *WriteCacheCoordinator[K, E]) Delete(ctx context.Context, item E) error {
	if err := w.cache.Remove(item.Identity()); err != nil {
		return err
	}
	return w.backupAll(ctx)
}

func (w *WriteCacheCoordinator[K, E]) backupAll(ctx context.Context) error {
	items, err := w.cache.RetrieveAll()
	if err != nil {
		return fmt.Errorf("coordinator: snapshot cache: %w", err)
	}
	if err := w.backup(ctx, items); err != nil {
		if w.opts.policy == BackupPropagate {
			return fmt.Errorf("coordinator: backup: %w", err)
		}
		w.opts.logger.Warn("write: backup failed",
			slog.Int("entries", len(items)),
			slog.String("error", err.Error()))
	}
	return nil
}
