package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notenest/internal/checksum"
)

// Change kinds reported by Watch.
const (
	ChangeModified = "modified"
	ChangeRemoved  = "removed"
)

const watchDebounce = 100 * time.Millisecond

// ChangeCallback is called after the watched document changed outside of
// this process. kind is ChangeModified or ChangeRemoved.
type ChangeCallback func(kind string)

// Watch observes the document at path until ctx is cancelled. Bursts of
// events are debounced; the settled file is then checksummed and, unless owns
// reports the content as this process's own write, cb is invoked.
//
// The parent directory is watched rather than the file itself because atomic
// writes replace the file's inode.
func Watch(ctx context.Context, path string, logger *slog.Logger, owns func(sum string) bool, cb ChangeCallback) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleCheck := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(watchDebounce)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			checkDocument(abs, logger, owns, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("watcher: event", slog.String("op", ev.Op.String()))
				scheduleCheck()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func checkDocument(path string, logger *slog.Logger, owns func(string) bool, cb ChangeCallback) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("watcher: document removed", slog.String("path", path))
		if cb != nil {
			cb(ChangeRemoved)
		}
		return
	case err != nil:
		logger.Warn("watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	if owns != nil && owns(checksum.Sum(data)) {
		return
	}
	logger.Info("watcher: external change", slog.String("path", path))
	if cb != nil {
		cb(ChangeModified)
	}
}
