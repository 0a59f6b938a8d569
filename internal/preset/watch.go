package preset

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a bank whenever its file is written or replaced.
type Watcher struct {
	w      *fsnotify.Watcher
	path   string
	bank   *Bank
	logger *slog.Logger
	onLoad func()
}

// NewWatcher watches the directory holding path, since Save replaces the
// file by rename. onLoad, if not nil, runs after each successful reload.
func NewWatcher(path string, bank *Bank, logger *slog.Logger, onLoad func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{w: w, path: abs, bank: bank, logger: logger, onLoad: onLoad}, nil
}

// Run handles events until ctx is done or the watcher is closed.
func (pw *Watcher) Run(ctx context.Context) error {
	defer pw.w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-pw.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != pw.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			pw.reload()
		case err, ok := <-pw.w.Errors:
			if !ok {
				return nil
			}
			pw.logger.Warn("preset watcher", "err", err)
		}
	}
}

func (pw *Watcher) reload() {
	loaded, err := Load(pw.path)
	if err != nil {
		// a half-written file fails the checksum; the next event retries
		pw.logger.Debug("preset reload skipped", "path", pw.path, "err", err)
		return
	}
	pw.bank.Replace(loaded.Presets())
	pw.logger.Info("presets reloaded", "path", pw.path)
	if pw.onLoad != nil {
		pw.onLoad()
	}
}

// Close stops the watcher.
func (pw *Watcher) Close() error { return pw.w.Close() }
