package ml

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch retries the load whenever the artifact file is created or rewritten
// while the provider is unavailable. A ready provider ignores file changes.
// The watcher stops when ctx is cancelled.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	target := filepath.Clean(p.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				if p.State() != StateUnavailable {
					continue
				}
				p.logger.Info("artifact changed", zap.String("event", ev.Op.String()))
				if err := p.Reload(ctx); err != nil && !errors.Is(err, ErrAlreadyReady) {
					p.logger.Debug("reload after artifact change failed", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.Warn("artifact watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
