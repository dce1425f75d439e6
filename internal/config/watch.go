package config

import (
	"context"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader applies a stored profile again after its file changed
type Reloader interface {
	// GetCurrentProfile returns the name of the profile in use
	GetCurrentProfile() string
	// Reload loads and publishes name if it is still the profile in use
	Reload(name string) error
}

// Watch reloads the active profile through r whenever its file changes on
// disk. Edits are debounced because editors often write a file in several
// steps. Watch blocks until ctx is done.
func Watch(ctx context.Context, store *Store, r Reloader, logger *zap.SugaredLogger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(store.Dir()); err != nil {
		return err
	}
	logger.Infof("Profiles: Watching %s for changes", store.Dir())

	debounced := debounce.New(250 * time.Millisecond)
	reload := func() {
		name := r.GetCurrentProfile()
		if err := r.Reload(name); err != nil {
			logger.Warnf("Profiles: Ignoring change to %s: %v", name, err)
			return
		}
		logger.Infof("Profiles: Reloaded %s", name)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			name, ok := store.NameFromPath(ev.Name)
			if !ok || name != r.GetCurrentProfile() {
				continue
			}
			debounced(reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("Profiles: Watcher error: %v", err)
		}
	}
}
