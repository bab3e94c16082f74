package settings

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/knadh/koanf/providers/file"
)

const debounceDuration = 100 * time.Millisecond

// Watch calls cb whenever the file at path changes until ctx is canceled.
// Bursts of file events are debounced into a single call.
func Watch(ctx context.Context, path string, cb func() error) error {
	if ctx.Err() != nil {
		return nil
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	provider := file.Provider(path)
	err := provider.Watch(func(_ any, err error) {
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Info("failed watching settings file", "error", err)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDuration, func() {
			if ctx.Err() != nil {
				return
			}
			start := time.Now()
			if err := cb(); err != nil {
				log.Info("failed to reload settings file", "error", err)
				return
			}
			log.V(1).Info("reloaded settings file", "duration", time.Since(start).Round(time.Millisecond).String())
		})
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = provider.Unwatch()
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()
	return nil
}
