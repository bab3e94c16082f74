package pack

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"github.com/rs/xid"
	"go.minekube.com/gate/pkg/edition/java/proxy"
	"go.uber.org/atomic"

	"go.minekube.com/serverpacks/pkg/internal/future"
	"go.minekube.com/serverpacks/pkg/settings"
)

// ErrURLChanged is the cause of a failed update whose URL was replaced
// while it was being hashed. The newer update owns the hash.
var ErrURLChanged = errors.New("pack url changed during hash update")

// Options are Manager options.
type Options struct {
	Logger logr.Logger
	// Store holds the pack URL and receives the computed hash. Required.
	Store *settings.Store
	// Hasher computes pack hashes. Defaults to a Digester with default options.
	Hasher Hasher
	// Event receives UpdatedEvent. Optional.
	Event event.Manager
}

// Manager owns the resource pack hash of the URL in a settings store.
type Manager struct {
	log    logr.Logger
	store  *settings.Store
	hasher Hasher
	event  event.Manager

	inflight atomic.Int32
}

// NewManager returns a new Manager.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("missing settings store")
	}
	if opts.Hasher == nil {
		opts.Hasher = NewDigester(DigesterOptions{})
	}
	return &Manager{
		log:    opts.Logger,
		store:  opts.Store,
		hasher: opts.Hasher,
		event:  opts.Event,
	}, nil
}

// Store returns the settings store of the manager.
func (m *Manager) Store() *settings.Store { return m.store }

// Hash returns the current pack hash or nil if undetermined.
func (m *Manager) Hash() []byte {
	s := m.store.Get()
	return s.HashBytes()
}

// HashString returns the hex encoded pack hash or "" if undetermined.
func (m *Manager) HashString() string {
	s := m.store.Get()
	if s.HashBytes() == nil {
		return ""
	}
	return s.Hash
}

// Updating reports whether a hash update is in progress.
func (m *Manager) Updating() bool { return m.inflight.Load() > 0 }

// Info returns the resource pack offer for the current settings.
// It returns false if no pack is set.
func (m *Manager) Info() (proxy.ResourcePackInfo, bool) {
	return InfoFor(m.store.Get())
}

// UpdateHash recomputes the hash of the configured pack in the background.
//
// The returned future completes with Disabled if no pack URL is set (the
// cached hash is cleared), Updated with the new hash, or Failed with the
// cause. A failed update leaves the settings untouched.
func (m *Manager) UpdateHash(ctx context.Context) *future.Chan[Result] {
	if err := ctx.Err(); err != nil {
		url := m.store.Get().URL
		recordHashUpdate(ctx, Failed)
		return future.Completed(failed(m.log.WithValues("url", url), url, err))
	}
	f := future.NewChan[Result]()
	m.inflight.Inc()
	go func() {
		res := m.safeUpdateHash(ctx)
		m.inflight.Dec()
		recordHashUpdate(ctx, res.Outcome)
		if res.Outcome != Failed && m.event != nil {
			m.event.Fire(&UpdatedEvent{Result: res})
		}
		f.Complete(res)
	}()
	return f
}

// forgetter is implemented by hashers remembering earlier downloads, like Digester.
type forgetter interface {
	Forget(url string)
}

// RefreshHash is like UpdateHash but first drops what the hasher remembers
// about the pack url, so the pack is downloaded again even if the host
// reports it unchanged.
func (m *Manager) RefreshHash(ctx context.Context) *future.Chan[Result] {
	if f, ok := m.hasher.(forgetter); ok {
		if url := m.store.Get().URL; url != "" {
			f.Forget(url)
		}
	}
	return m.UpdateHash(ctx)
}

func (m *Manager) safeUpdateHash(ctx context.Context) (res Result) {
	log := m.log.WithValues("update", xid.New().String())
	defer func() {
		if r := recover(); r != nil {
			res = failed(log, m.store.Get().URL, fmt.Errorf("panic during hash update: %v", r))
		}
	}()
	return m.updateHash(ctx, log)
}

func (m *Manager) updateHash(ctx context.Context, log logr.Logger) Result {
	url := m.store.Get().URL
	log = log.WithValues("url", url)
	if url == "" {
		_, err := m.store.Update(func(s *settings.Settings) error {
			if s.URL != "" {
				return ErrURLChanged
			}
			s.Hash = ""
			return nil
		})
		if err != nil {
			return failed(log, url, err)
		}
		log.Info("resource pack disabled, no url set")
		return Result{Outcome: Disabled}
	}

	if _, err := settings.ParseURL(url); err != nil {
		return failed(log, url, err)
	}

	log.V(1).Info("updating resource pack hash")
	hash, err := m.hasher.Digest(ctx, url)
	if err != nil {
		return failed(log, url, err)
	}

	_, err = m.store.Update(func(s *settings.Settings) error {
		if s.URL != url {
			return ErrURLChanged
		}
		s.SetHash(hash)
		return nil
	})
	if err != nil {
		return failed(log, url, err)
	}
	res := Result{Outcome: Updated, URL: url, Hash: hash}
	log.Info("updated resource pack hash", "hash", res.HashString())
	return res
}

func failed(log logr.Logger, url string, err error) Result {
	log.Error(err, "failed to update hash")
	return Result{Outcome: Failed, URL: url, Err: err}
}
