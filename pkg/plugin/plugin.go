// Package plugin binds the resource pack manager to a Gate proxy.
package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/robinbraemer/event"
	"go.minekube.com/gate/pkg/edition/java/proxy"
	"golang.org/x/time/rate"

	"go.minekube.com/serverpacks/pkg/pack"
	"go.minekube.com/serverpacks/pkg/settings"
)

// PluginName is the plugin name.
const PluginName = "ServerPacks"

// Plugin returns the Gate plugin using opts.
//
//	proxy.Plugins = append(proxy.Plugins, plugin.Plugin(plugin.DefaultOptions()))
func Plugin(opts Options) proxy.Plugin {
	return proxy.Plugin{
		Name: PluginName,
		Init: func(ctx context.Context, p *proxy.Proxy) error {
			return Init(ctx, p, opts)
		},
	}
}

// Init initializes the plugin on proxy p.
func Init(ctx context.Context, p *proxy.Proxy, opts Options) error {
	log := logr.FromContextOrDiscard(ctx).WithName("serverpacks")
	ctx, cancel := context.WithCancel(logr.NewContext(ctx, log))

	sp, err := New(ctx, &proxyRoster{p: p}, p.Event(), opts)
	if err != nil {
		cancel()
		return err
	}
	p.Command().Register(sp.Command())
	sp.Subscribe(p.Event(), cancel)
	if err = sp.Start(); err != nil {
		cancel()
		return err
	}
	return nil
}

// ServerPacks manages the server resource pack of a proxy.
type ServerPacks struct {
	ctx        context.Context
	log        logr.Logger
	permission string
	roster     Roster
	store      *settings.Store
	manager    *pack.Manager
	pusher     *pack.Pusher // paced, for /pack push
	joins      *pack.Pusher // unpaced, for offers on join
}

// New returns a new ServerPacks. The context bounds background work
// like hash updates, pushes and the settings watcher.
func New(ctx context.Context, roster Roster, mgr event.Manager, opts Options) (*ServerPacks, error) {
	if roster == nil {
		return nil, errors.New("missing roster")
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	log := logr.FromContextOrDiscard(ctx)

	store, err := settings.Open(settings.Options{
		Path:  opts.SettingsFile,
		Event: mgr,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading settings: %w", err)
	}
	s := store.Get()
	warns, errs := s.Validate()
	for _, w := range warns {
		log.Info("settings validation warning", "warn", w)
	}
	if len(errs) != 0 {
		return nil, fmt.Errorf("invalid settings in %s: %w", store.Path(), errors.Join(errs...))
	}

	hasher := opts.Hasher
	if hasher == nil {
		hasher = pack.NewDigester(pack.DigesterOptions{
			Timeout: opts.DownloadTimeout,
			MaxSize: opts.MaxPackSize,
		})
	}
	manager, err := pack.NewManager(pack.Options{
		Logger: log,
		Store:  store,
		Hasher: hasher,
		Event:  mgr,
	})
	if err != nil {
		return nil, err
	}
	pusher, err := pack.NewPusher(pack.PusherOptions{
		Logger:      log,
		Source:      manager,
		Rate:        opts.pushRate(),
		Burst:       opts.PushBurst,
		Concurrency: opts.PushConcurrency,
	})
	if err != nil {
		return nil, err
	}
	joins, err := pack.NewPusher(pack.PusherOptions{
		Logger:      log,
		Source:      manager,
		Rate:        rate.Inf,
		Concurrency: 1,
	})
	if err != nil {
		return nil, err
	}

	permission := opts.Permission
	if permission == "" {
		permission = Permission
	}
	return &ServerPacks{
		ctx:        ctx,
		log:        log,
		permission: permission,
		roster:     roster,
		store:      store,
		manager:    manager,
		pusher:     pusher,
		joins:      joins,
	}, nil
}

// Manager returns the pack manager.
func (sp *ServerPacks) Manager() *pack.Manager { return sp.manager }

// Start rehashes the pack if needed and watches the settings file
// until the context is canceled.
func (sp *ServerPacks) Start() error {
	s := sp.store.Get()
	switch {
	case s.URL != "" && (s.RehashOnStart || s.HashBytes() == nil):
		sp.log.Info("computing resource pack hash", "url", s.URL)
		sp.manager.UpdateHash(sp.ctx)
	case s.URL == "" && s.Hash != "":
		sp.manager.UpdateHash(sp.ctx)
	case s.URL != "":
		sp.log.Info("using cached resource pack hash", "url", s.URL, "hash", s.Hash)
	}
	if err := settings.Watch(sp.ctx, sp.store.Path(), sp.reloadSettings); err != nil {
		return fmt.Errorf("error watching settings file: %w", err)
	}
	return nil
}

// reloadSettings picks up manual edits of the settings file.
func (sp *ServerPacks) reloadSettings() error {
	prev, cur, err := sp.store.Reload()
	if err != nil {
		return err
	}
	if prev == cur {
		return nil
	}
	sp.log.Info("reloaded settings file", "path", sp.store.Path())
	if prev.URL != cur.URL {
		sp.manager.UpdateHash(sp.ctx)
	}
	return nil
}
