package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/robinbraemer/event"
	"go.minekube.com/gate/pkg/edition/java/proxy"
	"go.minekube.com/gate/pkg/util/uuid"

	"go.minekube.com/serverpacks/pkg/pack"
)

// Subscribe subscribes the pack handlers to mgr.
// stop is called when the proxy shuts down.
func (sp *ServerPacks) Subscribe(mgr event.Manager, stop context.CancelFunc) {
	event.Subscribe(mgr, 0, func(e *proxy.ServerPostConnectEvent) {
		var t pack.Target
		if p := e.Player(); p != nil {
			t = p
		}
		sp.onPostConnect(t, e.PreviousServer() != nil)
	})
	event.Subscribe(mgr, 0, sp.onPackStatus)
	event.Subscribe(mgr, 0, func(*proxy.ShutdownEvent) {
		if stop != nil {
			stop()
		}
	})
}

// onPostConnect offers the pack once per session, on the first server.
// Server switches keep the pack the client already has.
func (sp *ServerPacks) onPostConnect(t pack.Target, switched bool) {
	if switched || t == nil {
		return
	}
	sp.offer(t)
}

// offer sends the pack to a player that just joined.
// Join offers bypass the pacing of /pack push.
func (sp *ServerPacks) offer(t pack.Target) {
	if _, err := sp.joins.Push(sp.ctx, []pack.Target{t}); err != nil && !errors.Is(err, pack.ErrNoPack) {
		sp.log.Error(err, "failed to send resource pack on join", "player", t.Username())
	}
}

// ownsPack reports whether id is the pack currently offered.
func (sp *ServerPacks) ownsPack(id uuid.UUID) bool {
	info, ok := sp.manager.Info()
	return ok && id == info.ID
}

func (sp *ServerPacks) onPackStatus(e *proxy.PlayerResourcePackStatusEvent) {
	if !sp.ownsPack(e.PackInfo().ID) {
		return
	}
	status := fmt.Sprint(e.Status())
	pack.RecordStatus(sp.ctx, status)
	sp.log.V(1).Info("resource pack status", "player", e.PlayerID(), "status", status)
}
