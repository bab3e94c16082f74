package pack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"go.minekube.com/gate/pkg/edition/java/proxy"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrNoPack is returned when pushing while no pack is set.
var ErrNoPack = errors.New("no resource pack is set")

// Target is a player the pack can be offered to.
// proxy.Player satisfies it.
type Target interface {
	Username() string
	SendResourcePack(info proxy.ResourcePackInfo) error
}

var _ Target = (proxy.Player)(nil)

// InfoSource provides the current resource pack offer.
type InfoSource interface {
	Info() (proxy.ResourcePackInfo, bool)
}

const (
	// DefaultPushRate is the default number of offers sent per second.
	DefaultPushRate rate.Limit = 20
	// DefaultPushBurst is the default number of offers sent at once.
	DefaultPushBurst = 20
	// DefaultPushConcurrency bounds concurrently sending offers.
	DefaultPushConcurrency = 8
)

// PusherOptions are Pusher options.
type PusherOptions struct {
	Logger logr.Logger
	// Source provides the offer. Required.
	Source InfoSource
	// Rate limits offers per second so a push to a full proxy does not
	// hit the pack host with every client at once. Defaults to DefaultPushRate,
	// use rate.Inf to disable.
	Rate rate.Limit
	// Burst defaults to DefaultPushBurst.
	Burst int
	// Concurrency defaults to DefaultPushConcurrency.
	Concurrency int
}

// Pusher offers the current resource pack to players.
type Pusher struct {
	log         logr.Logger
	source      InfoSource
	limiter     *rate.Limiter
	concurrency int
}

// NewPusher returns a new Pusher.
func NewPusher(opts PusherOptions) (*Pusher, error) {
	if opts.Source == nil {
		return nil, errors.New("missing pack info source")
	}
	if opts.Rate == 0 {
		opts.Rate = DefaultPushRate
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultPushBurst
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultPushConcurrency
	}
	return &Pusher{
		log:         opts.Logger,
		source:      opts.Source,
		limiter:     rate.NewLimiter(opts.Rate, opts.Burst),
		concurrency: opts.Concurrency,
	}, nil
}

// Push offers the current pack to targets and returns how many offers were sent.
// Failed offers are joined into the returned error; they do not stop the others.
// It returns ErrNoPack if no pack is set.
func (p *Pusher) Push(ctx context.Context, targets []Target) (int, error) {
	info, ok := p.source.Info()
	if !ok {
		return 0, ErrNoPack
	}

	var (
		sent atomic.Int64
		mu   sync.Mutex
		errs []error
	)
	addErr := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for _, t := range targets {
		if err := p.limiter.Wait(ctx); err != nil {
			addErr(fmt.Errorf("push interrupted: %w", err))
			break
		}
		g.Go(func() error {
			if err := t.SendResourcePack(info); err != nil {
				addErr(fmt.Errorf("error sending resource pack to %s: %w", t.Username(), err))
				return nil
			}
			sent.Inc()
			p.log.V(1).Info("sent resource pack", "player", t.Username(), "url", info.URL)
			return nil
		})
	}
	_ = g.Wait()

	n := sent.Load()
	pushCounter.Add(ctx, n)
	return int(n), errors.Join(errs...)
}
