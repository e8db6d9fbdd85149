package roomsource

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/remotehq/office/internal/office"
)

// Poller reloads the registry from the provider on a fixed interval and
// lets the coordinator announce the refreshed list. A failed fetch
// keeps the previous room set.
type Poller struct {
	provider Provider
	rooms    *office.Registry
	interval time.Duration
	onUpdate func()
}

func NewPoller(provider Provider, rooms *office.Registry, interval time.Duration, onUpdate func()) *Poller {
	return &Poller{provider: provider, rooms: rooms, interval: interval, onUpdate: onUpdate}
}

func (p *Poller) Run(ctx context.Context) {
	p.reload(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "roomsource").Msg("poller stopped")
			return
		case <-ticker.C:
			p.reload(ctx)
		}
	}
}

func (p *Poller) reload(ctx context.Context) {
	feed, err := p.provider.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Str("module", "roomsource").Msg("room source fetch failed, keeping current set")
		return
	}
	p.rooms.Reload(feed)
	if p.onUpdate != nil {
		p.onUpdate()
	}
}
