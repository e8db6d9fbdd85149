package roomsource

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SortLoop republishes the ranked room list whenever the office saw
// activity since the last publication. An idle office stays quiet.
type SortLoop struct {
	interval     time.Duration
	lastActivity func() time.Time
	publish      func()
}

func NewSortLoop(interval time.Duration, lastActivity func() time.Time, publish func()) *SortLoop {
	return &SortLoop{interval: interval, lastActivity: lastActivity, publish: publish}
}

func (s *SortLoop) Run(ctx context.Context) {
	seen := s.lastActivity()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "roomsource").Msg("sort loop stopped")
			return
		case <-ticker.C:
			if act := s.lastActivity(); act.After(seen) {
				seen = act
				s.publish()
			}
		}
	}
}
