package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ReapInterval is how often per-session view state is checked for expiry.
const ReapInterval = time.Minute

// Reaper drops in-memory state that outlived its session.
type Reaper interface {
	Reap(now time.Time) int
}

// ViewStateReaper evicts drafts and attempts whose session has expired
// without a sign-out, and finished attempts past their grace period.
type ViewStateReaper struct {
	reapers  []Reaper
	interval time.Duration
	log      zerolog.Logger
}

func NewViewStateReaper(interval time.Duration, log zerolog.Logger, reapers ...Reaper) *ViewStateReaper {
	if interval <= 0 {
		interval = ReapInterval
	}
	return &ViewStateReaper{
		reapers:  reapers,
		interval: interval,
		log:      log.With().Str("component", "view_state_reaper").Logger(),
	}
}

// Start reaps on every interval until ctx ends.
func (w *ViewStateReaper) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ViewStateReaper started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ViewStateReaper stopped")
			return
		case now := <-ticker.C:
			w.reap(now)
		}
	}
}

func (w *ViewStateReaper) reap(now time.Time) {
	n := 0
	for _, r := range w.reapers {
		n += r.Reap(now)
	}
	if n > 0 {
		w.log.Debug().Int("evicted", n).Msg("Stale view state evicted")
	}
}
