package worker

import (
	"context"
	"time"

	"github.com/polytech/coursedesk/internal/session"
	"github.com/rs/zerolog"
)

// SweepInterval is how often expired sessions are purged.
const SweepInterval = 10 * time.Minute

// ExpiredPurger deletes sessions past their expiry and returns their ids.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) ([]string, error)
}

// SessionSweepWorker purges expired sessions from stores without native
// expiry (Postgres, memory) and announces each one as EventExpired so
// drafts and attempts of the session are released. Redis keys carry their
// own TTL; the ViewStateReaper covers those.
type SessionSweepWorker struct {
	store     ExpiredPurger
	publisher session.Publisher
	interval  time.Duration
	log       zerolog.Logger
}

func NewSessionSweepWorker(store ExpiredPurger, publisher session.Publisher, interval time.Duration, log zerolog.Logger) *SessionSweepWorker {
	if interval <= 0 {
		interval = SweepInterval
	}
	return &SessionSweepWorker{
		store:     store,
		publisher: publisher,
		interval:  interval,
		log:       log.With().Str("component", "session_sweep_worker").Logger(),
	}
}

// Start sweeps once immediately and then on every interval until ctx ends.
func (w *SessionSweepWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("SessionSweepWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("SessionSweepWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionSweepWorker) sweep(ctx context.Context) {
	ids, err := w.store.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Session sweep failed")
		}
		return
	}
	if len(ids) == 0 {
		return
	}

	now := time.Now()
	for _, id := range ids {
		ev := session.Event{Kind: session.EventExpired, SessionID: id, At: now}
		if err := w.publisher.Publish(ctx, ev); err != nil {
			w.log.Warn().Err(err).Str("session_id", id).Msg("Failed to announce expired session")
		}
	}
	w.log.Info().Int("purged", len(ids)).Msg("Expired sessions purged")
}
