package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/polytech/coursedesk/internal/config"
	"github.com/polytech/coursedesk/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const resubscribeDelay = 3 * time.Second

// SessionEventWorker relays session events published by any BFF instance
// on Redis into the local bus, so drafts and attempts held by this
// instance are dropped on sign-out elsewhere.
type SessionEventWorker struct {
	rdb *redis.Client
	bus *session.Bus
	log zerolog.Logger
}

func NewSessionEventWorker(rdb *redis.Client, bus *session.Bus, log zerolog.Logger) *SessionEventWorker {
	return &SessionEventWorker{
		rdb: rdb,
		bus: bus,
		log: log.With().Str("component", "session_event_worker").Logger(),
	}
}

// Start blocks until ctx is cancelled, resubscribing after connection loss.
func (w *SessionEventWorker) Start(ctx context.Context) {
	channel := config.CacheKey.SessionEventsChannel()
	w.log.Info().Str("channel", channel).Msg("SessionEventWorker started")

	for {
		if err := w.listen(ctx, channel); err != nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Redis subscription lost, retrying in 3s")
			select {
			case <-ctx.Done():
			case <-time.After(resubscribeDelay):
				continue
			}
		}
		if ctx.Err() != nil {
			w.log.Info().Msg("SessionEventWorker stopped")
			return
		}
	}
}

func (w *SessionEventWorker) listen(ctx context.Context, channel string) error {
	sub := w.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	// Wait for the subscription confirmation so errors surface here.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return redis.ErrClosed
			}
			w.handle(msg.Payload)
		}
	}
}

func (w *SessionEventWorker) handle(payload string) {
	var ev session.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		// Malformed events cannot be retried. Log and discard.
		w.log.Error().Err(err).Str("data", payload).Msg("Discarding malformed session event")
		return
	}
	if ev.SessionID == "" {
		return
	}
	w.bus.Dispatch(ev)
}
