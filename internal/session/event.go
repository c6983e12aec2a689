package session

import (
	"context"
	"sync"
	"time"

	"github.com/polytech/coursedesk/internal/model"
)

// EventKind names a session transition.
type EventKind string

const (
	EventSignedIn  EventKind = "SIGNED_IN"
	EventSignedOut EventKind = "SIGNED_OUT"
	EventExpired   EventKind = "EXPIRED"
)

// Event announces a session transition so per-session view state can be
// invalidated or re-fetched.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	UserID    model.ID  `json:"user_id,omitempty"`
	At        time.Time `json:"at"`
}

// Ends reports whether the session is gone after this event.
func (e Event) Ends() bool {
	return e.Kind == EventSignedOut || e.Kind == EventExpired
}

// Listener reacts to session events. Listeners must not block.
type Listener func(Event)

// Publisher announces session events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus fans events out to in-process listeners. Used directly it is also a
// Publisher for single-instance deployments; with Redis the
// SessionEventWorker feeds it from the pub/sub channel instead.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for every subsequent event.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Dispatch delivers an event to all listeners synchronously.
func (b *Bus) Dispatch(ev Event) {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

// Publish implements Publisher by dispatching locally.
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.Dispatch(ev)
	return nil
}
