package testrun

import "time"

// EventKind tells watchers what changed.
type EventKind string

const (
	EventTick   EventKind = "tick"
	EventResult EventKind = "result"
)

// Event is pushed to watchers on every tick and once when a result arrives.
type Event struct {
	Kind      EventKind
	Remaining time.Duration
	Result    *Result
}

func tickEvent(remaining time.Duration) Event {
	return Event{Kind: EventTick, Remaining: remaining}
}

// Watch subscribes to countdown events. Slow watchers miss ticks rather
// than stall the countdown, but always get the result. The channel closes
// after the result, when the attempt is closed or when the returned cancel
// func is called. A finished attempt yields a closed channel; read the
// result from Snapshot.
func (a *Attempt) Watch() (<-chan Event, func()) {
	ch := make(chan Event, 4)

	a.mu.Lock()
	if a.closed || a.result != nil {
		a.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	a.subs[ch] = struct{}{}
	a.mu.Unlock()

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if _, ok := a.subs[ch]; ok {
			delete(a.subs, ch)
			close(ch)
		}
	}
}

func (a *Attempt) broadcastLocked(ev Event) {
	for ch := range a.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// finishLocked hands the last event to every watcher and disconnects them.
// A full buffer gives up its oldest tick; only this goroutine sends, so the
// second send cannot block.
func (a *Attempt) finishLocked(ev Event) {
	for ch := range a.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
		close(ch)
		delete(a.subs, ch)
	}
}
