package sse

import (
	"sync"

	"github.com/samber/ro"
)

// Log is an append-only, ordered record of events. Clear empties it.
// Observers registered through Observe see every event appended after the
// snapshot they were replayed.
type Log struct {
	observers map[uint64]func(Event)
	events    []Event
	nextID    uint64
	// appendMu serializes Append so observers receive events in log order.
	appendMu sync.Mutex
	mu       sync.RWMutex
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{observers: make(map[uint64]func(Event))}
}

// Append records e at the end of the log and notifies observers.
func (l *Log) Append(e Event) {
	l.appendMu.Lock()
	defer l.appendMu.Unlock()

	l.mu.Lock()
	l.events = append(l.events, e)
	observers := make([]func(Event), 0, len(l.observers))
	for _, fn := range l.observers {
		observers = append(observers, fn)
	}
	l.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}

// Events returns a copy of the log in append order.
func (l *Log) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Clear removes every recorded event. Clearing an empty log is a no-op.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// Observe returns an Observable that first replays the current contents of
// the log and then emits each newly appended event. It never completes on
// its own; unsubscribe to stop it.
//
// Observers are called synchronously from Append, in log order, while Append
// holds its lock. An observer that blocks on the appending goroutine
// deadlocks it.
func (l *Log) Observe() ro.Observable[Event] {
	return ro.NewObservable(func(observer ro.Observer[Event]) ro.Teardown {
		l.appendMu.Lock()
		l.mu.Lock()
		snapshot := make([]Event, len(l.events))
		copy(snapshot, l.events)
		id := l.nextID
		l.nextID++
		l.observers[id] = observer.Next
		l.mu.Unlock()

		for _, e := range snapshot {
			observer.Next(e)
		}
		l.appendMu.Unlock()

		return func() {
			l.mu.Lock()
			delete(l.observers, id)
			l.mu.Unlock()
		}
	})
}
