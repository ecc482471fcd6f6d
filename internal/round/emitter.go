package round

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// EventEmitter provides non-blocking event emission for the round
// orchestrator. Events are dropped rather than ever blocking execution.
type EventEmitter struct {
	events       chan Event
	mu           sync.RWMutex
	closed       bool
	droppedCount int64
}

// NewEventEmitter creates an event emitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event without blocking. If the buffer is full the emitter
// retries once with a short timeout, then drops the event and counts it.
func (e *EventEmitter) Emit(event Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Try immediate send first.
	select {
	case e.events <- event:
		return
	default:
	}

	// Buffer full, retry briefly before dropping.
	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		dropped := atomic.AddInt64(&e.droppedCount, 1)
		if dropped%10 == 1 {
			log.Printf("event emitter: dropped %d events (buffer full)", dropped)
		}
	}
}

// DroppedCount returns the number of events dropped due to a full buffer.
func (e *EventEmitter) DroppedCount() int64 {
	return atomic.LoadInt64(&e.droppedCount)
}

// Events returns the channel to receive events from.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the event channel. Emit calls after Close are no-ops.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.events)
	}
}
