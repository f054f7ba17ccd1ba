// Package telemetry provides the retrieval telemetry boundary.
//
// The retrieval store emits one event per retrieval call. Sinks are passive
// observers: a failing sink must never affect the retrieval result, so the
// store catches and discards sink errors at the call boundary.
package telemetry

import (
	"sync"
	"time"
)

// Event describes a single retrieval call.
type Event struct {
	// Strategy is the retrieval strategy name used for the call.
	Strategy string `json:"strategy"`

	// LatencyMs is the wall-clock duration of the call in milliseconds.
	LatencyMs float64 `json:"latency_ms"`

	// ResultCount is the number of results returned.
	ResultCount int `json:"result_count"`

	// Timestamp is when the retrieval happened.
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives retrieval events.
type Sink interface {
	// Record stores one event. Errors are advisory; callers discard them.
	Record(event Event) error

	// ReadRecent returns at most limit of the most recent events,
	// oldest first.
	ReadRecent(limit int) []Event
}

// RingSink is a bounded in-memory Sink.
//
// It keeps the most recent events in a ring and is the telemetry source the
// sleep-cycle optimizer evaluates fitness against. Safe for concurrent use.
type RingSink struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// DefaultRingLimit is the number of events a RingSink retains.
const DefaultRingLimit = 256

// NewRingSink creates a RingSink retaining up to limit events.
// A non-positive limit falls back to DefaultRingLimit.
func NewRingSink(limit int) *RingSink {
	if limit <= 0 {
		limit = DefaultRingLimit
	}
	return &RingSink{
		events: make([]Event, 0, limit),
		limit:  limit,
	}
}

// Record appends an event, evicting the oldest when full. Never fails.
func (s *RingSink) Record(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.limit {
		s.events = s.events[1:]
	}
	s.events = append(s.events, event)
	return nil
}

// ReadRecent returns at most limit of the most recent events, oldest first.
func (s *RingSink) ReadRecent(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		return nil
	}
	if limit > len(s.events) {
		limit = len(s.events)
	}

	recent := make([]Event, limit)
	copy(recent, s.events[len(s.events)-limit:])
	return recent
}

// Len returns the number of retained events.
func (s *RingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// NopSink discards all events.
type NopSink struct{}

// Record discards the event.
func (NopSink) Record(Event) error { return nil }

// ReadRecent always returns nil.
func (NopSink) ReadRecent(int) []Event { return nil }
