// Package replay provides a fixed-capacity episodic replay buffer.
//
// The buffer records raw perception-decision-action-outcome episodes and
// serves them back as a training signal for the sleep-cycle optimizer.
package replay

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of episodes retained before the oldest
// entries are evicted.
const DefaultCapacity = 500

// Episode is a single recorded interaction.
type Episode struct {
	// Perception is what the agent observed.
	Perception string `json:"perception"`

	// Decision is the choice the agent made.
	Decision string `json:"decision"`

	// Action is what the agent did.
	Action string `json:"action"`

	// Outcome is the observed result of the action.
	Outcome string `json:"outcome"`

	// Reward is the scalar feedback for the episode.
	Reward float64 `json:"reward"`

	// Timestamp is when the episode was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// Buffer is a thread-safe FIFO episode buffer with a fixed capacity.
//
// Once the capacity is exceeded, recording a new episode evicts the oldest.
type Buffer struct {
	mu       sync.Mutex
	episodes []Episode
	capacity int
}

// NewBuffer creates a replay buffer with DefaultCapacity.
func NewBuffer() *Buffer {
	return NewBufferWithCapacity(DefaultCapacity)
}

// NewBufferWithCapacity creates a replay buffer with a custom capacity.
// A non-positive capacity falls back to DefaultCapacity.
func NewBufferWithCapacity(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		episodes: make([]Episode, 0, capacity),
		capacity: capacity,
	}
}

// RecordEpisode appends an episode, evicting the oldest entry when the
// buffer is full. A zero Timestamp is filled in with the current time.
func (b *Buffer) RecordEpisode(ep Episode) {
	if ep.Timestamp.IsZero() {
		ep.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.episodes) >= b.capacity {
		b.episodes = b.episodes[1:]
	}
	b.episodes = append(b.episodes, ep)
}

// GetRecent returns at most min(n, size) of the most recent episodes in
// insertion order (oldest of the selection first).
func (b *Buffer) GetRecent(n int) []Episode {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(b.episodes) {
		n = len(b.episodes)
	}

	recent := make([]Episode, n)
	copy(recent, b.episodes[len(b.episodes)-n:])
	return recent
}

// Len returns the number of buffered episodes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.episodes)
}

// Capacity returns the maximum number of episodes retained.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// AverageReward returns the mean reward over the last n episodes,
// or 0 when the buffer is empty.
func (b *Buffer) AverageReward(n int) float64 {
	recent := b.GetRecent(n)
	if len(recent) == 0 {
		return 0
	}

	var sum float64
	for _, ep := range recent {
		sum += ep.Reward
	}
	return sum / float64(len(recent))
}
