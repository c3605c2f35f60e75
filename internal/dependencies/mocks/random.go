package mocks

import (
	"sync"

	"github.com/mcoot/lightsduel/internal/dependencies/random"
)

var _ random.Random = (*MockRandom)(nil)

// MockRandom replays queued values. Each value is reduced modulo the bound
// passed to Intn; once the queue is drained Intn returns 0.
type MockRandom struct {
	mu     sync.Mutex
	queue  []int
	bounds []int
}

// NewMockRandom creates a MockRandom with nothing queued
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn implements random.Random
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bounds = append(r.bounds, n)
	if len(r.queue) == 0 || n <= 0 {
		return 0
	}
	v := r.queue[0]
	r.queue = r.queue[1:]
	return v % n
}

// QueueIntn appends values to be returned by later Intn calls
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, values...)
}

// Bounds returns the n of every Intn call made so far
func (r *MockRandom) Bounds() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.bounds...)
}

// Reset drops queued values and recorded calls
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = nil
	r.bounds = nil
}
