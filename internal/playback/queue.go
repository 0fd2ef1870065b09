package playback

import "sync"

// StepQueue is the unbounded FIFO between the session (producer) and the
// engine (consumer). Steps keep the index they were enqueued with for the
// whole session; the narration cache is keyed by that index.
type StepQueue struct {
	mu     sync.Mutex
	steps  []*Step
	head   int // index of the next step to consume
	notify chan struct{}
	closed bool
}

// NewStepQueue creates an empty queue.
func NewStepQueue() *StepQueue {
	return &StepQueue{
		notify: make(chan struct{}, 1),
	}
}

// Append enqueues a step and wakes the consumer.
func (q *StepQueue) Append(step *Step) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.steps = append(q.steps, step)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TryNext pops the next step if one is pending. The returned index is the
// step's permanent position in the session.
func (q *StepQueue) TryNext() (*Step, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.steps) {
		return nil, 0, false
	}
	step := q.steps[q.head]
	index := q.head
	q.head++
	return step, index, true
}

// Upcoming returns up to n pending steps with their indices, without
// consuming them. Used by the prefetcher.
func (q *StepQueue) Upcoming(n int) ([]*Step, []int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	steps := make([]*Step, 0, n)
	indices := make([]int, 0, n)
	for i := q.head; i < len(q.steps) && len(steps) < n; i++ {
		steps = append(steps, q.steps[i])
		indices = append(indices, i)
	}
	return steps, indices
}

// Pending returns the number of unconsumed steps.
func (q *StepQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.steps) - q.head
}

// Notify exposes the wake-up channel for the consumer's select loop.
func (q *StepQueue) Notify() <-chan struct{} {
	return q.notify
}

// Close stops accepting new steps.
func (q *StepQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
