package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HubConfig tunes delivery behavior.
type HubConfig struct {
	BufferSize     int           // per-subscriber channel buffer
	PublishTimeout time.Duration // how long Emit waits on a full subscriber before dropping
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		BufferSize:     256,
		PublishTimeout: 10 * time.Millisecond,
	}
}

// HubMetrics tracks delivery statistics.
type HubMetrics struct {
	EventsPublished int64
	EventsDelivered int64
	EventsDropped   int64
}

// Subscription is one session's membership in a job room. Events arrive on C
// from the moment of Join; Leave (or hub Close) closes C.
type Subscription struct {
	ID    string
	JobID string
	C     chan *Event

	mu     sync.Mutex
	closed bool
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.C)
	}
}

// trySend delivers the event unless the subscriber is closed or stays full
// past the timeout. A full subscriber loses the event; slow consumers must
// not stall the pipeline.
func (s *Subscription) trySend(event *Event, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.C <- event:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.C <- event:
		return true
	case <-timer.C:
		return false
	}
}

// Hub is the per-job broadcast scope. Rooms are keyed by job ID; every
// subscriber in a room receives every event emitted after its join.
type Hub struct {
	rooms   map[string]map[string]*Subscription
	mu      sync.RWMutex
	config  *HubConfig
	metrics HubMetrics
	logger  *logrus.Logger
	closed  bool
}

// NewHub creates an event hub.
func NewHub(config *HubConfig, logger *logrus.Logger) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}
	return &Hub{
		rooms:  make(map[string]map[string]*Subscription),
		config: config,
		logger: logger,
	}
}

// Join subscribes to a job's room. Only events emitted after the join are
// delivered; missed events are not replayed.
func (h *Hub) Join(jobID string) *Subscription {
	sub := &Subscription{
		ID:    uuid.New().String(),
		JobID: jobID,
		C:     make(chan *Event, h.config.BufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.close()
		return sub
	}

	if h.rooms[jobID] == nil {
		h.rooms[jobID] = make(map[string]*Subscription)
	}
	h.rooms[jobID][sub.ID] = sub

	h.logger.WithFields(logrus.Fields{
		"job_id":          jobID,
		"subscription_id": sub.ID,
		"room_size":       len(h.rooms[jobID]),
	}).Debug("Session joined job room")

	return sub
}

// Leave removes a subscription and closes its channel.
func (h *Hub) Leave(sub *Subscription) {
	h.mu.Lock()
	if room, ok := h.rooms[sub.JobID]; ok {
		delete(room, sub.ID)
		if len(room) == 0 {
			delete(h.rooms, sub.JobID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Emit broadcasts an event to every current subscriber of its job room.
// A room with no subscribers silently discards the event.
func (h *Hub) Emit(event *Event) {
	if event == nil {
		return
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	room := h.rooms[event.JobID]
	subs := make([]*Subscription, 0, len(room))
	for _, sub := range room {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	atomic.AddInt64(&h.metrics.EventsPublished, 1)

	for _, sub := range subs {
		if sub.trySend(event, h.config.PublishTimeout) {
			atomic.AddInt64(&h.metrics.EventsDelivered, 1)
		} else {
			atomic.AddInt64(&h.metrics.EventsDropped, 1)
			h.logger.WithFields(logrus.Fields{
				"job_id":          event.JobID,
				"subscription_id": sub.ID,
				"event_type":      event.Type,
			}).Warn("Subscriber too slow, event dropped")
		}
	}
}

// RoomSize returns the number of subscribers currently joined to a job.
func (h *Hub) RoomSize(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[jobID])
}

// Metrics returns a snapshot of delivery counters.
func (h *Hub) Metrics() HubMetrics {
	return HubMetrics{
		EventsPublished: atomic.LoadInt64(&h.metrics.EventsPublished),
		EventsDelivered: atomic.LoadInt64(&h.metrics.EventsDelivered),
		EventsDropped:   atomic.LoadInt64(&h.metrics.EventsDropped),
	}
}

// Close shuts the hub down and closes every subscription.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for _, room := range h.rooms {
		for _, sub := range room {
			sub.close()
		}
	}
	h.rooms = make(map[string]map[string]*Subscription)
	return nil
}
