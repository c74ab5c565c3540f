package server

import (
	"sync"

	"arenagame/room"
	"arenagame/world"
)

const subscriberBuffer = 64

// subscriber is one connected player's outbound frame queue. A dedicated
// writer goroutine drains frames; closeSlow tears the connection down when
// the queue backs up, so one stalled client never blocks the room tick.
type subscriber struct {
	frames    chan world.Frame
	closeSlow func()
}

func newSubscriber(closeSlow func()) *subscriber {
	return &subscriber{
		frames:    make(chan world.Frame, subscriberBuffer),
		closeSlow: closeSlow,
	}
}

// Hub fans room frames out to the room's connected players. One hub per
// room; it is the room's Broadcaster.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*subscriber)}
}

func (h *Hub) register(playerID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[playerID] = sub
}

func (h *Hub) unregister(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, playerID)
}

func (h *Hub) Broadcast(frame world.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		sub.deliver(frame)
	}
}

func (h *Hub) Send(playerID string, frame world.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if sub, ok := h.subs[playerID]; ok {
		sub.deliver(frame)
	}
}

func (s *subscriber) deliver(frame world.Frame) {
	select {
	case s.frames <- frame:
	default:
		s.closeSlow()
	}
}

var _ room.Broadcaster = (*Hub)(nil)
