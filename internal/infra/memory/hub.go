package memory

import (
	"context"
	"sync"

	"dailyquest-service/internal/domain"
)

const subscriberBuffer = 16

// Hub is a single-process message bus; subscribers of a group receive every
// message published to it.
type Hub struct {
	mu          sync.Mutex
	subscribers map[int64]map[chan domain.Message]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[int64]map[chan domain.Message]struct{})}
}

func (h *Hub) Publish(_ context.Context, msg domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[msg.GroupID] {
		select {
		case ch <- msg:
		default:
			// slow subscriber: drop its oldest message instead of blocking publishers
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, groupID int64) (<-chan domain.Message, func(), error) {
	ch := make(chan domain.Message, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.subscribers[groupID]
	if !ok {
		subs = make(map[chan domain.Message]struct{})
		h.subscribers[groupID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[groupID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.subscribers, groupID)
		}
	}
	return ch, cancel, nil
}
