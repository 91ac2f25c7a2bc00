package system

import (
	"encoding/json"
	"sync"

	common_models "flow-metrics/internal/common/models"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Hub fans events out to websocket subscribers. A subscriber whose buffer is
// full misses the event rather than blocking the publisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan []byte]struct{}),
		logger:      logger,
	}
}

// AsPublisher exposes the hub to features that only publish
func AsPublisher(h *Hub) common_models.EventPublisher {
	return h
}

// Subscribe registers a subscriber; call the returned func to leave
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(event common_models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- payload:
		default:
			h.logger.Warn("Dropping event for slow subscriber", zap.String("type", event.Type))
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
