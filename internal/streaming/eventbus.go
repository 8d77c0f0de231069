package streaming

import (
	"context"
	"strconv"
	"sync"

	"redflag/pkg/logger"
)

// EventBus distributes analysis events to local subscribers and, when
// available, to NATS for other service instances
type EventBus struct {
	nats   *NATSPublisher
	wsHub  *WebSocketHub
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]chan *AnalysisEvent
	nextID      int
}

// NewEventBus creates a new event bus
func NewEventBus(nats *NATSPublisher, wsHub *WebSocketHub, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		wsHub:       wsHub,
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]chan *AnalysisEvent),
	}
}

// Publish publishes an analysis event to all subscribers
func (eb *EventBus) Publish(ctx context.Context, event *AnalysisEvent) error {
	if eb.nats != nil && eb.nats.IsConnected() {
		if err := eb.nats.PublishAnalysisEvent(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Msg("failed to publish to NATS, using local broadcast only")
		}
	}

	if eb.wsHub != nil {
		eb.wsHub.BroadcastEvent(event)
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}

	return nil
}

// Subscribe creates a new local subscription and returns a channel for
// events plus an unsubscribe function
func (eb *EventBus) Subscribe() (<-chan *AnalysisEvent, func()) {
	eb.mu.Lock()
	eb.nextID++
	id := strconv.Itoa(eb.nextID)
	ch := make(chan *AnalysisEvent, 100)
	eb.subscribers[id] = ch
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Msg("new subscriber")

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}

	return ch, unsubscribe
}
