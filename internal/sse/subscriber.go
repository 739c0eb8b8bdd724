package sse

import (
	"context"

	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/logger"
)

// Subscriber bridges the internal event bus to the SSE hub
type Subscriber struct {
	hub *Hub
	bus event.Bus
}

// NewSubscriber creates a new SSE subscriber
func NewSubscriber(hub *Hub, bus event.Bus) *Subscriber {
	return &Subscriber{hub: hub, bus: bus}
}

// Subscribe registers handlers for snapshot and navigation events
func (s *Subscriber) Subscribe() {
	s.bus.Subscribe(event.SnapshotPublished, s.forward(EventTypeSnapshot))
	s.bus.Subscribe(event.NavigationRequested, s.forward(EventTypeNavigation))

	logger.Info(LogMsgSubscribed,
		"types", []string{string(event.SnapshotPublished), string(event.NavigationRequested)})
}

func (s *Subscriber) forward(sseType string) event.Handler {
	return func(ctx context.Context, evt event.Event) error {
		attemptID := evt.AttemptID()
		s.hub.Broadcast(sseType, attemptID, evt.Payload)
		logger.FromContext(ctx).Debug(LogMsgEventBroadcast, "event_type", sseType, "attempt_id", attemptID)
		return nil
	}
}
