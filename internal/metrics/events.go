package metrics

import (
	"context"

	"github.com/osse101/banklink/internal/event"
	"github.com/osse101/banklink/internal/logger"
)

// EventMetricsCollector subscribes to linking events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all linking event types
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range []event.Type{
		event.SnapshotPublished,
		event.NavigationRequested,
		event.FlowFinished,
	} {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	if evt.Type != event.FlowFinished {
		return nil
	}

	payload, err := event.DecodePayload[event.FlowFinishedPayloadV1](evt.Payload)
	if err != nil {
		logger.FromContext(ctx).Debug(LogMsgUnexpectedPayload, "type", evt.Type, "error", err)
		return nil
	}
	LinkingOutcomes.WithLabelValues(payload.Partner, payload.Outcome).Inc()
	logger.FromContext(ctx).Debug(LogMsgMetricsRecorded, "type", evt.Type, "outcome", payload.Outcome)
	return nil
}
