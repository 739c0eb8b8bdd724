package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// AttemptID returns the linking attempt an event belongs to, if any.
func (e Event) AttemptID() string {
	id, _ := e.GetMetadataValue(MetadataKeyAttemptID).(string)
	return id
}

// Linking event types
const (
	SnapshotPublished   Type = "banklink.snapshot"
	NavigationRequested Type = "banklink.navigation"
	FlowFinished        Type = "banklink.flow_finished"
)

// Navigation kinds
const (
	NavOpenExternalURL      = "open_external_url"
	NavOpenPartnerSelection = "open_partner_selection"
	NavOpenSDKWidget        = "open_sdk_widget"
	NavFlowFinished         = "flow_finished"
)

// Flow outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeCancelled = "cancelled"
)

// Typed event payloads for type safety

// SnapshotPayloadV1 carries one orchestrator snapshot. Snapshot is the
// JSON-ready view owned by the linking package.
type SnapshotPayloadV1 struct {
	AttemptID string      `json:"attempt_id"`
	Phase     string      `json:"phase"`
	Sequence  uint64      `json:"sequence"`
	Snapshot  interface{} `json:"snapshot"`
}

// NavigationPayloadV1 asks the hosting UI to move somewhere.
type NavigationPayloadV1 struct {
	AttemptID string      `json:"attempt_id"`
	Kind      string      `json:"kind"`
	Partner   string      `json:"partner,omitempty"`
	URL       string      `json:"url,omitempty"`
	Outcome   string      `json:"outcome,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// FlowFinishedPayloadV1 is emitted once when an attempt reaches success or cancel.
type FlowFinishedPayloadV1 struct {
	AttemptID string `json:"attempt_id"`
	Partner   string `json:"partner,omitempty"`
	Outcome   string `json:"outcome"`
	Timestamp int64  `json:"timestamp"`
}

func attemptMetadata(attemptID string) Metadata {
	return map[string]interface{}{MetadataKeyAttemptID: attemptID}
}

// Type-safe event constructors

// NewSnapshotEvent creates a snapshot event for an attempt
func NewSnapshotEvent(attemptID, phase string, sequence uint64, snapshot interface{}) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SnapshotPublished,
		Payload: SnapshotPayloadV1{
			AttemptID: attemptID,
			Phase:     phase,
			Sequence:  sequence,
			Snapshot:  snapshot,
		},
		Metadata: attemptMetadata(attemptID),
	}
}

// NewNavigationEvent creates a navigation request event
func NewNavigationEvent(payload NavigationPayloadV1) Event {
	return Event{
		Version:  EventSchemaVersion,
		Type:     NavigationRequested,
		Payload:  payload,
		Metadata: attemptMetadata(payload.AttemptID),
	}
}

// NewFlowFinishedEvent creates a flow finished event
func NewFlowFinishedEvent(attemptID, partner, outcome string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    FlowFinished,
		Payload: FlowFinishedPayloadV1{
			AttemptID: attemptID,
			Partner:   partner,
			Outcome:   outcome,
			Timestamp: time.Now().Unix(),
		},
		Metadata: attemptMetadata(attemptID),
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers. Handlers run synchronously
// on the caller's goroutine and must not block.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
