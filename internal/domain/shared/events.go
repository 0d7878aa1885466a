// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Subscribers log and count them; nothing in the core
// depends on delivery.
const (
	// Scholarship events
	EventScholarshipCreated   EventType = "scholarship.created"
	EventScholarshipPublished EventType = "scholarship.published"
	EventScholarshipClosed    EventType = "scholarship.closed"
	EventScholarshipSuspended EventType = "scholarship.suspended"
	EventScholarshipReopened  EventType = "scholarship.reopened"
	EventScholarshipExpired   EventType = "scholarship.expired"
	EventScholarshipDeleted   EventType = "scholarship.deleted"

	// Application events
	EventApplicationSubmitted     EventType = "application.submitted"
	EventApplicationReviewStarted EventType = "application.review_started"
	EventApplicationApproved      EventType = "application.approved"
	EventApplicationRejected      EventType = "application.rejected"
	EventApplicationAwarded       EventType = "application.awarded"
	EventApplicationWithdrawn     EventType = "application.withdrawn"
	EventApplicationCancelled     EventType = "application.cancelled"

	// User events
	EventUserRegistered    EventType = "user.registered"
	EventUserStatusChanged EventType = "user.status_changed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Scholarship Events
// ═══════════════════════════════════════════════════════════════════════════

// ScholarshipStatusChangedEvent is emitted on every scholarship lifecycle transition.
type ScholarshipStatusChangedEvent struct {
	BaseEvent
	OwnerID        string `json:"owner_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	AvailableSlots int    `json:"available_slots"`
}

// Payload implements Event interface.
func (e ScholarshipStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"owner_id":        e.OwnerID,
		"from":            e.From,
		"to":              e.To,
		"available_slots": e.AvailableSlots,
	}
}

// NewScholarshipStatusChangedEvent creates a new ScholarshipStatusChangedEvent.
func NewScholarshipStatusChangedEvent(eventType EventType, scholarshipID, ownerID, from, to string, availableSlots int) ScholarshipStatusChangedEvent {
	return ScholarshipStatusChangedEvent{
		BaseEvent:      NewBaseEvent(eventType, scholarshipID),
		OwnerID:        ownerID,
		From:           from,
		To:             to,
		AvailableSlots: availableSlots,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Application Events
// ═══════════════════════════════════════════════════════════════════════════

// ApplicationStatusChangedEvent is emitted on every application lifecycle transition.
type ApplicationStatusChangedEvent struct {
	BaseEvent
	ScholarshipID string `json:"scholarship_id"`
	ApplicantID   string `json:"applicant_id"`
	ActorID       string `json:"actor_id"`
	From          string `json:"from"`
	To            string `json:"to"`
}

// Payload implements Event interface.
func (e ApplicationStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"scholarship_id": e.ScholarshipID,
		"applicant_id":   e.ApplicantID,
		"actor_id":       e.ActorID,
		"from":           e.From,
		"to":             e.To,
	}
}

// NewApplicationStatusChangedEvent creates a new ApplicationStatusChangedEvent.
func NewApplicationStatusChangedEvent(eventType EventType, applicationID, scholarshipID, applicantID, actorID, from, to string) ApplicationStatusChangedEvent {
	return ApplicationStatusChangedEvent{
		BaseEvent:     NewBaseEvent(eventType, applicationID),
		ScholarshipID: scholarshipID,
		ApplicantID:   applicantID,
		ActorID:       actorID,
		From:          from,
		To:            to,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserEvent is emitted on registration and status changes. Email is never
// part of the payload.
type UserEvent struct {
	BaseEvent
	Role   string `json:"role"`
	Status string `json:"status"`
}

// Payload implements Event interface.
func (e UserEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"role":   e.Role,
		"status": e.Status,
	}
}

// NewUserEvent creates a new UserEvent.
func NewUserEvent(eventType EventType, userID, role, status string) UserEvent {
	return UserEvent{
		BaseEvent: NewBaseEvent(eventType, userID),
		Role:      role,
		Status:    status,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
