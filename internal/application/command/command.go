// Package command contains write operations (CQRS - Commands).
// Every use case lives in its own file: a Command struct with validation
// tags, a Handler built from repository interfaces, and Handle(ctx, cmd).
// Handlers never publish events before the unit of work commits.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateCommand runs the struct tags of cmd and converts the first failure
// into a validation DomainError.
func validateCommand(op string, cmd any) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return shared.WrapError(op, "Validate", shared.ErrValidation, "invalid command", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return shared.NewDomainError(op, "Validate", shared.ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " must be a UUID"
	case "email":
		return field + " must be an email address"
	case "url", "http_url":
		return field + " must be a URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHORIZATION
// ══════════════════════════════════════════════════════════════════════════════

// ErrUnauthenticated is returned when a command arrives without an actor.
var ErrUnauthenticated = shared.NewDomainError("auth", "Authorize", shared.ErrUnauthorized, "authentication required")

func requireActor(actor user.Actor) error {
	if actor.IsZero() {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(actor user.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return user.ErrForbidden
	}
	return nil
}

func requireOwnerOrAdmin(actor user.Actor, s *scholarship.Scholarship) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.IsAdmin() || s.IsOwnedBy(actor.ID) {
		return nil
	}
	return user.ErrForbidden
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENTS & METRICS
// ══════════════════════════════════════════════════════════════════════════════

// publish hands committed events to the publisher. Delivery failures are
// logged and never fail the command: the state change already happened.
func publish(ctx context.Context, publisher shared.EventPublisher, events ...shared.Event) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if err := publisher.Publish(event); err != nil {
			logger.FromContext(ctx).Warn("failed to publish event",
				logger.EventType(string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Err(err),
			)
		}
	}
}

// Metrics receives admission outcomes and slot releases.
type Metrics interface {
	ObserveAdmission(outcome string)
	ObserveSlotReleased()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveAdmission(string) {}
func (NopMetrics) ObserveSlotReleased()    {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return NopMetrics{}
	}
	return m
}

func scholarshipEvent(t shared.EventType, s *scholarship.Scholarship, from scholarship.Status) shared.Event {
	return shared.NewScholarshipStatusChangedEvent(t, s.ID, s.OwnerID, string(from), string(s.Status), s.AvailableSlots)
}
