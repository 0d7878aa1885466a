// ══════════════════════════════════════════════════════════════════════════════
// REVIEW APPLICATION COMMAND
// Решения администратора по заявке: взять на рассмотрение, одобрить,
// отклонить, присудить. Отклонение возвращает место стипендии.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ReviewDecision - действие администратора над заявкой.
type ReviewDecision string

const (
	DecisionStartReview ReviewDecision = "start_review"
	DecisionApprove     ReviewDecision = "approve"
	DecisionReject      ReviewDecision = "reject"
	DecisionAward       ReviewDecision = "award"
)

// ReviewApplicationCommand содержит решение по заявке.
type ReviewApplicationCommand struct {
	ApplicationID string         `validate:"required,uuid"`
	Decision      ReviewDecision `validate:"required,oneof=start_review approve reject award"`

	// Note - комментарий к решению (approve/reject).
	Note *string `validate:"omitempty,max=1000"`

	Actor user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c ReviewApplicationCommand) Validate() error {
	return validateCommand("application", c)
}

// ReviewApplicationResult содержит результат решения.
type ReviewApplicationResult struct {
	Application  *application.Application
	From         application.Status
	SlotReleased bool
}

// ReviewApplicationHandler обрабатывает решения администратора.
type ReviewApplicationHandler struct {
	applications   application.Repository
	releaser       slotReleaser
	eventPublisher shared.EventPublisher
}

// NewReviewApplicationHandler создаёт новый обработчик.
func NewReviewApplicationHandler(
	scholarships scholarship.Repository,
	applications application.Repository,
	tx shared.Transactor,
	eventPublisher shared.EventPublisher,
	metrics Metrics,
) *ReviewApplicationHandler {
	return &ReviewApplicationHandler{
		applications: applications,
		releaser: slotReleaser{
			scholarships: scholarships,
			applications: applications,
			tx:           tx,
			metrics:      metrics,
		},
		eventPublisher: eventPublisher,
	}
}

// Handle применяет решение.
func (h *ReviewApplicationHandler) Handle(ctx context.Context, cmd ReviewApplicationCommand) (*ReviewApplicationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("review_application: %w", err)
	}
	if err := requireAdmin(cmd.Actor); err != nil {
		return nil, err
	}

	if cmd.Decision == DecisionReject {
		return h.reject(ctx, cmd)
	}

	app, err := h.applications.GetByID(ctx, cmd.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("review_application: %w", err)
	}
	from := app.Status

	var eventType shared.EventType
	switch cmd.Decision {
	case DecisionStartReview:
		err = app.StartReview(cmd.Actor.ID)
		eventType = shared.EventApplicationReviewStarted
	case DecisionApprove:
		err = app.Approve(cmd.Actor.ID, cmd.Note)
		eventType = shared.EventApplicationApproved
	case DecisionAward:
		err = app.Award()
		eventType = shared.EventApplicationAwarded
	}
	if err != nil {
		return nil, fmt.Errorf("review_application: %w", err)
	}

	if err := h.applications.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("review_application: save: %w", err)
	}

	publish(ctx, h.eventPublisher, shared.NewApplicationStatusChangedEvent(
		eventType, app.ID, app.ScholarshipID, app.ApplicantID, cmd.Actor.ID, string(from), string(app.Status),
	))

	return &ReviewApplicationResult{Application: app, From: from}, nil
}

func (h *ReviewApplicationHandler) reject(ctx context.Context, cmd ReviewApplicationCommand) (*ReviewApplicationResult, error) {
	out, err := h.releaser.release(ctx, cmd.ApplicationID,
		func(*application.Application) error { return nil },
		func(a *application.Application) error { return a.Reject(cmd.Actor.ID, cmd.Note) },
	)
	if err != nil {
		return nil, fmt.Errorf("review_application: reject: %w", err)
	}

	publish(ctx, h.eventPublisher, out.event(shared.EventApplicationRejected, cmd.Actor.ID))

	return &ReviewApplicationResult{
		Application:  out.Application,
		From:         out.From,
		SlotReleased: out.Released,
	}, nil
}
