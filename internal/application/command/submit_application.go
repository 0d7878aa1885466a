// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT APPLICATION COMMAND
// Подача заявки со строгим контролем мест: проверка, создание заявки и
// уменьшение счётчика мест выполняются в одной транзакции под блокировкой
// строки стипендии.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// Admission outcomes reported to Metrics.
const (
	AdmissionAccepted         = "accepted"
	AdmissionCapacityExceeded = "capacity_exceeded"
	AdmissionNotOpen          = "not_open"
	AdmissionDeadlinePassed   = "deadline_passed"
	AdmissionAlreadyApplied   = "already_applied"
	AdmissionRejected         = "rejected"
	AdmissionError            = "error"
)

// SubmitApplicationCommand содержит данные для подачи заявки.
type SubmitApplicationCommand struct {
	// ScholarshipID - стипендия, на которую подаётся заявка.
	ScholarshipID string `validate:"required,uuid"`

	// ApplicantID - студент-заявитель. Должен совпадать с Actor.
	ApplicantID string `validate:"required,uuid"`

	// CoverLetter - мотивационное письмо (опционально).
	CoverLetter *string `validate:"omitempty,min=100,max=2000"`

	AdditionalInfo map[string]any `validate:"omitempty,max=50"`

	// Documents - ссылки на загруженные документы.
	Documents []string `validate:"omitempty,max=10,dive,required,http_url"`

	Actor user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c SubmitApplicationCommand) Validate() error {
	return validateCommand("application", c)
}

// SubmitApplicationResult содержит результат подачи заявки.
type SubmitApplicationResult struct {
	Application *application.Application
	Scholarship *scholarship.Scholarship

	// ScholarshipClosed - true, если заявка заняла последнее место.
	ScholarshipClosed bool
}

// SubmitApplicationHandler обрабатывает команду подачи заявки.
type SubmitApplicationHandler struct {
	scholarships   scholarship.Repository
	applications   application.Repository
	users          user.Repository
	tx             shared.Transactor
	eventPublisher shared.EventPublisher
	metrics        Metrics
}

// NewSubmitApplicationHandler создаёт новый обработчик.
func NewSubmitApplicationHandler(
	scholarships scholarship.Repository,
	applications application.Repository,
	users user.Repository,
	tx shared.Transactor,
	eventPublisher shared.EventPublisher,
	metrics Metrics,
) *SubmitApplicationHandler {
	return &SubmitApplicationHandler{
		scholarships:   scholarships,
		applications:   applications,
		users:          users,
		tx:             tx,
		eventPublisher: eventPublisher,
		metrics:        metricsOrNop(metrics),
	}
}

// Handle выполняет подачу заявки.
func (h *SubmitApplicationHandler) Handle(ctx context.Context, cmd SubmitApplicationCommand) (*SubmitApplicationResult, error) {
	result, err := h.handle(ctx, cmd)
	h.metrics.ObserveAdmission(admissionOutcome(err))
	if err != nil {
		return nil, err
	}

	appEvent := shared.NewApplicationStatusChangedEvent(
		shared.EventApplicationSubmitted,
		result.Application.ID,
		result.Application.ScholarshipID,
		result.Application.ApplicantID,
		cmd.Actor.ID,
		string(application.StatusDraft),
		string(result.Application.Status),
	)
	events := []shared.Event{appEvent}
	if result.ScholarshipClosed {
		events = append(events, scholarshipEvent(shared.EventScholarshipClosed, result.Scholarship, scholarship.StatusOpen))
	}
	publish(ctx, h.eventPublisher, events...)

	logger.FromContext(ctx).Info("application submitted",
		logger.ApplicationID(result.Application.ID),
		logger.ScholarshipID(result.Scholarship.ID),
		logger.Int("available_slots", result.Scholarship.AvailableSlots),
	)

	return result, nil
}

func (h *SubmitApplicationHandler) handle(ctx context.Context, cmd SubmitApplicationCommand) (*SubmitApplicationResult, error) {
	// 1. Валидация
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_application: %w", err)
	}

	// 2. Авторизация: подаёт только сам активный студент
	if err := requireActor(cmd.Actor); err != nil {
		return nil, err
	}
	if !cmd.Actor.Is(cmd.ApplicantID) {
		return nil, user.ErrForbidden
	}
	applicant, err := h.users.GetByID(ctx, cmd.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("submit_application: load applicant: %w", err)
	}
	if !applicant.CanApply() {
		return nil, user.ErrForbidden
	}

	// 3. Допуск под блокировкой строки стипендии
	var result SubmitApplicationResult
	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := h.scholarships.GetByIDForUpdate(ctx, cmd.ScholarshipID)
		if err != nil {
			return fmt.Errorf("lock scholarship: %w", err)
		}

		if s.AvailableSlots == 0 {
			return scholarship.ErrNoSlotsAvailable
		}
		if !s.IsOpen() {
			return scholarship.ErrNotAcceptingApply
		}
		if s.IsDeadlinePassed() {
			return scholarship.ErrDeadlinePassed
		}

		applied, err := h.applications.HasApplied(ctx, cmd.ApplicantID, cmd.ScholarshipID)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if applied {
			return application.ErrAlreadyApplied
		}

		app, err := application.NewApplication(application.NewApplicationParams{
			ID:             uuid.NewString(),
			ScholarshipID:  cmd.ScholarshipID,
			ApplicantID:    cmd.ApplicantID,
			CoverLetter:    cmd.CoverLetter,
			AdditionalInfo: cmd.AdditionalInfo,
			Documents:      cmd.Documents,
		})
		if err != nil {
			return err
		}
		if err := app.Submit(); err != nil {
			return err
		}
		if err := s.DecreaseAvailableSlots(); err != nil {
			return err
		}

		if err := h.applications.Create(ctx, app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		if err := h.scholarships.Update(ctx, s); err != nil {
			return fmt.Errorf("update scholarship: %w", err)
		}

		result = SubmitApplicationResult{
			Application:       app,
			Scholarship:       s,
			ScholarshipClosed: s.Status == scholarship.StatusClosed,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit_application: %w", err)
	}

	return &result, nil
}

func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return AdmissionAccepted
	case errors.Is(err, scholarship.ErrNoSlotsAvailable):
		return AdmissionCapacityExceeded
	case errors.Is(err, scholarship.ErrNotAcceptingApply):
		return AdmissionNotOpen
	case errors.Is(err, scholarship.ErrDeadlinePassed):
		return AdmissionDeadlinePassed
	case errors.Is(err, application.ErrAlreadyApplied):
		return AdmissionAlreadyApplied
	case shared.IsValidation(err), shared.IsForbidden(err), shared.IsUnauthorized(err), shared.IsNotFound(err):
		return AdmissionRejected
	default:
		return AdmissionError
	}
}
