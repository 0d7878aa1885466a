// ══════════════════════════════════════════════════════════════════════════════
// CREATE SCHOLARSHIP COMMAND
// Спонсор или администратор создаёт стипендию в статусе DRAFT.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// CreateScholarshipCommand содержит данные новой стипендии.
type CreateScholarshipCommand struct {
	Title       string `validate:"required,min=10,max=200"`
	Description string `validate:"required,min=20,max=10000"`

	// Slug - явный адрес; пустой генерируется из Title.
	Slug string `validate:"omitempty,max=220"`

	Amount        int64  `validate:"gt=0"`
	Currency      string `validate:"required,len=3"`
	NumberOfSlots int    `validate:"min=1,max=10000"`

	Deadline  time.Time `validate:"required"`
	StartDate time.Time
	EndDate   *time.Time

	Featured bool
	Tags     []string `validate:"omitempty,max=10,dive,required,max=50"`

	// OwnerID - владелец; задаётся только администратором, иначе Actor.
	OwnerID string `validate:"omitempty,uuid"`

	Actor user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c CreateScholarshipCommand) Validate() error {
	return validateCommand("scholarship", c)
}

// CreateScholarshipResult содержит созданную стипендию.
type CreateScholarshipResult struct {
	Scholarship *scholarship.Scholarship
}

// CreateScholarshipHandler обрабатывает создание стипендии.
type CreateScholarshipHandler struct {
	scholarships   scholarship.Repository
	users          user.Repository
	eventPublisher shared.EventPublisher
}

// NewCreateScholarshipHandler создаёт новый обработчик.
func NewCreateScholarshipHandler(
	scholarships scholarship.Repository,
	users user.Repository,
	eventPublisher shared.EventPublisher,
) *CreateScholarshipHandler {
	return &CreateScholarshipHandler{
		scholarships:   scholarships,
		users:          users,
		eventPublisher: eventPublisher,
	}
}

// Handle создаёт стипендию.
func (h *CreateScholarshipHandler) Handle(ctx context.Context, cmd CreateScholarshipCommand) (*CreateScholarshipResult, error) {
	// 1. Валидация
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_scholarship: %w", err)
	}

	// 2. Авторизация
	if err := requireActor(cmd.Actor); err != nil {
		return nil, err
	}
	ownerID := cmd.Actor.ID
	if cmd.OwnerID != "" && cmd.OwnerID != cmd.Actor.ID {
		if !cmd.Actor.IsAdmin() {
			return nil, user.ErrForbidden
		}
		ownerID = cmd.OwnerID
	}
	owner, err := h.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create_scholarship: load owner: %w", err)
	}
	if !owner.CanSponsor() {
		return nil, user.ErrForbidden
	}

	// 3. Сборка агрегата
	amount, err := shared.NewMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, fmt.Errorf("create_scholarship: %w", err)
	}

	id := uuid.NewString()
	s, err := scholarship.NewScholarship(scholarship.NewScholarshipParams{
		ID:            id,
		OwnerID:       ownerID,
		Title:         cmd.Title,
		Slug:          cmd.Slug,
		Description:   cmd.Description,
		Amount:        amount,
		NumberOfSlots: cmd.NumberOfSlots,
		Deadline:      cmd.Deadline,
		StartDate:     cmd.StartDate,
		EndDate:       cmd.EndDate,
		Featured:      cmd.Featured,
		Tags:          cmd.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("create_scholarship: %w", err)
	}

	// 4. Уникальность slug: явный slug обязан быть свободен,
	// сгенерированный получает суффикс из ID.
	taken, err := h.scholarships.ExistsBySlug(ctx, s.Slug)
	if err != nil {
		return nil, fmt.Errorf("create_scholarship: check slug: %w", err)
	}
	if taken {
		if strings.TrimSpace(cmd.Slug) != "" {
			return nil, scholarship.ErrSlugTaken
		}
		s.Slug = shared.Slug(string(s.Slug) + "-" + id[:8])
	}

	// 5. Сохранение
	if err := h.scholarships.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create_scholarship: save: %w", err)
	}

	publish(ctx, h.eventPublisher, scholarshipEvent(shared.EventScholarshipCreated, s, ""))

	logger.FromContext(ctx).Info("scholarship created",
		logger.ScholarshipID(s.ID),
		logger.UserID(ownerID),
		logger.String("slug", string(s.Slug)),
	)

	return &CreateScholarshipResult{Scholarship: s}, nil
}
