package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// slotReleaser moves an application out of a slot-holding status and hands
// the slot back to its scholarship in the same unit of work.
type slotReleaser struct {
	scholarships scholarship.Repository
	applications application.Repository
	tx           shared.Transactor
	metrics      Metrics
}

type releaseOutcome struct {
	Application *application.Application
	Scholarship *scholarship.Scholarship
	From        application.Status
	Released    bool
}

// release loads the application, lets authorize inspect it, then under the
// scholarship row lock re-reads it, applies transition and returns the slot
// if the application held one before the transition.
func (r slotReleaser) release(
	ctx context.Context,
	applicationID string,
	authorize func(*application.Application) error,
	transition func(*application.Application) error,
) (*releaseOutcome, error) {
	current, err := r.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(current); err != nil {
		return nil, err
	}

	var out releaseOutcome
	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := r.scholarships.GetByIDForUpdate(ctx, current.ScholarshipID)
		if err != nil {
			return fmt.Errorf("lock scholarship: %w", err)
		}

		// Повторное чтение под блокировкой: статус мог измениться.
		app, err := r.applications.GetByID(ctx, applicationID)
		if err != nil {
			return err
		}

		from := app.Status
		held := app.HoldsSlot()

		if err := transition(app); err != nil {
			return err
		}
		if err := r.applications.Update(ctx, app); err != nil {
			return fmt.Errorf("update application: %w", err)
		}

		released := false
		if held {
			switch err := s.IncreaseAvailableSlots(); {
			case err == nil:
				if err := r.scholarships.Update(ctx, s); err != nil {
					return fmt.Errorf("update scholarship: %w", err)
				}
				released = true
			case errors.Is(err, scholarship.ErrSlotsAtCapacity):
				// Администратор уже вернул места вручную.
				logger.FromContext(ctx).Warn("slot release skipped: scholarship at capacity",
					logger.ScholarshipID(s.ID),
					logger.ApplicationID(app.ID),
				)
			default:
				return err
			}
		}

		out = releaseOutcome{Application: app, Scholarship: s, From: from, Released: released}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Released {
		metricsOrNop(r.metrics).ObserveSlotReleased()
	}
	return &out, nil
}

func (o *releaseOutcome) event(t shared.EventType, actorID string) shared.Event {
	return shared.NewApplicationStatusChangedEvent(
		t,
		o.Application.ID,
		o.Application.ScholarshipID,
		o.Application.ApplicantID,
		actorID,
		string(o.From),
		string(o.Application.Status),
	)
}
