package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ApplicationRepository implements application.Repository.
type ApplicationRepository struct {
	store *Store
}

var _ application.Repository = (*ApplicationRepository)(nil)

// NewApplicationRepository creates a repository over store.
func NewApplicationRepository(store *Store) *ApplicationRepository {
	return &ApplicationRepository{store: store}
}

// Create stores an application. Like the partial unique index in
// PostgreSQL, it refuses a second non-cancelled application for the same
// applicant and scholarship.
func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.applications[a.ID]; ok {
		return fmt.Errorf("create application %s: %w", a.ID, errDuplicateID)
	}
	if a.Status != application.StatusCancelled && r.hasActiveLocked(a.ApplicantID, a.ScholarshipID, a.ID) {
		return application.ErrAlreadyApplied
	}

	st.applications[a.ID] = a.Clone()
	st.recordUndo(ctx, func() { delete(st.applications, a.ID) })
	return nil
}

// GetByID returns a copy of the application.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	a, ok := st.applications[id]
	if !ok {
		return nil, application.ErrApplicationNotFound
	}
	return a.Clone(), nil
}

// Update replaces the stored application when versions match and bumps a.Version.
func (r *ApplicationRepository) Update(ctx context.Context, a *application.Application) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.applications[a.ID]
	if !ok {
		return application.ErrApplicationNotFound
	}
	if prev.Version != a.Version {
		return application.ErrStaleApplication
	}

	next := a.Clone()
	next.Version++
	st.applications[a.ID] = next
	a.Version = next.Version

	st.recordUndo(ctx, func() { st.applications[prev.ID] = prev })
	return nil
}

// Delete removes an application.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.applications[id]
	if !ok {
		return application.ErrApplicationNotFound
	}
	delete(st.applications, id)
	st.recordUndo(ctx, func() { st.applications[id] = prev })
	return nil
}

// List filters and paginates applications, newest first.
func (r *ApplicationRepository) List(ctx context.Context, filter application.Filter, p shared.Pagination) ([]*application.Application, int, error) {
	st := r.store
	st.mu.RLock()
	matched := make([]*application.Application, 0)
	for _, a := range st.applications {
		if filter.ScholarshipID != "" && a.ScholarshipID != filter.ScholarshipID {
			continue
		}
		if filter.ApplicantID != "" && a.ApplicantID != filter.ApplicantID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		matched = append(matched, a.Clone())
	}
	st.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if c := matched[i].CreatedAt.Compare(matched[j].CreatedAt); c != 0 {
			return c > 0
		}
		return matched[i].ID < matched[j].ID
	})

	items, total := page(matched, p)
	return items, total, nil
}

// FindByApplicant lists an applicant's applications, newest first.
func (r *ApplicationRepository) FindByApplicant(ctx context.Context, applicantID string, p shared.Pagination) ([]*application.Application, int, error) {
	return r.List(ctx, application.Filter{ApplicantID: applicantID}, p)
}

// HasApplied reports whether a non-cancelled application exists for the pair.
func (r *ApplicationRepository) HasApplied(ctx context.Context, applicantID, scholarshipID string) (bool, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	return r.hasActiveLocked(applicantID, scholarshipID, ""), nil
}

func (r *ApplicationRepository) hasActiveLocked(applicantID, scholarshipID, exceptID string) bool {
	for id, a := range r.store.applications {
		if id == exceptID {
			continue
		}
		if a.ApplicantID == applicantID && a.ScholarshipID == scholarshipID && a.Status != application.StatusCancelled {
			return true
		}
	}
	return false
}

// CountByScholarship counts all applications of a scholarship.
func (r *ApplicationRepository) CountByScholarship(ctx context.Context, scholarshipID string) (int, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	n := 0
	for _, a := range st.applications {
		if a.ScholarshipID == scholarshipID {
			n++
		}
	}
	return n, nil
}
