package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ScholarshipRepository implements scholarship.Repository.
type ScholarshipRepository struct {
	store *Store
}

var _ scholarship.Repository = (*ScholarshipRepository)(nil)

// NewScholarshipRepository creates a repository over store.
func NewScholarshipRepository(store *Store) *ScholarshipRepository {
	return &ScholarshipRepository{store: store}
}

func scholarshipLockKey(id string) string {
	return "scholarship:" + id
}

// Create stores a new scholarship.
func (r *ScholarshipRepository) Create(ctx context.Context, s *scholarship.Scholarship) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.scholarships[s.ID]; ok {
		return fmt.Errorf("create scholarship %s: %w", s.ID, errDuplicateID)
	}
	if r.slugTakenLocked(s.Slug, s.ID) {
		return scholarship.ErrSlugTaken
	}

	st.scholarships[s.ID] = s.Clone()
	st.recordUndo(ctx, func() { delete(st.scholarships, s.ID) })
	return nil
}

// GetByID returns a copy of the scholarship.
func (r *ScholarshipRepository) GetByID(ctx context.Context, id string) (*scholarship.Scholarship, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.scholarships[id]
	if !ok {
		return nil, scholarship.ErrScholarshipNotFound
	}
	return s.Clone(), nil
}

// GetByIDForUpdate takes the scholarship's row lock for the rest of the
// unit of work, then reads it.
func (r *ScholarshipRepository) GetByIDForUpdate(ctx context.Context, id string) (*scholarship.Scholarship, error) {
	if err := r.store.lockRow(ctx, scholarshipLockKey(id)); err != nil {
		return nil, fmt.Errorf("lock scholarship %s: %w", id, err)
	}
	return r.GetByID(ctx, id)
}

// GetBySlug finds a scholarship by slug.
func (r *ScholarshipRepository) GetBySlug(ctx context.Context, slug shared.Slug) (*scholarship.Scholarship, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	for _, s := range st.scholarships {
		if s.Slug == slug {
			return s.Clone(), nil
		}
	}
	return nil, scholarship.ErrScholarshipNotFound
}

// Update replaces the stored scholarship when versions match and bumps s.Version.
func (r *ScholarshipRepository) Update(ctx context.Context, s *scholarship.Scholarship) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.scholarships[s.ID]
	if !ok {
		return scholarship.ErrScholarshipNotFound
	}
	if prev.Version != s.Version {
		return scholarship.ErrStaleScholarship
	}
	if r.slugTakenLocked(s.Slug, s.ID) {
		return scholarship.ErrSlugTaken
	}

	next := s.Clone()
	next.Version++
	st.scholarships[s.ID] = next
	s.Version = next.Version

	st.recordUndo(ctx, func() { st.scholarships[prev.ID] = prev })
	return nil
}

// Delete removes the scholarship together with its eligibility criteria.
func (r *ScholarshipRepository) Delete(ctx context.Context, id string) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.scholarships[id]
	if !ok {
		return scholarship.ErrScholarshipNotFound
	}
	prevCriteria, hadCriteria := st.eligibility[id]

	delete(st.scholarships, id)
	delete(st.eligibility, id)

	st.recordUndo(ctx, func() {
		st.scholarships[id] = prev
		if hadCriteria {
			st.eligibility[id] = prevCriteria
		}
	})
	return nil
}

// List filters, sorts and paginates scholarships.
func (r *ScholarshipRepository) List(ctx context.Context, filter scholarship.Filter, p shared.Pagination) ([]*scholarship.Scholarship, int, error) {
	st := r.store
	st.mu.RLock()
	matched := make([]*scholarship.Scholarship, 0, len(st.scholarships))
	for _, s := range st.scholarships {
		if matchesScholarship(s, filter) {
			matched = append(matched, s.Clone())
		}
	}
	st.mu.RUnlock()

	sortScholarships(matched, filter.SortBy, filter.SortDesc)

	items, total := page(matched, p)
	return items, total, nil
}

func matchesScholarship(s *scholarship.Scholarship, f scholarship.Filter) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.OwnerID != "" && s.OwnerID != f.OwnerID {
		return false
	}
	if f.Featured != nil && s.Featured != *f.Featured {
		return false
	}
	if f.Tag != "" {
		tag := strings.ToLower(strings.TrimSpace(f.Tag))
		found := false
		for _, t := range s.Tags {
			if t == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		if !strings.Contains(strings.ToLower(s.Title), needle) &&
			!strings.Contains(strings.ToLower(s.Description), needle) {
			return false
		}
	}
	return true
}

func sortScholarships(items []*scholarship.Scholarship, by scholarship.SortField, desc bool) {
	less := func(a, b *scholarship.Scholarship) int {
		switch by {
		case scholarship.SortByDeadline:
			return a.Deadline.Compare(b.Deadline)
		case scholarship.SortByAmount:
			switch {
			case a.Amount.Amount < b.Amount.Amount:
				return -1
			case a.Amount.Amount > b.Amount.Amount:
				return 1
			}
			return 0
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if c == 0 {
			return items[i].ID < items[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// ExistsBySlug reports whether any scholarship uses slug.
func (r *ScholarshipRepository) ExistsBySlug(ctx context.Context, slug shared.Slug) (bool, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	return r.slugTakenLocked(slug, ""), nil
}

func (r *ScholarshipRepository) slugTakenLocked(slug shared.Slug, exceptID string) bool {
	for id, s := range r.store.scholarships {
		if id != exceptID && s.Slug == slug {
			return true
		}
	}
	return false
}

// IncrementViews bumps the view counter without touching Version.
func (r *ScholarshipRepository) IncrementViews(ctx context.Context, id string) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.scholarships[id]
	if !ok {
		return scholarship.ErrScholarshipNotFound
	}
	s.Views++
	st.recordUndo(ctx, func() { s.Views-- })
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// EligibilityRepository implements scholarship.EligibilityRepository.
type EligibilityRepository struct {
	store *Store
}

var _ scholarship.EligibilityRepository = (*EligibilityRepository)(nil)

// NewEligibilityRepository creates a repository over store.
func NewEligibilityRepository(store *Store) *EligibilityRepository {
	return &EligibilityRepository{store: store}
}

// GetByScholarshipID returns the criteria of a scholarship.
func (r *EligibilityRepository) GetByScholarshipID(ctx context.Context, scholarshipID string) (*scholarship.EligibilityCriteria, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	c, ok := st.eligibility[scholarshipID]
	if !ok {
		return nil, scholarship.ErrEligibilityNotFound
	}
	return c.Clone(), nil
}

// Save creates or replaces the criteria of a scholarship.
func (r *EligibilityRepository) Save(ctx context.Context, c *scholarship.EligibilityCriteria) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.scholarships[c.ScholarshipID]; !ok {
		return scholarship.ErrScholarshipNotFound
	}

	prev, had := st.eligibility[c.ScholarshipID]
	st.eligibility[c.ScholarshipID] = c.Clone()

	st.recordUndo(ctx, func() {
		if had {
			st.eligibility[c.ScholarshipID] = prev
			return
		}
		delete(st.eligibility, c.ScholarshipID)
	})
	return nil
}

// DeleteByScholarshipID removes the criteria of a scholarship.
func (r *EligibilityRepository) DeleteByScholarshipID(ctx context.Context, scholarshipID string) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.eligibility[scholarshipID]
	if !ok {
		return scholarship.ErrEligibilityNotFound
	}
	delete(st.eligibility, scholarshipID)
	st.recordUndo(ctx, func() { st.eligibility[scholarshipID] = prev })
	return nil
}
