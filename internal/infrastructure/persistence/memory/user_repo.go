package memory

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	store *Store
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a repository over store.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stores a user; emails are unique.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.users[u.ID]; ok {
		return fmt.Errorf("create user %s: %w", u.ID, errDuplicateID)
	}
	if r.emailTakenLocked(u.Email, u.ID) {
		return user.ErrEmailTaken
	}

	st.users[u.ID] = u.Clone()
	st.recordUndo(ctx, func() { delete(st.users, u.ID) })
	return nil
}

// GetByID returns a copy of the user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	u, ok := st.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u.Clone(), nil
}

// GetByEmail finds a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email shared.Email) (*user.User, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	for _, u := range st.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, user.ErrUserNotFound
}

// Update replaces the stored user.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}
	if r.emailTakenLocked(u.Email, u.ID) {
		return user.ErrEmailTaken
	}

	st.users[u.ID] = u.Clone()
	st.recordUndo(ctx, func() { st.users[prev.ID] = prev })
	return nil
}

// Delete removes a user and their profiles.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	prev, ok := st.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	student, hadStudent := st.students[id]
	sponsor, hadSponsor := st.sponsors[id]

	delete(st.users, id)
	delete(st.students, id)
	delete(st.sponsors, id)

	st.recordUndo(ctx, func() {
		st.users[id] = prev
		if hadStudent {
			st.students[id] = student
		}
		if hadSponsor {
			st.sponsors[id] = sponsor
		}
	})
	return nil
}

// ExistsByEmail reports whether the email is registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email shared.Email) (bool, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	return r.emailTakenLocked(email, ""), nil
}

func (r *UserRepository) emailTakenLocked(email shared.Email, exceptID string) bool {
	for id, u := range r.store.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements user.ProfileRepository.
type ProfileRepository struct {
	store *Store
}

var _ user.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a repository over store.
func NewProfileRepository(store *Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

// GetStudentProfile returns a student's profile.
func (r *ProfileRepository) GetStudentProfile(ctx context.Context, userID string) (*user.StudentProfile, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	p, ok := st.students[userID]
	if !ok {
		return nil, user.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// SaveStudentProfile creates or replaces a student's profile.
func (r *ProfileRepository) SaveStudentProfile(ctx context.Context, p *user.StudentProfile) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.users[p.UserID]; !ok {
		return user.ErrUserNotFound
	}

	prev, had := st.students[p.UserID]
	cp := *p
	st.students[p.UserID] = &cp

	st.recordUndo(ctx, func() {
		if had {
			st.students[p.UserID] = prev
			return
		}
		delete(st.students, p.UserID)
	})
	return nil
}

// GetSponsorProfile returns a sponsor's profile.
func (r *ProfileRepository) GetSponsorProfile(ctx context.Context, userID string) (*user.SponsorProfile, error) {
	st := r.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	p, ok := st.sponsors[userID]
	if !ok {
		return nil, user.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// SaveSponsorProfile creates or replaces a sponsor's profile.
func (r *ProfileRepository) SaveSponsorProfile(ctx context.Context, p *user.SponsorProfile) error {
	st := r.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.users[p.UserID]; !ok {
		return user.ErrUserNotFound
	}

	prev, had := st.sponsors[p.UserID]
	cp := *p
	st.sponsors[p.UserID] = &cp

	st.recordUndo(ctx, func() {
		if had {
			st.sponsors[p.UserID] = prev
			return
		}
		delete(st.sponsors, p.UserID)
	})
	return nil
}
