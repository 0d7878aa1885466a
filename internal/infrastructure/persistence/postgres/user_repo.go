package postgres

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const userColumns = `id, email, password_hash, role, status, first_name, last_name,
	last_login_at, created_at, updated_at`

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		u.ID,
		string(u.Email),
		string(u.PasswordHash),
		string(u.Role),
		string(u.Status),
		u.FirstName,
		u.LastName,
		u.LastLoginAt,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	row := r.conn.querier(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	)
	return scanUser(row)
}

// GetByEmail returns a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email shared.Email) (*user.User, error) {
	row := r.conn.querier(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, string(email),
	)
	return scanUser(row)
}

// Update writes the mutable user columns.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			role = $4,
			status = $5,
			first_name = $6,
			last_name = $7,
			last_login_at = $8,
			updated_at = $9
		WHERE id = $1
	`

	tag, err := r.conn.querier(ctx).Exec(ctx, query,
		u.ID,
		string(u.Email),
		string(u.PasswordHash),
		string(u.Role),
		string(u.Status),
		u.FirstName,
		u.LastName,
		u.LastLoginAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Delete removes a user; profiles cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.querier(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ExistsByEmail checks whether the email is registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email shared.Email) (bool, error) {
	var exists bool
	err := r.conn.querier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, string(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func scanUser(row rowScanner) (*user.User, error) {
	var u user.User
	var email, hash, role, status string

	err := row.Scan(
		&u.ID,
		&email,
		&hash,
		&role,
		&status,
		&u.FirstName,
		&u.LastName,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Email = shared.Email(email)
	u.PasswordHash = user.PasswordHash(hash)
	u.Role = user.Role(role)
	u.Status = user.Status(status)

	return &u, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements user.ProfileRepository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

var _ user.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

// GetStudentProfile returns a student's profile.
func (r *ProfileRepository) GetStudentProfile(ctx context.Context, userID string) (*user.StudentProfile, error) {
	query := `
		SELECT user_id, first_name, last_name, date_of_birth, nationality, major,
			year_of_study, gpa, university, created_at, updated_at
		FROM student_profiles
		WHERE user_id = $1
	`

	var p user.StudentProfile
	var gpa *float64

	err := r.conn.querier(ctx).QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&p.Nationality,
		&p.Major,
		&p.YearOfStudy,
		&gpa,
		&p.University,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, user.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}

	p.GPA = gpaPtr(gpa)
	return &p, nil
}

// SaveStudentProfile upserts a student's profile.
func (r *ProfileRepository) SaveStudentProfile(ctx context.Context, p *user.StudentProfile) error {
	query := `
		INSERT INTO student_profiles (
			user_id, first_name, last_name, date_of_birth, nationality, major,
			year_of_study, gpa, university, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			date_of_birth = EXCLUDED.date_of_birth,
			nationality = EXCLUDED.nationality,
			major = EXCLUDED.major,
			year_of_study = EXCLUDED.year_of_study,
			gpa = EXCLUDED.gpa,
			university = EXCLUDED.university,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		p.UserID,
		p.FirstName,
		p.LastName,
		p.DateOfBirth,
		p.Nationality,
		p.Major,
		p.YearOfStudy,
		gpaValue(p.GPA),
		p.University,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("failed to save student profile: %w", err)
	}
	return nil
}

// GetSponsorProfile returns a sponsor's profile.
func (r *ProfileRepository) GetSponsorProfile(ctx context.Context, userID string) (*user.SponsorProfile, error) {
	query := `
		SELECT user_id, organization_name, website, description, verified, created_at, updated_at
		FROM sponsor_profiles
		WHERE user_id = $1
	`

	var p user.SponsorProfile
	err := r.conn.querier(ctx).QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.OrganizationName,
		&p.Website,
		&p.Description,
		&p.Verified,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, user.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsor profile: %w", err)
	}
	return &p, nil
}

// SaveSponsorProfile upserts a sponsor's profile.
func (r *ProfileRepository) SaveSponsorProfile(ctx context.Context, p *user.SponsorProfile) error {
	query := `
		INSERT INTO sponsor_profiles (
			user_id, organization_name, website, description, verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			organization_name = EXCLUDED.organization_name,
			website = EXCLUDED.website,
			description = EXCLUDED.description,
			verified = EXCLUDED.verified,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		p.UserID,
		p.OrganizationName,
		p.Website,
		p.Description,
		p.Verified,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("failed to save sponsor profile: %w", err)
	}
	return nil
}
