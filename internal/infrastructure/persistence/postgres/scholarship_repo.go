package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// psql builds PostgreSQL statements with $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const scholarshipColumns = `id, owner_id, title, slug, description, amount, currency,
	number_of_slots, available_slots, deadline, start_date, end_date,
	status, featured, views, tags, published_at, version, created_at, updated_at`

// ScholarshipRepository implements scholarship.Repository for PostgreSQL.
type ScholarshipRepository struct {
	conn *Connection
}

var _ scholarship.Repository = (*ScholarshipRepository)(nil)

// NewScholarshipRepository creates a new ScholarshipRepository.
func NewScholarshipRepository(conn *Connection) *ScholarshipRepository {
	return &ScholarshipRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts a new scholarship.
func (r *ScholarshipRepository) Create(ctx context.Context, s *scholarship.Scholarship) error {
	query := `
		INSERT INTO scholarships (` + scholarshipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Title,
		string(s.Slug),
		s.Description,
		s.Amount.Amount,
		s.Amount.Currency,
		s.NumberOfSlots,
		s.AvailableSlots,
		s.Deadline,
		s.StartDate,
		s.EndDate,
		string(s.Status),
		s.Featured,
		s.Views,
		tagsOrEmpty(s.Tags),
		s.PublishedAt,
		s.Version,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return scholarship.ErrSlugTaken
		}
		return fmt.Errorf("failed to create scholarship: %w", err)
	}

	return nil
}

// GetByID returns a scholarship by ID.
func (r *ScholarshipRepository) GetByID(ctx context.Context, id string) (*scholarship.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE id = $1`

	row := r.conn.querier(ctx).QueryRow(ctx, query, id)
	return scanScholarship(row)
}

// GetByIDForUpdate reads a scholarship and locks its row until the
// surrounding transaction ends.
func (r *ScholarshipRepository) GetByIDForUpdate(ctx context.Context, id string) (*scholarship.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE id = $1 FOR UPDATE`

	row := r.conn.querier(ctx).QueryRow(ctx, query, id)
	return scanScholarship(row)
}

// GetBySlug returns a scholarship by slug.
func (r *ScholarshipRepository) GetBySlug(ctx context.Context, slug shared.Slug) (*scholarship.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE slug = $1`

	row := r.conn.querier(ctx).QueryRow(ctx, query, string(slug))
	return scanScholarship(row)
}

// Update writes every mutable column when the stored version matches, then
// advances s.Version.
func (r *ScholarshipRepository) Update(ctx context.Context, s *scholarship.Scholarship) error {
	query := `
		UPDATE scholarships SET
			title = $2,
			slug = $3,
			description = $4,
			amount = $5,
			currency = $6,
			available_slots = $7,
			deadline = $8,
			start_date = $9,
			end_date = $10,
			status = $11,
			featured = $12,
			tags = $13,
			published_at = $14,
			updated_at = $15,
			version = version + 1
		WHERE id = $1 AND version = $16
		RETURNING version
	`

	var next int
	err := r.conn.querier(ctx).QueryRow(ctx, query,
		s.ID,
		s.Title,
		string(s.Slug),
		s.Description,
		s.Amount.Amount,
		s.Amount.Currency,
		s.AvailableSlots,
		s.Deadline,
		s.StartDate,
		s.EndDate,
		string(s.Status),
		s.Featured,
		tagsOrEmpty(s.Tags),
		s.PublishedAt,
		s.UpdatedAt,
		s.Version,
	).Scan(&next)

	if IsNoRows(err) {
		return r.missingOrStale(ctx, s.ID)
	}
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return scholarship.ErrSlugTaken
		case IsCheckViolation(err):
			return scholarship.ErrNoSlotsAvailable
		}
		return fmt.Errorf("failed to update scholarship: %w", err)
	}

	s.Version = next
	return nil
}

// missingOrStale tells apart a deleted row from a version conflict.
func (r *ScholarshipRepository) missingOrStale(ctx context.Context, id string) error {
	var exists bool
	err := r.conn.querier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM scholarships WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check scholarship: %w", err)
	}
	if !exists {
		return scholarship.ErrScholarshipNotFound
	}
	return scholarship.ErrStaleScholarship
}

// Delete removes a scholarship; eligibility criteria cascade.
func (r *ScholarshipRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.querier(ctx).Exec(ctx, `DELETE FROM scholarships WHERE id = $1`, id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return scholarship.ErrHasApplications
		}
		return fmt.Errorf("failed to delete scholarship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scholarship.ErrScholarshipNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// List returns one page of scholarships matching filter plus the total count.
func (r *ScholarshipRepository) List(ctx context.Context, filter scholarship.Filter, page shared.Pagination) ([]*scholarship.Scholarship, int, error) {
	page = page.Normalize()
	where := scholarshipWhere(filter)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("scholarships").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.conn.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count scholarships: %w", err)
	}

	listSQL, listArgs, err := psql.Select(scholarshipColumns).
		From("scholarships").
		Where(where).
		OrderBy(scholarshipOrder(filter.SortBy, filter.SortDesc)...).
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.conn.querier(ctx).Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list scholarships: %w", err)
	}
	defer rows.Close()

	items := make([]*scholarship.Scholarship, 0, page.Limit)
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate scholarships: %w", err)
	}

	return items, total, nil
}

func scholarshipWhere(f scholarship.Filter) sq.And {
	where := sq.And{}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": string(f.Status)})
	}
	if f.OwnerID != "" {
		where = append(where, sq.Eq{"owner_id": f.OwnerID})
	}
	if f.Featured != nil {
		where = append(where, sq.Eq{"featured": *f.Featured})
	}
	if tag := strings.ToLower(strings.TrimSpace(f.Tag)); tag != "" {
		where = append(where, sq.Expr("? = ANY(tags)", tag))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}
	return where
}

func scholarshipOrder(by scholarship.SortField, desc bool) []string {
	column := "created_at"
	switch by {
	case scholarship.SortByDeadline:
		column = "deadline"
	case scholarship.SortByAmount:
		column = "amount"
	}

	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return []string{column + " " + dir, "id ASC"}
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ExistsBySlug checks whether the slug is taken.
func (r *ScholarshipRepository) ExistsBySlug(ctx context.Context, slug shared.Slug) (bool, error) {
	var exists bool
	err := r.conn.querier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM scholarships WHERE slug = $1)`, string(slug),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// IncrementViews bumps the view counter in place; the version is untouched.
func (r *ScholarshipRepository) IncrementViews(ctx context.Context, id string) error {
	tag, err := r.conn.querier(ctx).Exec(ctx,
		`UPDATE scholarships SET views = views + 1 WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scholarship.ErrScholarshipNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanScholarship(row rowScanner) (*scholarship.Scholarship, error) {
	var s scholarship.Scholarship
	var slug, status string

	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Title,
		&slug,
		&s.Description,
		&s.Amount.Amount,
		&s.Amount.Currency,
		&s.NumberOfSlots,
		&s.AvailableSlots,
		&s.Deadline,
		&s.StartDate,
		&s.EndDate,
		&status,
		&s.Featured,
		&s.Views,
		&s.Tags,
		&s.PublishedAt,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, scholarship.ErrScholarshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scholarship: %w", err)
	}

	s.Slug = shared.Slug(slug)
	s.Status = scholarship.Status(status)
	s.Amount.Currency = strings.TrimSpace(s.Amount.Currency)
	if s.Tags == nil {
		s.Tags = []string{}
	}

	return &s, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EligibilityRepository implements scholarship.EligibilityRepository for PostgreSQL.
type EligibilityRepository struct {
	conn *Connection
}

var _ scholarship.EligibilityRepository = (*EligibilityRepository)(nil)

// NewEligibilityRepository creates a new EligibilityRepository.
func NewEligibilityRepository(conn *Connection) *EligibilityRepository {
	return &EligibilityRepository{conn: conn}
}

// GetByScholarshipID returns the criteria of a scholarship.
func (r *EligibilityRepository) GetByScholarshipID(ctx context.Context, scholarshipID string) (*scholarship.EligibilityCriteria, error) {
	query := `
		SELECT id, scholarship_id, min_gpa, max_gpa, allowed_majors, allowed_years_of_study,
			min_age, max_age, nationality, created_at, updated_at
		FROM eligibility_criteria
		WHERE scholarship_id = $1
	`

	var c scholarship.EligibilityCriteria
	var minGPA, maxGPA *float64

	err := r.conn.querier(ctx).QueryRow(ctx, query, scholarshipID).Scan(
		&c.ID,
		&c.ScholarshipID,
		&minGPA,
		&maxGPA,
		&c.AllowedMajors,
		&c.AllowedYearsOfStudy,
		&c.MinAge,
		&c.MaxAge,
		&c.Nationality,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, scholarship.ErrEligibilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get eligibility criteria: %w", err)
	}

	c.MinGPA = gpaPtr(minGPA)
	c.MaxGPA = gpaPtr(maxGPA)
	return &c, nil
}

// Save upserts the criteria of a scholarship.
func (r *EligibilityRepository) Save(ctx context.Context, c *scholarship.EligibilityCriteria) error {
	query := `
		INSERT INTO eligibility_criteria (
			id, scholarship_id, min_gpa, max_gpa, allowed_majors, allowed_years_of_study,
			min_age, max_age, nationality, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (scholarship_id) DO UPDATE SET
			min_gpa = EXCLUDED.min_gpa,
			max_gpa = EXCLUDED.max_gpa,
			allowed_majors = EXCLUDED.allowed_majors,
			allowed_years_of_study = EXCLUDED.allowed_years_of_study,
			min_age = EXCLUDED.min_age,
			max_age = EXCLUDED.max_age,
			nationality = EXCLUDED.nationality,
			updated_at = EXCLUDED.updated_at
	`

	majors := c.AllowedMajors
	if majors == nil {
		majors = []string{}
	}
	years := c.AllowedYearsOfStudy
	if years == nil {
		years = []int{}
	}

	_, err := r.conn.querier(ctx).Exec(ctx, query,
		c.ID,
		c.ScholarshipID,
		gpaValue(c.MinGPA),
		gpaValue(c.MaxGPA),
		majors,
		years,
		c.MinAge,
		c.MaxAge,
		c.Nationality,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return scholarship.ErrScholarshipNotFound
		}
		return fmt.Errorf("failed to save eligibility criteria: %w", err)
	}
	return nil
}

// DeleteByScholarshipID removes the criteria of a scholarship.
func (r *EligibilityRepository) DeleteByScholarshipID(ctx context.Context, scholarshipID string) error {
	tag, err := r.conn.querier(ctx).Exec(ctx,
		`DELETE FROM eligibility_criteria WHERE scholarship_id = $1`, scholarshipID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete eligibility criteria: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scholarship.ErrEligibilityNotFound
	}
	return nil
}

func gpaPtr(v *float64) *shared.GPA {
	if v == nil {
		return nil
	}
	g := shared.GPA(*v)
	return &g
}

func gpaValue(g *shared.GPA) *float64 {
	if g == nil {
		return nil
	}
	v := g.Float64()
	return &v
}
