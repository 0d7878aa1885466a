package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const applicationColumns = `id, scholarship_id, applicant_id, status, cover_letter,
	additional_info, documents, reviewed_by, decision_note,
	submitted_at, reviewed_at, decided_at, version, created_at, updated_at`

// activePairIndex is the partial unique index over live applications.
const activePairIndex = "applications_active_pair_key"

// ApplicationRepository implements application.Repository for PostgreSQL.
type ApplicationRepository struct {
	conn *Connection
}

var _ application.Repository = (*ApplicationRepository)(nil)

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(conn *Connection) *ApplicationRepository {
	return &ApplicationRepository{conn: conn}
}

// Create inserts an application. The partial unique index rejects a second
// live application for the same pair.
func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	info, err := marshalInfo(a.AdditionalInfo)
	if err != nil {
		return err
	}

	_, err = r.conn.querier(ctx).Exec(ctx, query,
		a.ID,
		a.ScholarshipID,
		a.ApplicantID,
		string(a.Status),
		a.CoverLetter,
		info,
		documentsOrEmpty(a.Documents),
		a.ReviewedBy,
		a.DecisionNote,
		a.SubmittedAt,
		a.ReviewedAt,
		a.DecidedAt,
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) && ConstraintName(err) == activePairIndex {
			return application.ErrAlreadyApplied
		}
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// GetByID returns an application by ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	row := r.conn.querier(ctx).QueryRow(ctx, query, id)
	return scanApplication(row)
}

// Update writes the mutable columns when the stored version matches, then
// advances a.Version.
func (r *ApplicationRepository) Update(ctx context.Context, a *application.Application) error {
	query := `
		UPDATE applications SET
			status = $2,
			cover_letter = $3,
			additional_info = $4,
			documents = $5,
			reviewed_by = $6,
			decision_note = $7,
			submitted_at = $8,
			reviewed_at = $9,
			decided_at = $10,
			updated_at = $11,
			version = version + 1
		WHERE id = $1 AND version = $12
		RETURNING version
	`

	info, err := marshalInfo(a.AdditionalInfo)
	if err != nil {
		return err
	}

	var next int
	err = r.conn.querier(ctx).QueryRow(ctx, query,
		a.ID,
		string(a.Status),
		a.CoverLetter,
		info,
		documentsOrEmpty(a.Documents),
		a.ReviewedBy,
		a.DecisionNote,
		a.SubmittedAt,
		a.ReviewedAt,
		a.DecidedAt,
		a.UpdatedAt,
		a.Version,
	).Scan(&next)

	if IsNoRows(err) {
		var exists bool
		if err := r.conn.querier(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, a.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check application: %w", err)
		}
		if !exists {
			return application.ErrApplicationNotFound
		}
		return application.ErrStaleApplication
	}
	if err != nil {
		if IsUniqueViolation(err) && ConstraintName(err) == activePairIndex {
			return application.ErrAlreadyApplied
		}
		return fmt.Errorf("failed to update application: %w", err)
	}

	a.Version = next
	return nil
}

// Delete removes an application.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.querier(ctx).Exec(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrApplicationNotFound
	}
	return nil
}

// List returns one page of applications, newest first, plus the total count.
func (r *ApplicationRepository) List(ctx context.Context, filter application.Filter, page shared.Pagination) ([]*application.Application, int, error) {
	page = page.Normalize()

	where := sq.Eq{}
	if filter.ScholarshipID != "" {
		where["scholarship_id"] = filter.ScholarshipID
	}
	if filter.ApplicantID != "" {
		where["applicant_id"] = filter.ApplicantID
	}
	if filter.Status != "" {
		where["status"] = string(filter.Status)
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("applications").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.conn.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	listSQL, listArgs, err := psql.Select(applicationColumns).
		From("applications").
		Where(where).
		OrderBy("created_at DESC", "id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.conn.querier(ctx).Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	items := make([]*application.Application, 0, page.Limit)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate applications: %w", err)
	}

	return items, total, nil
}

// FindByApplicant returns an applicant's applications, newest first.
func (r *ApplicationRepository) FindByApplicant(ctx context.Context, applicantID string, page shared.Pagination) ([]*application.Application, int, error) {
	return r.List(ctx, application.Filter{ApplicantID: applicantID}, page)
}

// HasApplied checks for a live application of the pair.
func (r *ApplicationRepository) HasApplied(ctx context.Context, applicantID, scholarshipID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE applicant_id = $1 AND scholarship_id = $2 AND status <> 'CANCELLED'
		)
	`

	var exists bool
	if err := r.conn.querier(ctx).QueryRow(ctx, query, applicantID, scholarshipID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check application: %w", err)
	}
	return exists, nil
}

// CountByScholarship counts every application of a scholarship.
func (r *ApplicationRepository) CountByScholarship(ctx context.Context, scholarshipID string) (int, error) {
	var n int
	err := r.conn.querier(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE scholarship_id = $1`, scholarshipID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanApplication(row rowScanner) (*application.Application, error) {
	var a application.Application
	var status string
	var infoJSON []byte

	err := row.Scan(
		&a.ID,
		&a.ScholarshipID,
		&a.ApplicantID,
		&status,
		&a.CoverLetter,
		&infoJSON,
		&a.Documents,
		&a.ReviewedBy,
		&a.DecisionNote,
		&a.SubmittedAt,
		&a.ReviewedAt,
		&a.DecidedAt,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, application.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}

	a.Status = application.Status(status)
	if len(infoJSON) > 0 {
		if err := json.Unmarshal(infoJSON, &a.AdditionalInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal additional info: %w", err)
		}
	}
	if a.AdditionalInfo == nil {
		a.AdditionalInfo = map[string]any{}
	}
	if a.Documents == nil {
		a.Documents = []string{}
	}

	return &a, nil
}

func marshalInfo(info map[string]any) ([]byte, error) {
	if info == nil {
		info = map[string]any{}
	}
	b, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal additional info: %w", err)
	}
	return b, nil
}

func documentsOrEmpty(docs []string) []string {
	if docs == nil {
		return []string{}
	}
	return docs
}
