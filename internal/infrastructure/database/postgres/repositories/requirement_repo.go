package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qiyas/continuity/internal/domain/requirement"
	appErrors "github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// RequirementRepository
// ─────────────────────────────────────────────────────────────────────────────

// RequirementRepository is the PostgreSQL implementation of
// requirement.Repository.
type RequirementRepository struct {
	pool   *pgxpool.Pool
	logger Logger
}

// NewRequirementRepository constructs a ready-to-use RequirementRepository.
func NewRequirementRepository(pool *pgxpool.Pool, logger Logger) *RequirementRepository {
	return &RequirementRepository{pool: pool, logger: logger}
}

const requirementColumns = `
	id, index_id, code, question_ar, question_en,
	main_area_ar, main_area_en, element_ar, element_en,
	sub_domain_ar, sub_domain_en, display_order,
	answer_ar, answer_en, answer_status, created_at, updated_at`

var requirementSortColumns = map[string]string{
	"code":          "code",
	"display_order": "display_order",
	"main_area_ar":  "main_area_ar",
	"created_at":    "created_at",
	"updated_at":    "updated_at",
}

// Create persists a new requirement.
func (r *RequirementRepository) Create(ctx context.Context, req *requirement.Requirement) error {
	r.logger.Debug("RequirementRepository.Create", "requirement_id", req.ID, "code", req.Code)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO requirements (
			id, index_id, code, question_ar, question_en,
			main_area_ar, main_area_en, element_ar, element_en,
			sub_domain_ar, sub_domain_en, display_order,
			answer_ar, answer_en, answer_status, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,
			$10,$11,$12,
			$13,$14,$15,$16,$17
		)`,
		req.ID, req.IndexID, req.Code, req.QuestionAr, req.QuestionEn,
		req.MainAreaAr, req.MainAreaEn, req.ElementAr, req.ElementEn,
		req.SubDomainAr, req.SubDomainEn, req.DisplayOrder,
		req.AnswerAr, req.AnswerEn, req.AnswerStatus, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.New(appErrors.ErrCodeRequirementAlreadyExists,
				"requirement with code "+req.Code+" already exists in index "+string(req.IndexID))
		}
		r.logger.Error("RequirementRepository.Create", "error", err, "code", req.Code)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to insert requirement")
	}
	return nil
}

// GetByID loads a requirement by its primary key.
func (r *RequirementRepository) GetByID(ctx context.Context, id common.ID) (*requirement.Requirement, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+requirementColumns+` FROM requirements WHERE id = $1`, id)
	req, err := scanRequirement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeRequirementNotFound, "requirement "+string(id)+" not found")
		}
		return nil, err
	}
	return req, nil
}

// GetByCode loads a requirement by its code within one index.
func (r *RequirementRepository) GetByCode(ctx context.Context, indexID common.ID, code string) (*requirement.Requirement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT`+requirementColumns+` FROM requirements WHERE index_id = $1 AND code = $2`, indexID, code)
	req, err := scanRequirement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeRequirementNotFound,
				"requirement "+code+" not found in index "+string(indexID))
		}
		return nil, err
	}
	return req, nil
}

// Update persists the full state of an existing requirement.
func (r *RequirementRepository) Update(ctx context.Context, req *requirement.Requirement) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE requirements SET
			code = $2, question_ar = $3, question_en = $4,
			main_area_ar = $5, main_area_en = $6, element_ar = $7, element_en = $8,
			sub_domain_ar = $9, sub_domain_en = $10, display_order = $11,
			answer_ar = $12, answer_en = $13, answer_status = $14, updated_at = $15
		WHERE id = $1`,
		req.ID, req.Code, req.QuestionAr, req.QuestionEn,
		req.MainAreaAr, req.MainAreaEn, req.ElementAr, req.ElementEn,
		req.SubDomainAr, req.SubDomainEn, req.DisplayOrder,
		req.AnswerAr, req.AnswerEn, req.AnswerStatus, req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("RequirementRepository.Update", "error", err, "requirement_id", req.ID)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to update requirement")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeRequirementNotFound, "requirement "+string(req.ID)+" not found")
	}
	return nil
}

// Delete removes a requirement.
func (r *RequirementRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM requirements WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("RequirementRepository.Delete", "error", err, "requirement_id", id)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to delete requirement")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeRequirementNotFound, "requirement "+string(id)+" not found")
	}
	return nil
}

// ListByIndex returns every requirement of one index ordered by display_order.
func (r *RequirementRepository) ListByIndex(ctx context.Context, indexID common.ID) ([]*requirement.Requirement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+requirementColumns+` FROM requirements WHERE index_id = $1 ORDER BY display_order, code`, indexID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list requirements")
	}
	defer rows.Close()
	return collectRequirements(rows)
}

// List returns a filtered, paginated page of an index's requirements plus the
// total count.
func (r *RequirementRepository) List(ctx context.Context, indexID common.ID, filter requirement.ListFilter) ([]*requirement.Requirement, int64, error) {
	where := " WHERE index_id = $1"
	args := []any{indexID}
	n := 1

	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.MainAreaAr != "" {
		where += " AND main_area_ar = " + arg(filter.MainAreaAr)
	}
	if filter.ElementAr != "" {
		where += " AND element_ar = " + arg(filter.ElementAr)
	}
	if filter.SubDomainAr != "" {
		where += " AND sub_domain_ar = " + arg(filter.SubDomainAr)
	}
	if filter.AnswerStatus != "" {
		where += " AND answer_status = " + arg(filter.AnswerStatus)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where += fmt.Sprintf(" AND (question_ar ILIKE %s OR question_en ILIKE %s OR code ILIKE %s)", p, p, p)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requirements`+where, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count requirements")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := `SELECT` + requirementColumns + ` FROM requirements` + where +
		orderClause(filter.SortBy, filter.SortOrder, "display_order", requirementSortColumns) +
		" LIMIT " + arg(pageSize) + " OFFSET " + arg((page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list requirements")
	}
	defer rows.Close()

	out, err := collectRequirements(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// DistinctSections returns the distinct taxonomy triples of an index.
func (r *RequirementRepository) DistinctSections(ctx context.Context, indexID common.ID) ([]requirement.Section, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT main_area_ar, main_area_en, element_ar, element_en, sub_domain_ar, sub_domain_en
		FROM requirements
		WHERE index_id = $1
		ORDER BY main_area_ar, element_ar, sub_domain_ar`, indexID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list distinct sections")
	}
	defer rows.Close()

	var out []requirement.Section
	for rows.Next() {
		var s requirement.Section
		if err := rows.Scan(&s.MainAreaAr, &s.MainAreaEn, &s.ElementAr, &s.ElementEn, &s.SubDomainAr, &s.SubDomainEn); err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan section row")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to iterate sections")
	}
	return out, nil
}

// CountByIndex returns the number of requirements in an index.
func (r *RequirementRepository) CountByIndex(ctx context.Context, indexID common.ID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM requirements WHERE index_id = $1`, indexID).Scan(&total)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count requirements")
	}
	return total, nil
}

func collectRequirements(rows pgx.Rows) ([]*requirement.Requirement, error) {
	var out []*requirement.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to iterate requirements")
	}
	return out, nil
}

func scanRequirement(row interface{ Scan(...any) error }) (*requirement.Requirement, error) {
	var req requirement.Requirement
	err := row.Scan(
		&req.ID, &req.IndexID, &req.Code, &req.QuestionAr, &req.QuestionEn,
		&req.MainAreaAr, &req.MainAreaEn, &req.ElementAr, &req.ElementEn,
		&req.SubDomainAr, &req.SubDomainEn, &req.DisplayOrder,
		&req.AnswerAr, &req.AnswerEn, &req.AnswerStatus, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan requirement row")
	}
	return &req, nil
}
