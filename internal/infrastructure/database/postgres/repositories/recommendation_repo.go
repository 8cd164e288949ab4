package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qiyas/continuity/internal/domain/recommendation"
	appErrors "github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// RecommendationRepository
// ─────────────────────────────────────────────────────────────────────────────

// RecommendationRepository is the PostgreSQL implementation of
// recommendation.Repository.  The upload batch runs all of its writes through
// RunInTx so that a failed batch leaves no partial state behind.
type RecommendationRepository struct {
	db     querier
	pool   *pgxpool.Pool
	logger Logger
}

// NewRecommendationRepository constructs a ready-to-use
// RecommendationRepository.
func NewRecommendationRepository(pool *pgxpool.Pool, logger Logger) *RecommendationRepository {
	return &RecommendationRepository{db: pool, pool: pool, logger: logger}
}

const recommendationColumns = `
	id, requirement_id, index_id,
	current_status_ar, current_status_en, recommendation_ar, recommendation_en,
	status, addressed_comment, addressed_by, addressed_at,
	created_at, updated_at`

// Create persists a new recommendation.
func (r *RecommendationRepository) Create(ctx context.Context, rec *recommendation.Recommendation) error {
	r.logger.Debug("RecommendationRepository.Create", "recommendation_id", rec.ID)

	_, err := r.db.Exec(ctx, `
		INSERT INTO recommendations (
			id, requirement_id, index_id,
			current_status_ar, current_status_en, recommendation_ar, recommendation_en,
			status, addressed_comment, addressed_by, addressed_at,
			created_at, updated_at
		) VALUES (
			$1,$2,$3,
			$4,$5,$6,$7,
			$8,$9,$10,$11,
			$12,$13
		)`,
		rec.ID, rec.RequirementID, rec.IndexID,
		rec.CurrentStatusAr, rec.CurrentStatusEn, rec.RecommendationAr, rec.RecommendationEn,
		rec.Status, rec.AddressedComment, rec.AddressedBy, rec.AddressedAt,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.New(appErrors.ErrCodeConflict,
				"a recommendation already exists for requirement "+string(rec.RequirementID)+
					" in index "+string(rec.IndexID))
		}
		r.logger.Error("RecommendationRepository.Create", "error", err, "recommendation_id", rec.ID)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to insert recommendation")
	}
	return nil
}

// GetByID loads a recommendation by its primary key.
func (r *RecommendationRepository) GetByID(ctx context.Context, id common.ID) (*recommendation.Recommendation, error) {
	row := r.db.QueryRow(ctx, `SELECT`+recommendationColumns+` FROM recommendations WHERE id = $1`, id)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeRecommendationNotFound, "recommendation "+string(id)+" not found")
		}
		return nil, err
	}
	return rec, nil
}

// Update persists the full state of an existing recommendation.
func (r *RecommendationRepository) Update(ctx context.Context, rec *recommendation.Recommendation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE recommendations SET
			current_status_ar = $2, current_status_en = $3,
			recommendation_ar = $4, recommendation_en = $5,
			status = $6, addressed_comment = $7, addressed_by = $8, addressed_at = $9,
			updated_at = $10
		WHERE id = $1`,
		rec.ID,
		rec.CurrentStatusAr, rec.CurrentStatusEn,
		rec.RecommendationAr, rec.RecommendationEn,
		rec.Status, rec.AddressedComment, rec.AddressedBy, rec.AddressedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("RecommendationRepository.Update", "error", err, "recommendation_id", rec.ID)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to update recommendation")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeRecommendationNotFound, "recommendation "+string(rec.ID)+" not found")
	}
	return nil
}

// Delete removes a recommendation.
func (r *RecommendationRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recommendations WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("RecommendationRepository.Delete", "error", err, "recommendation_id", id)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to delete recommendation")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeRecommendationNotFound, "recommendation "+string(id)+" not found")
	}
	return nil
}

// GetByRequirement returns the recommendation attached to a requirement.
func (r *RecommendationRepository) GetByRequirement(ctx context.Context, requirementID common.ID) (*recommendation.Recommendation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT`+recommendationColumns+` FROM recommendations WHERE requirement_id = $1 ORDER BY created_at LIMIT 1`,
		requirementID)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeRecommendationNotFound,
				"no recommendation for requirement "+string(requirementID))
		}
		return nil, err
	}
	return rec, nil
}

// GetByRequirementAndIndex resolves the unique (requirement, index) pair.
func (r *RecommendationRepository) GetByRequirementAndIndex(ctx context.Context, requirementID, indexID common.ID) (*recommendation.Recommendation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT`+recommendationColumns+` FROM recommendations WHERE requirement_id = $1 AND index_id = $2`,
		requirementID, indexID)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeRecommendationNotFound,
				"no recommendation for requirement "+string(requirementID)+" in index "+string(indexID))
		}
		return nil, err
	}
	return rec, nil
}

// ListByIndex returns an index's recommendations joined with their
// requirements' taxonomy labels, ordered by sub-domain then main area.
func (r *RecommendationRepository) ListByIndex(ctx context.Context, indexID common.ID, filter recommendation.ListFilter) ([]*recommendation.GroupedItem, int64, error) {
	where := " WHERE rec.index_id = $1"
	args := []any{indexID}
	n := 1

	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.Status != "" {
		where += " AND rec.status = " + arg(filter.Status)
	}

	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM recommendations rec`+where, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count recommendations")
	}

	page, pageSize := defaultPage, defaultPageSize
	if filter.Pagination != nil {
		page, pageSize = normalizePage(filter.Pagination.Page, filter.Pagination.PageSize)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+recommendationColumnsPrefixed("rec")+`,
		       req.main_area_ar, req.element_ar, req.sub_domain_ar
		FROM recommendations rec
		JOIN requirements req ON req.id = rec.requirement_id`+where+`
		ORDER BY req.sub_domain_ar, req.main_area_ar, req.display_order
		LIMIT `+arg(pageSize)+` OFFSET `+arg((page-1)*pageSize), args...)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list recommendations")
	}
	defer rows.Close()

	var out []*recommendation.GroupedItem
	for rows.Next() {
		var rec recommendation.Recommendation
		var item recommendation.GroupedItem
		err := rows.Scan(
			&rec.ID, &rec.RequirementID, &rec.IndexID,
			&rec.CurrentStatusAr, &rec.CurrentStatusEn, &rec.RecommendationAr, &rec.RecommendationEn,
			&rec.Status, &rec.AddressedComment, &rec.AddressedBy, &rec.AddressedAt,
			&rec.CreatedAt, &rec.UpdatedAt,
			&item.MainAreaAr, &item.ElementAr, &item.SubDomainAr,
		)
		if err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan recommendation row")
		}
		item.Recommendation = &rec
		out = append(out, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to iterate recommendations")
	}
	return out, total, nil
}

// FirstByRequirementIDs returns the first existing recommendation among the
// given requirements, honouring the order of the slice.
func (r *RecommendationRepository) FirstByRequirementIDs(ctx context.Context, requirementIDs []common.ID) (*recommendation.Recommendation, error) {
	if len(requirementIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(requirementIDs))
	for i, id := range requirementIDs {
		ids[i] = string(id)
	}
	// array_position preserves the caller's priority order.
	row := r.db.QueryRow(ctx, `
		SELECT`+recommendationColumns+`
		FROM recommendations
		WHERE requirement_id = ANY($1)
		ORDER BY array_position($1, requirement_id::text)
		LIMIT 1`, ids)
	rec, err := scanRecommendation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// RunInTx executes fn inside one transaction; every repository call made
// through the passed Repository joins that transaction.  Nested calls join
// the ambient transaction instead of opening a new one.
func (r *RecommendationRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, txRepo recommendation.Repository) error) error {
	if r.pool == nil {
		// Already transactional.
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	txRepo := &RecommendationRepository{db: tx, logger: r.logger}
	if err := fn(ctx, txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.CodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

func recommendationColumnsPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.requirement_id, ` + alias + `.index_id,
	       ` + alias + `.current_status_ar, ` + alias + `.current_status_en,
	       ` + alias + `.recommendation_ar, ` + alias + `.recommendation_en,
	       ` + alias + `.status, ` + alias + `.addressed_comment,
	       ` + alias + `.addressed_by, ` + alias + `.addressed_at,
	       ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanRecommendation(row interface{ Scan(...any) error }) (*recommendation.Recommendation, error) {
	var rec recommendation.Recommendation
	err := row.Scan(
		&rec.ID, &rec.RequirementID, &rec.IndexID,
		&rec.CurrentStatusAr, &rec.CurrentStatusEn, &rec.RecommendationAr, &rec.RecommendationEn,
		&rec.Status, &rec.AddressedComment, &rec.AddressedBy, &rec.AddressedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan recommendation row")
	}
	return &rec, nil
}
