package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qiyas/continuity/internal/domain/index"
	appErrors "github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// IndexRepository
// ─────────────────────────────────────────────────────────────────────────────

// IndexRepository is the PostgreSQL implementation of index.Repository.
// Every public method accepts a context.Context for cancellation / timeout
// propagation and uses parameterised queries exclusively.
type IndexRepository struct {
	pool   *pgxpool.Pool
	logger Logger
}

// NewIndexRepository constructs a ready-to-use IndexRepository.
func NewIndexRepository(pool *pgxpool.Pool, logger Logger) *IndexRepository {
	return &IndexRepository{pool: pool, logger: logger}
}

const indexColumns = `
	id, code, name_ar, name_en, description, index_type, status,
	organization_id, total_requirements, total_areas,
	is_completed, completed_at, previous_index_id,
	start_date, end_date, created_at, updated_at`

var indexSortColumns = map[string]string{
	"code":       "code",
	"name_ar":    "name_ar",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// Create persists a new index.
func (r *IndexRepository) Create(ctx context.Context, i *index.Index) error {
	r.logger.Debug("IndexRepository.Create", "index_id", i.ID, "code", i.Code)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO indices (
			id, code, name_ar, name_en, description, index_type, status,
			organization_id, total_requirements, total_areas,
			is_completed, completed_at, previous_index_id,
			start_date, end_date, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,
			$8,$9,$10,
			$11,$12,$13,
			$14,$15,$16,$17
		)`,
		i.ID, i.Code, i.NameAr, i.NameEn, i.Description, i.IndexType, i.Status,
		i.OrganizationID, i.TotalRequirements, i.TotalAreas,
		i.IsCompleted, i.CompletedAt, i.PreviousIndexID,
		i.StartDate, i.EndDate, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.New(appErrors.ErrCodeIndexAlreadyExists, "index with code "+i.Code+" already exists")
		}
		r.logger.Error("IndexRepository.Create", "error", err, "code", i.Code)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to insert index")
	}
	return nil
}

// GetByID loads an index by its primary key.
func (r *IndexRepository) GetByID(ctx context.Context, id common.ID) (*index.Index, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+indexColumns+` FROM indices WHERE id = $1`, id)
	return r.scanIndex(row, string(id))
}

// GetByCode loads an index by its unique code.
func (r *IndexRepository) GetByCode(ctx context.Context, code string) (*index.Index, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+indexColumns+` FROM indices WHERE code = $1`, code)
	return r.scanIndex(row, code)
}

// Update persists the full state of an existing index.
func (r *IndexRepository) Update(ctx context.Context, i *index.Index) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE indices SET
			code = $2, name_ar = $3, name_en = $4, description = $5,
			index_type = $6, status = $7, organization_id = $8,
			total_requirements = $9, total_areas = $10,
			is_completed = $11, completed_at = $12, previous_index_id = $13,
			start_date = $14, end_date = $15, updated_at = $16
		WHERE id = $1`,
		i.ID, i.Code, i.NameAr, i.NameEn, i.Description,
		i.IndexType, i.Status, i.OrganizationID,
		i.TotalRequirements, i.TotalAreas,
		i.IsCompleted, i.CompletedAt, i.PreviousIndexID,
		i.StartDate, i.EndDate, i.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("IndexRepository.Update", "error", err, "index_id", i.ID)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to update index")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeIndexNotFound, "index "+string(i.ID)+" not found")
	}
	return nil
}

// Delete removes an index.
func (r *IndexRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM indices WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("IndexRepository.Delete", "error", err, "index_id", id)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to delete index")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeIndexNotFound, "index "+string(id)+" not found")
	}
	return nil
}

// List returns a filtered, paginated page of indices plus the total count.
func (r *IndexRepository) List(ctx context.Context, filter index.ListFilter) ([]*index.Index, int64, error) {
	where := " WHERE 1=1"
	args := []any{}
	n := 0

	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.IndexType != "" {
		where += " AND index_type = " + arg(filter.IndexType)
	}
	if filter.Status != "" {
		where += " AND status = " + arg(filter.Status)
	}
	if filter.OrganizationID != "" {
		where += " AND organization_id = " + arg(filter.OrganizationID)
	}
	if filter.CompletedOnly {
		where += " AND is_completed = TRUE"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM indices`+where, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count indices")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := `SELECT` + indexColumns + ` FROM indices` + where +
		orderClause(filter.SortBy, filter.SortOrder, "created_at", indexSortColumns) +
		" LIMIT " + arg(pageSize) + " OFFSET " + arg((page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list indices")
	}
	defer rows.Close()

	out, err := r.collectIndices(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListCompletedByType returns completed indices of one family, newest first.
func (r *IndexRepository) ListCompletedByType(ctx context.Context, indexType string) ([]*index.Index, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+indexColumns+`
		FROM indices
		WHERE index_type = $1 AND is_completed = TRUE
		ORDER BY completed_at DESC`, indexType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list completed indices")
	}
	defer rows.Close()
	return r.collectIndices(rows)
}

func (r *IndexRepository) collectIndices(rows pgx.Rows) ([]*index.Index, error) {
	var out []*index.Index
	for rows.Next() {
		i, err := r.scanIndexFrom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to iterate indices")
	}
	return out, nil
}

func (r *IndexRepository) scanIndex(row pgx.Row, key string) (*index.Index, error) {
	i, err := r.scanIndexFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeIndexNotFound, "index "+key+" not found")
		}
		return nil, err
	}
	return i, nil
}

func (r *IndexRepository) scanIndexFrom(row interface{ Scan(...any) error }) (*index.Index, error) {
	var i index.Index
	err := row.Scan(
		&i.ID, &i.Code, &i.NameAr, &i.NameEn, &i.Description, &i.IndexType, &i.Status,
		&i.OrganizationID, &i.TotalRequirements, &i.TotalAreas,
		&i.IsCompleted, &i.CompletedAt, &i.PreviousIndexID,
		&i.StartDate, &i.EndDate, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan index row")
	}
	return &i, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
