package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qiyas/continuity/internal/domain/mapping"
	appErrors "github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// MappingRepository
// ─────────────────────────────────────────────────────────────────────────────

// MappingRepository is the PostgreSQL implementation of mapping.Repository.
type MappingRepository struct {
	pool   *pgxpool.Pool
	logger Logger
}

// NewMappingRepository constructs a ready-to-use MappingRepository.
func NewMappingRepository(pool *pgxpool.Pool, logger Logger) *MappingRepository {
	return &MappingRepository{pool: pool, logger: logger}
}

const mappingColumns = `
	id, current_index_id, previous_index_id,
	main_area_from_ar, main_area_from_en, main_area_to_ar, main_area_to_en,
	element_from_ar, element_from_en, element_to_ar, element_to_en,
	sub_domain_from_ar, sub_domain_from_en, sub_domain_to_ar, sub_domain_to_en,
	created_by, created_at, updated_at`

// Create persists a new section mapping.
func (r *MappingRepository) Create(ctx context.Context, m *mapping.SectionMapping) error {
	r.logger.Debug("MappingRepository.Create", "mapping_id", m.ID)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO section_mappings (
			id, current_index_id, previous_index_id,
			main_area_from_ar, main_area_from_en, main_area_to_ar, main_area_to_en,
			element_from_ar, element_from_en, element_to_ar, element_to_en,
			sub_domain_from_ar, sub_domain_from_en, sub_domain_to_ar, sub_domain_to_en,
			created_by, created_at, updated_at
		) VALUES (
			$1,$2,$3,
			$4,$5,$6,$7,
			$8,$9,$10,$11,
			$12,$13,$14,$15,
			$16,$17,$18
		)`,
		m.ID, m.CurrentIndexID, m.PreviousIndexID,
		m.MainAreaFromAr, m.MainAreaFromEn, m.MainAreaToAr, m.MainAreaToEn,
		m.ElementFromAr, m.ElementFromEn, m.ElementToAr, m.ElementToEn,
		m.SubDomainFromAr, m.SubDomainFromEn, m.SubDomainToAr, m.SubDomainToEn,
		m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appErrors.New(appErrors.ErrCodeMappingAlreadyExists,
				"a mapping already exists for this source section")
		}
		r.logger.Error("MappingRepository.Create", "error", err, "mapping_id", m.ID)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to insert section mapping")
	}
	return nil
}

// GetByID loads a section mapping by its primary key.
func (r *MappingRepository) GetByID(ctx context.Context, id common.ID) (*mapping.SectionMapping, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+mappingColumns+` FROM section_mappings WHERE id = $1`, id)
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeMappingNotFound, "section mapping "+string(id)+" not found")
		}
		return nil, err
	}
	return m, nil
}

// Update persists the full state of an existing section mapping.
func (r *MappingRepository) Update(ctx context.Context, m *mapping.SectionMapping) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE section_mappings SET
			main_area_from_ar = $2, main_area_from_en = $3, main_area_to_ar = $4, main_area_to_en = $5,
			element_from_ar = $6, element_from_en = $7, element_to_ar = $8, element_to_en = $9,
			sub_domain_from_ar = $10, sub_domain_from_en = $11, sub_domain_to_ar = $12, sub_domain_to_en = $13,
			updated_at = $14
		WHERE id = $1`,
		m.ID,
		m.MainAreaFromAr, m.MainAreaFromEn, m.MainAreaToAr, m.MainAreaToEn,
		m.ElementFromAr, m.ElementFromEn, m.ElementToAr, m.ElementToEn,
		m.SubDomainFromAr, m.SubDomainFromEn, m.SubDomainToAr, m.SubDomainToEn,
		m.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("MappingRepository.Update", "error", err, "mapping_id", m.ID)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to update section mapping")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeMappingNotFound, "section mapping "+string(m.ID)+" not found")
	}
	return nil
}

// Delete removes a section mapping.
func (r *MappingRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM section_mappings WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("MappingRepository.Delete", "error", err, "mapping_id", id)
		return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to delete section mapping")
	}
	if tag.RowsAffected() == 0 {
		return appErrors.New(appErrors.ErrCodeMappingNotFound, "section mapping "+string(id)+" not found")
	}
	return nil
}

// List returns a filtered, paginated page of section mappings plus the total
// count.
func (r *MappingRepository) List(ctx context.Context, filter mapping.ListFilter) ([]*mapping.SectionMapping, int64, error) {
	where := " WHERE 1=1"
	args := []any{}
	n := 0

	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if filter.CurrentIndexID != "" {
		where += " AND current_index_id = " + arg(filter.CurrentIndexID)
	}
	if filter.PreviousIndexID != "" {
		where += " AND previous_index_id = " + arg(filter.PreviousIndexID)
	}
	switch filter.Level {
	case mapping.LevelSubDomain:
		where += " AND sub_domain_to_ar <> ''"
	case mapping.LevelElement:
		where += " AND element_to_ar <> '' AND sub_domain_to_ar = ''"
	case mapping.LevelMainArea:
		where += " AND element_to_ar = '' AND sub_domain_to_ar = ''"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM section_mappings`+where, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count section mappings")
	}

	page, pageSize := defaultPage, defaultPageSize
	if filter.Pagination != nil {
		page, pageSize = normalizePage(filter.Pagination.Page, filter.Pagination.PageSize)
	}
	query := `SELECT` + mappingColumns + ` FROM section_mappings` + where +
		" ORDER BY main_area_from_ar, element_from_ar, sub_domain_from_ar" +
		" LIMIT " + arg(pageSize) + " OFFSET " + arg((page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list section mappings")
	}
	defer rows.Close()

	out, err := collectMappings(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByPair returns every mapping edge of one (current, previous) index pair.
// The matching path loads the full set to build the in-memory resolver.
func (r *MappingRepository) ListByPair(ctx context.Context, currentIndexID, previousIndexID common.ID) ([]*mapping.SectionMapping, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+mappingColumns+`
		FROM section_mappings
		WHERE current_index_id = $1 AND previous_index_id = $2
		ORDER BY created_at`, currentIndexID, previousIndexID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list section mappings for pair")
	}
	defer rows.Close()
	return collectMappings(rows)
}

// FindByFromTriple resolves the mapping whose previous-index side matches the
// given triple exactly, or nil when no such edge exists.
func (r *MappingRepository) FindByFromTriple(ctx context.Context, currentIndexID, previousIndexID common.ID, from mapping.Triple) (*mapping.SectionMapping, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+mappingColumns+`
		FROM section_mappings
		WHERE current_index_id = $1 AND previous_index_id = $2
		  AND main_area_from_ar = $3 AND element_from_ar = $4 AND sub_domain_from_ar = $5`,
		currentIndexID, previousIndexID, from.MainArea, from.Element, from.SubDomain)
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func collectMappings(rows pgx.Rows) ([]*mapping.SectionMapping, error) {
	var out []*mapping.SectionMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to iterate section mappings")
	}
	return out, nil
}

func scanMapping(row interface{ Scan(...any) error }) (*mapping.SectionMapping, error) {
	var m mapping.SectionMapping
	err := row.Scan(
		&m.ID, &m.CurrentIndexID, &m.PreviousIndexID,
		&m.MainAreaFromAr, &m.MainAreaFromEn, &m.MainAreaToAr, &m.MainAreaToEn,
		&m.ElementFromAr, &m.ElementFromEn, &m.ElementToAr, &m.ElementToEn,
		&m.SubDomainFromAr, &m.SubDomainFromEn, &m.SubDomainToAr, &m.SubDomainToEn,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan section mapping row")
	}
	return &m, nil
}
