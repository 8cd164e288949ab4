package continuity

import (
	"context"
	"sort"
	"time"

	"github.com/qiyas/continuity/internal/domain/index"
	"github.com/qiyas/continuity/internal/domain/mapping"
	"github.com/qiyas/continuity/internal/domain/recommendation"
	"github.com/qiyas/continuity/internal/domain/requirement"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory repository fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeIndexRepo struct {
	indices map[common.ID]*index.Index
}

func newFakeIndexRepo(indices ...*index.Index) *fakeIndexRepo {
	r := &fakeIndexRepo{indices: make(map[common.ID]*index.Index)}
	for _, i := range indices {
		r.indices[i.ID] = i
	}
	return r
}

func (r *fakeIndexRepo) Create(_ context.Context, i *index.Index) error {
	r.indices[i.ID] = i
	return nil
}

func (r *fakeIndexRepo) GetByID(_ context.Context, id common.ID) (*index.Index, error) {
	if i, ok := r.indices[id]; ok {
		return i, nil
	}
	return nil, errors.New(errors.ErrCodeIndexNotFound, "index not found")
}

func (r *fakeIndexRepo) GetByCode(_ context.Context, code string) (*index.Index, error) {
	for _, i := range r.indices {
		if i.Code == code {
			return i, nil
		}
	}
	return nil, errors.New(errors.ErrCodeIndexNotFound, "index not found")
}

func (r *fakeIndexRepo) Update(_ context.Context, i *index.Index) error {
	r.indices[i.ID] = i
	return nil
}

func (r *fakeIndexRepo) Delete(_ context.Context, id common.ID) error {
	delete(r.indices, id)
	return nil
}

func (r *fakeIndexRepo) List(_ context.Context, _ index.ListFilter) ([]*index.Index, int64, error) {
	var out []*index.Index
	for _, i := range r.indices {
		out = append(out, i)
	}
	return out, int64(len(out)), nil
}

func (r *fakeIndexRepo) ListCompletedByType(_ context.Context, indexType string) ([]*index.Index, error) {
	var out []*index.Index
	for _, i := range r.indices {
		if i.IndexType == indexType && i.IsCompleted {
			out = append(out, i)
		}
	}
	return out, nil
}

type fakeRequirementRepo struct {
	requirements []*requirement.Requirement
}

func (r *fakeRequirementRepo) Create(_ context.Context, req *requirement.Requirement) error {
	r.requirements = append(r.requirements, req)
	return nil
}

func (r *fakeRequirementRepo) GetByID(_ context.Context, id common.ID) (*requirement.Requirement, error) {
	for _, req := range r.requirements {
		if req.ID == id {
			return req, nil
		}
	}
	return nil, errors.New(errors.ErrCodeRequirementNotFound, "requirement not found")
}

func (r *fakeRequirementRepo) GetByCode(_ context.Context, indexID common.ID, code string) (*requirement.Requirement, error) {
	for _, req := range r.requirements {
		if req.IndexID == indexID && req.Code == code {
			return req, nil
		}
	}
	return nil, errors.New(errors.ErrCodeRequirementNotFound, "requirement not found")
}

func (r *fakeRequirementRepo) Update(_ context.Context, _ *requirement.Requirement) error { return nil }
func (r *fakeRequirementRepo) Delete(_ context.Context, _ common.ID) error                { return nil }

func (r *fakeRequirementRepo) ListByIndex(_ context.Context, indexID common.ID) ([]*requirement.Requirement, error) {
	var out []*requirement.Requirement
	for _, req := range r.requirements {
		if req.IndexID == indexID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *fakeRequirementRepo) List(_ context.Context, indexID common.ID, _ requirement.ListFilter) ([]*requirement.Requirement, int64, error) {
	out, _ := r.ListByIndex(context.Background(), indexID)
	return out, int64(len(out)), nil
}

func (r *fakeRequirementRepo) DistinctSections(_ context.Context, indexID common.ID) ([]requirement.Section, error) {
	seen := make(map[string]bool)
	var out []requirement.Section
	for _, req := range r.requirements {
		if req.IndexID != indexID {
			continue
		}
		sec := requirement.Section{
			MainAreaAr:  req.MainAreaAr,
			ElementAr:   req.ElementAr,
			SubDomainAr: req.SubDomainAr,
		}
		if !seen[sec.Key()] {
			seen[sec.Key()] = true
			out = append(out, sec)
		}
	}
	return out, nil
}

func (r *fakeRequirementRepo) CountByIndex(_ context.Context, indexID common.ID) (int64, error) {
	out, _ := r.ListByIndex(context.Background(), indexID)
	return int64(len(out)), nil
}

type fakeMappingRepo struct {
	mappings []*mapping.SectionMapping
}

func (r *fakeMappingRepo) Create(_ context.Context, m *mapping.SectionMapping) error {
	r.mappings = append(r.mappings, m)
	return nil
}

func (r *fakeMappingRepo) GetByID(_ context.Context, id common.ID) (*mapping.SectionMapping, error) {
	for _, m := range r.mappings {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, errors.New(errors.ErrCodeMappingNotFound, "mapping not found")
}

func (r *fakeMappingRepo) Update(_ context.Context, _ *mapping.SectionMapping) error { return nil }
func (r *fakeMappingRepo) Delete(_ context.Context, _ common.ID) error               { return nil }

func (r *fakeMappingRepo) List(_ context.Context, _ mapping.ListFilter) ([]*mapping.SectionMapping, int64, error) {
	return r.mappings, int64(len(r.mappings)), nil
}

func (r *fakeMappingRepo) ListByPair(_ context.Context, currentIndexID, previousIndexID common.ID) ([]*mapping.SectionMapping, error) {
	var out []*mapping.SectionMapping
	for _, m := range r.mappings {
		if m.CurrentIndexID == currentIndexID && m.PreviousIndexID == previousIndexID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMappingRepo) FindByFromTriple(_ context.Context, currentIndexID, previousIndexID common.ID, from mapping.Triple) (*mapping.SectionMapping, error) {
	for _, m := range r.mappings {
		if m.CurrentIndexID == currentIndexID && m.PreviousIndexID == previousIndexID && m.FromTriple() == from {
			return m, nil
		}
	}
	return nil, errors.New(errors.ErrCodeMappingNotFound, "mapping not found")
}

type fakeRecommendationRepo struct {
	recommendations map[common.ID]*recommendation.Recommendation
}

func newFakeRecommendationRepo() *fakeRecommendationRepo {
	return &fakeRecommendationRepo{recommendations: make(map[common.ID]*recommendation.Recommendation)}
}

func (r *fakeRecommendationRepo) Create(_ context.Context, rec *recommendation.Recommendation) error {
	r.recommendations[rec.ID] = rec
	return nil
}

func (r *fakeRecommendationRepo) GetByID(_ context.Context, id common.ID) (*recommendation.Recommendation, error) {
	if rec, ok := r.recommendations[id]; ok {
		return rec, nil
	}
	return nil, errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found")
}

func (r *fakeRecommendationRepo) Update(_ context.Context, rec *recommendation.Recommendation) error {
	r.recommendations[rec.ID] = rec
	return nil
}

func (r *fakeRecommendationRepo) Delete(_ context.Context, id common.ID) error {
	delete(r.recommendations, id)
	return nil
}

func (r *fakeRecommendationRepo) GetByRequirement(_ context.Context, requirementID common.ID) (*recommendation.Recommendation, error) {
	for _, rec := range r.recommendations {
		if rec.RequirementID == requirementID {
			return rec, nil
		}
	}
	return nil, errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found")
}

func (r *fakeRecommendationRepo) GetByRequirementAndIndex(_ context.Context, requirementID, indexID common.ID) (*recommendation.Recommendation, error) {
	for _, rec := range r.recommendations {
		if rec.RequirementID == requirementID && rec.IndexID == indexID {
			return rec, nil
		}
	}
	return nil, errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found")
}

func (r *fakeRecommendationRepo) ListByIndex(_ context.Context, indexID common.ID, _ recommendation.ListFilter) ([]*recommendation.GroupedItem, int64, error) {
	var out []*recommendation.GroupedItem
	for _, rec := range r.recommendations {
		if rec.IndexID == indexID {
			out = append(out, &recommendation.GroupedItem{Recommendation: rec})
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRecommendationRepo) FirstByRequirementIDs(_ context.Context, requirementIDs []common.ID) (*recommendation.Recommendation, error) {
	for _, id := range requirementIDs {
		for _, rec := range r.recommendations {
			if rec.RequirementID == id {
				return rec, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeRecommendationRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, txRepo recommendation.Repository) error) error {
	return fn(ctx, r)
}

// sliceRowReader yields pre-built rows; used as the RowReader in tests.
type sliceRowReader struct {
	rows []Row
	pos  int
}

func (s *sliceRowReader) Read() (Row, bool, error) {
	if s.pos >= len(s.rows) {
		return Row{}, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

func completedIndex(id common.ID, code, indexType string) *index.Index {
	now := time.Now().UTC()
	return &index.Index{
		ID:          id,
		Code:        code,
		NameAr:      "مؤشر " + code,
		IndexType:   indexType,
		Status:      index.StatusCompleted,
		IsCompleted: true,
		CompletedAt: &now,
	}
}
