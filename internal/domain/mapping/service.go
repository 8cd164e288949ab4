package mapping

import (
	"context"
	"sort"
	"time"

	"github.com/qiyas/continuity/internal/domain/requirement"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// Scorer computes a normalized-text similarity ratio in [0, 1].  Satisfied
// by the matching package's similarity scorer; declared here to keep this
// package free of a dependency on it.
type Scorer interface {
	Ratio(a, b string) float64
}

// SectionLister exposes the distinct taxonomy sections of an index.
// Satisfied by the requirement repository.
type SectionLister interface {
	DistinctSections(ctx context.Context, indexID common.ID) ([]requirement.Section, error)
}

// ContextInvalidator drops cached previous-year contexts.  Mapping edges
// feed the match cascade, so every write here must flush contexts computed
// against the old edge set.  Satisfied by the redis context cache; nil
// disables invalidation.
type ContextInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

func tripleOf(sec requirement.Section) Triple {
	return Triple{
		MainArea:  sec.MainAreaAr,
		Element:   sec.ElementAr,
		SubDomain: sec.SubDomainAr,
	}
}

// defaultSuggestThreshold is the minimum similarity for an automatic
// mapping suggestion.  Deliberately looser than the requirement-match
// threshold: suggestions are reviewed by a human before being saved.
const defaultSuggestThreshold = 0.60

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Service implements section-mapping use cases: CRUD, bulk upsert, coverage
// comparison between two indices, and similarity-based suggestions.
type Service struct {
	repo             Repository
	sections         SectionLister
	scorer           Scorer
	invalidator      ContextInvalidator
	suggestThreshold float64
	logger           logging.Logger
}

// NewService wires a mapping service.
func NewService(repo Repository, sections SectionLister, scorer Scorer, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		repo:             repo,
		sections:         sections,
		scorer:           scorer,
		suggestThreshold: defaultSuggestThreshold,
		logger:           logger.Named("mapping.service"),
	}
}

// SetSuggestThreshold overrides the suggestion similarity floor.  Values
// outside (0, 1] are ignored.
func (s *Service) SetSuggestThreshold(v float64) {
	if v > 0 && v <= 1 {
		s.suggestThreshold = v
	}
}

// SetInvalidator installs the previous-year-context invalidator.
func (s *Service) SetInvalidator(inv ContextInvalidator) { s.invalidator = inv }

// invalidateContexts flushes cached previous-year contexts after a mapping
// write.  Failures are logged, not returned: the write already succeeded and
// the cache TTL bounds the staleness window.
func (s *Service) invalidateContexts(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateAll(ctx); err != nil {
		s.logger.Warn("previous-context invalidation failed", logging.Err(err))
	}
}

// CreateMapping validates and persists a new mapping edge, rejecting a
// duplicate previous-side triple within the same index pair.
func (s *Service) CreateMapping(ctx context.Context, m *SectionMapping) (*SectionMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByFromTriple(ctx, m.CurrentIndexID, m.PreviousIndexID, m.FromTriple())
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New(errors.ErrCodeMappingAlreadyExists,
			"a mapping from this section already exists for the index pair").
			WithDetail("existing_id: " + string(existing.ID))
	}
	if m.ID == "" {
		m.ID = common.NewID()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("section mapping created",
		logging.String("mapping_id", string(m.ID)),
		logging.String("level", string(m.Level())))
	s.invalidateContexts(ctx)
	return m, nil
}

// GetMapping loads one mapping by ID.
func (s *Service) GetMapping(ctx context.Context, id common.ID) (*SectionMapping, error) {
	return s.repo.GetByID(ctx, id)
}

// ListMappings returns mappings matching the filter.
func (s *Service) ListMappings(ctx context.Context, filter ListFilter) ([]*SectionMapping, int64, error) {
	return s.repo.List(ctx, filter)
}

// UpdateMapping persists edits to an existing mapping after revalidation.
func (s *Service) UpdateMapping(ctx context.Context, m *SectionMapping) (*SectionMapping, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = current.CreatedAt
	m.CreatedBy = current.CreatedBy
	m.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.invalidateContexts(ctx)
	return m, nil
}

// DeleteMapping removes a mapping edge.
func (s *Service) DeleteMapping(ctx context.Context, id common.ID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateContexts(ctx)
	return nil
}

// BulkResult summarizes a bulk upsert.
type BulkResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// BulkUpsert creates or updates a batch of mappings in a single call.  Rows
// whose previous-side triple already exists within the pair update that
// edge's current-side labels in place; validation failures are counted, not
// fatal, so one bad row does not abort the batch.
func (s *Service) BulkUpsert(ctx context.Context, mappings []*SectionMapping) (*BulkResult, error) {
	result := &BulkResult{}
	for _, m := range mappings {
		if err := m.Validate(); err != nil {
			s.logger.Warn("bulk mapping row rejected", logging.Err(err))
			result.Failed++
			continue
		}
		existing, err := s.repo.FindByFromTriple(ctx, m.CurrentIndexID, m.PreviousIndexID, m.FromTriple())
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			existing.MainAreaToAr = m.MainAreaToAr
			existing.MainAreaToEn = m.MainAreaToEn
			existing.ElementToAr = m.ElementToAr
			existing.ElementToEn = m.ElementToEn
			existing.SubDomainToAr = m.SubDomainToAr
			existing.SubDomainToEn = m.SubDomainToEn
			existing.UpdatedAt = time.Now().UTC()
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
			result.Updated++
			continue
		}
		if m.ID == "" {
			m.ID = common.NewID()
		}
		now := time.Now().UTC()
		m.CreatedAt = now
		m.UpdatedAt = now
		if err := s.repo.Create(ctx, m); err != nil {
			return nil, err
		}
		result.Created++
	}
	s.logger.Info("bulk mapping upsert finished",
		logging.Int("created", result.Created),
		logging.Int("updated", result.Updated),
		logging.Int("failed", result.Failed))
	if result.Created > 0 || result.Updated > 0 {
		s.invalidateContexts(ctx)
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Compare and suggest
// ─────────────────────────────────────────────────────────────────────────────

// SectionCoverage reports one current-index section and whether a mapping
// edge (at any level) or an identical previous-index section covers it.
type SectionCoverage struct {
	Section   Triple    `json:"section"`
	Covered   bool      `json:"covered"`
	Via       string    `json:"via,omitempty"` // "mapping" or "identity"
	Previous  Triple    `json:"previous,omitempty"`
	MappingID common.ID `json:"mapping_id,omitempty"`
}

// PreviousSectionCoverage reports one previous-index section and whether any
// current section resolves to it, through a mapping edge or by identical
// naming.  Unmapped entries are the old sections a manual-mapping pass still
// needs to connect.
type PreviousSectionCoverage struct {
	Section   Triple    `json:"section"`
	Mapped    bool      `json:"mapped"`
	Via       string    `json:"via,omitempty"` // "mapping" or "identity"
	MappingID common.ID `json:"mapping_id,omitempty"`
}

// Comparison is the result of comparing two indices' taxonomies.  Both sides
// are enumerated: Sections covers the current index, PreviousSections the
// previous one.
type Comparison struct {
	CurrentIndexID   common.ID                 `json:"current_index_id"`
	PreviousIndexID  common.ID                 `json:"previous_index_id"`
	Sections         []SectionCoverage         `json:"sections"`
	TotalSections    int                       `json:"total_sections"`
	Covered          int                       `json:"covered"`
	Uncovered        int                       `json:"uncovered"`
	PreviousSections []PreviousSectionCoverage `json:"previous_sections"`
	PreviousUnmapped int                       `json:"previous_unmapped"`
}

// Compare lists both indices' distinct sections.  Per current section it
// reports whether the previous index carries an identically named section or
// a mapping edge resolves it; uncovered ones are the sections a matching run
// will treat as having no prior-year counterpart.  Per previous section it
// reports whether any current section reaches it, so the mapping UI can show
// which old sections remain unconnected.
func (s *Service) Compare(ctx context.Context, currentIndexID, previousIndexID common.ID) (*Comparison, error) {
	currentSections, err := s.sections.DistinctSections(ctx, currentIndexID)
	if err != nil {
		return nil, err
	}
	previousSections, err := s.sections.DistinctSections(ctx, previousIndexID)
	if err != nil {
		return nil, err
	}
	edges, err := s.repo.ListByPair(ctx, currentIndexID, previousIndexID)
	if err != nil {
		return nil, err
	}
	mapper := NewMapper(edges)

	prevKeys := make(map[string]bool, len(previousSections))
	for _, p := range previousSections {
		prevKeys[tripleOf(p).Key()] = true
	}

	cmp := &Comparison{
		CurrentIndexID:  currentIndexID,
		PreviousIndexID: previousIndexID,
		TotalSections:   len(currentSections),
	}
	reached := make(map[string]SectionCoverage, len(currentSections))
	for _, rawSec := range currentSections {
		sec := tripleOf(rawSec)
		cov := SectionCoverage{Section: sec}
		mapped, edge := mapper.Resolve(sec)
		switch {
		case edge != nil && prevKeys[mapped.Key()]:
			cov.Covered = true
			cov.Via = "mapping"
			cov.Previous = mapped
			cov.MappingID = edge.ID
		case prevKeys[sec.Key()]:
			cov.Covered = true
			cov.Via = "identity"
			cov.Previous = sec
		}
		if cov.Covered {
			cmp.Covered++
			if _, seen := reached[cov.Previous.Key()]; !seen {
				reached[cov.Previous.Key()] = cov
			}
		} else {
			cmp.Uncovered++
		}
		cmp.Sections = append(cmp.Sections, cov)
	}

	for _, rawPrev := range previousSections {
		prev := tripleOf(rawPrev)
		pc := PreviousSectionCoverage{Section: prev}
		if cov, ok := reached[prev.Key()]; ok {
			pc.Mapped = true
			pc.Via = cov.Via
			pc.MappingID = cov.MappingID
		} else {
			cmp.PreviousUnmapped++
		}
		cmp.PreviousSections = append(cmp.PreviousSections, pc)
	}
	return cmp, nil
}

// Suggestion pairs an uncovered current section with its most similar
// previous section.
type Suggestion struct {
	Current    Triple  `json:"current"`
	Previous   Triple  `json:"previous"`
	Similarity float64 `json:"similarity"`
	Level      Level   `json:"level"`
}

// Suggest proposes mapping edges for current sections the previous index
// does not cover, ranked by similarity of the deepest populated label.
// Suggestions below the suggestion threshold are omitted.
func (s *Service) Suggest(ctx context.Context, currentIndexID, previousIndexID common.ID) ([]Suggestion, error) {
	cmp, err := s.Compare(ctx, currentIndexID, previousIndexID)
	if err != nil {
		return nil, err
	}
	previousSections, err := s.sections.DistinctSections(ctx, previousIndexID)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	for _, cov := range cmp.Sections {
		if cov.Covered {
			continue
		}
		curLabel, level := deepestLabel(cov.Section)
		best := Suggestion{Current: cov.Section, Level: level}
		for _, rawPrev := range previousSections {
			prev := tripleOf(rawPrev)
			prevLabel, prevLevel := deepestLabel(prev)
			if prevLevel != level {
				continue
			}
			if ratio := s.scorer.Ratio(curLabel, prevLabel); ratio > best.Similarity {
				best.Similarity = ratio
				best.Previous = prev
			}
		}
		if best.Similarity >= s.suggestThreshold {
			suggestions = append(suggestions, best)
		}
	}
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Similarity > suggestions[j].Similarity
	})
	return suggestions, nil
}

func deepestLabel(t Triple) (string, Level) {
	switch {
	case t.SubDomain != "":
		return t.SubDomain, LevelSubDomain
	case t.Element != "":
		return t.Element, LevelElement
	default:
		return t.MainArea, LevelMainArea
	}
}
