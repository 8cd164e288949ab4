// Package continuity provides the application-level services for cross-year
// continuity: the previous-year-context query and the recommendations upload
// batch. This package serves as the interface between HTTP handlers and the
// matching/mapping/requirement domain logic.
package continuity

import (
	"context"
	"time"

	"github.com/qiyas/continuity/internal/domain/index"
	"github.com/qiyas/continuity/internal/domain/mapping"
	"github.com/qiyas/continuity/internal/domain/matching"
	"github.com/qiyas/continuity/internal/domain/recommendation"
	"github.com/qiyas/continuity/internal/domain/requirement"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// Service defines the continuity application operations.
type Service interface {
	// PreviousYearContext resolves the previous-cycle context for one
	// current requirement. A nil result with a nil error means no
	// previous-year data exists (no link, no extractable year, or an
	// empty candidate cascade).
	PreviousYearContext(ctx context.Context, requirementID common.ID) (*PreviousYearContext, error)

	// UploadRecommendations runs one recommendation-assignment batch.
	UploadRecommendations(ctx context.Context, input *UploadInput) (*UploadResult, error)
}

// ContextCache caches previous-year-context responses per requirement.
// Implementations are optional; a nil cache disables caching.  Invalidation
// is driven by the index and mapping services: a previous-link or mapping
// edge change flushes the cache so stale matches never outlive the write.
type ContextCache interface {
	Get(ctx context.Context, requirementID common.ID) (*PreviousYearContext, bool)
	Set(ctx context.Context, requirementID common.ID, value *PreviousYearContext, ttl time.Duration)
	Invalidate(ctx context.Context, requirementIDs ...common.ID) error
	InvalidateAll(ctx context.Context) error
}

// EventPublisher emits assessment activity events, fire-and-forget.
type EventPublisher interface {
	Publish(ctx context.Context, event common.DomainEvent) error
}

// UploadGuard serialises upload batches per index. The redis package ships
// the distributed implementation; a nil guard disables serialisation.
type UploadGuard interface {
	TryAcquire(ctx context.Context, indexID string) (release func(), err error)
}

// Observer receives engine telemetry. The prometheus implementation lives
// in the monitoring package; a nil observer disables recording.
type Observer interface {
	MatchResolved(outcome string, confidence float64, poolSize int)
	UploadBatch(indexType string, result *UploadResult, elapsed time.Duration)
}

// ─────────────────────────────────────────────────────────────────────────────
// Response shapes
// ─────────────────────────────────────────────────────────────────────────────

// PreviousRequirement is a previous-cycle requirement with its answer.
type PreviousRequirement struct {
	ID           common.ID `json:"id"`
	Code         string    `json:"code"`
	QuestionAr   string    `json:"question_ar"`
	QuestionEn   string    `json:"question_en,omitempty"`
	AnswerAr     string    `json:"answer_ar,omitempty"`
	AnswerEn     string    `json:"answer_en,omitempty"`
	AnswerStatus string    `json:"answer_status,omitempty"`
}

// PreviousRecommendation is a previous-cycle recommendation summary.
type PreviousRecommendation struct {
	ID               common.ID `json:"id"`
	CurrentStatusAr  string    `json:"current_status_ar,omitempty"`
	CurrentStatusEn  string    `json:"current_status_en,omitempty"`
	RecommendationAr string    `json:"recommendation_ar"`
	RecommendationEn string    `json:"recommendation_en,omitempty"`
	Status           string    `json:"status"`
	AddressedComment string    `json:"addressed_comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// StandardGroup is the fallback shape when no single requirement cleared
// the confidence threshold: the whole taxonomy bucket, labeled with the
// previous cycle's (possibly mapped) sub-domain name, plus one group
// recommendation taken from the first member that has one.
type StandardGroup struct {
	SubDomainAr    string                  `json:"sub_domain_ar"`
	SubDomainEn    string                  `json:"sub_domain_en,omitempty"`
	Recommendation *PreviousRecommendation `json:"recommendation,omitempty"`
	Requirements   []*PreviousRequirement  `json:"requirements"`
}

// PreviousYearContext is the previous-year-context response: exactly one of
// MatchedRequirement or StandardGroup is populated depending on Matched.
type PreviousYearContext struct {
	Matched               bool                    `json:"matched"`
	Confidence            float64                 `json:"confidence,omitempty"`
	PreviousIndexCode     string                  `json:"previous_index_code"`
	PreviousIndexNameAr   string                  `json:"previous_index_name_ar,omitempty"`
	PreviousIndexNameEn   string                  `json:"previous_index_name_en,omitempty"`
	MatchedRequirement    *PreviousRequirement    `json:"matched_requirement,omitempty"`
	MatchedRecommendation *PreviousRecommendation `json:"matched_recommendation,omitempty"`
	StandardGroup         *StandardGroup          `json:"standard_group,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Implementation
// ─────────────────────────────────────────────────────────────────────────────

const contextCacheTTL = 10 * time.Minute

type serviceImpl struct {
	indexSvc        *index.Service
	requirementRepo requirement.Repository
	mappingRepo     mapping.Repository
	recRepo         recommendation.Repository
	matcher         *matching.Matcher
	assigner        *Assigner
	cache           ContextCache
	publisher       EventPublisher
	observer        Observer
	guard           UploadGuard
	logger          logging.Logger
}

// Option customises the service beyond its required collaborators.
type Option func(*serviceImpl)

// WithUploadGuard installs a per-index upload lock.
func WithUploadGuard(guard UploadGuard) Option {
	return func(s *serviceImpl) { s.guard = guard }
}

// NewService wires the continuity application service. cache, publisher,
// and observer may be nil.
func NewService(
	indexSvc *index.Service,
	requirementRepo requirement.Repository,
	mappingRepo mapping.Repository,
	recRepo recommendation.Repository,
	matcher *matching.Matcher,
	assigner *Assigner,
	cache ContextCache,
	publisher EventPublisher,
	observer Observer,
	logger logging.Logger,
	opts ...Option,
) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		indexSvc:        indexSvc,
		requirementRepo: requirementRepo,
		mappingRepo:     mappingRepo,
		recRepo:         recRepo,
		matcher:         matcher,
		assigner:        assigner,
		cache:           cache,
		publisher:       publisher,
		observer:        observer,
		logger:          logger.Named("continuity.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) PreviousYearContext(ctx context.Context, requirementID common.ID) (*PreviousYearContext, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, requirementID); ok {
			return cached, nil
		}
	}

	current, err := s.requirementRepo.GetByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	currentIndex, err := s.indexSvc.GetIndex(ctx, current.IndexID)
	if err != nil {
		return nil, err
	}
	previousIndex, err := s.indexSvc.ResolvePrevious(ctx, currentIndex)
	if err != nil {
		return nil, err
	}
	if previousIndex == nil {
		// No explicit link and no year signal in the code.
		return nil, nil
	}

	edges, err := s.mappingRepo.ListByPair(ctx, currentIndex.ID, previousIndex.ID)
	if err != nil {
		return nil, err
	}
	resolved := mapping.NewMapper(edges).ToPrevious(mapping.Triple{
		MainArea:  current.MainAreaAr,
		Element:   current.ElementAr,
		SubDomain: current.SubDomainAr,
	})

	previousReqs, err := s.requirementRepo.ListByIndex(ctx, previousIndex.ID)
	if err != nil {
		return nil, err
	}

	result := s.matcher.Match(current.QuestionAr, resolved, previousReqs)
	if s.observer != nil {
		s.observer.MatchResolved(string(result.Outcome), result.Confidence, len(result.Group))
	}

	if !result.Matched() && len(result.Group) == 0 {
		// Empty cascade: valid "no previous-year data".
		return nil, nil
	}

	response := &PreviousYearContext{
		Matched:             result.Matched(),
		PreviousIndexCode:   previousIndex.Code,
		PreviousIndexNameAr: previousIndex.NameAr,
		PreviousIndexNameEn: previousIndex.NameEn,
	}

	if result.Matched() {
		response.Confidence = result.Confidence
		response.MatchedRequirement = toPreviousRequirement(result.Best)
		rec, err := s.recRepo.GetByRequirementAndIndex(ctx, result.Best.ID, previousIndex.ID)
		switch {
		case err == nil:
			response.MatchedRecommendation = toPreviousRecommendation(rec)
		case !errors.IsNotFound(err):
			// A missing recommendation is normal; a failing lookup is not.
			return nil, err
		}
	} else {
		group := &StandardGroup{
			SubDomainAr: resolved.SubDomain,
			SubDomainEn: current.SubDomainEn,
		}
		ids := make([]common.ID, 0, len(result.Group))
		for _, member := range result.Group {
			group.Requirements = append(group.Requirements, toPreviousRequirement(member))
			ids = append(ids, member.ID)
		}
		rec, err := s.recRepo.FirstByRequirementIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			group.Recommendation = toPreviousRecommendation(rec)
		}
		response.StandardGroup = group
	}

	if s.cache != nil {
		s.cache.Set(ctx, requirementID, response, contextCacheTTL)
	}
	s.logger.Debug("previous-year context resolved",
		logging.String("requirement_id", string(requirementID)),
		logging.String("previous_index", previousIndex.Code),
		logging.Bool("matched", response.Matched))
	return response, nil
}

func (s *serviceImpl) UploadRecommendations(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	if s.guard != nil {
		release, err := s.guard.TryAcquire(ctx, string(input.IndexID))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	start := time.Now()
	result, err := s.assigner.Assign(ctx, input)
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.UploadBatch(input.IndexType, result, time.Since(start))
	}
	if s.publisher != nil {
		event := NewBatchProcessedEvent(input.IndexID, result)
		if perr := s.publisher.Publish(ctx, event); perr != nil {
			s.logger.Warn("batch event publish failed", logging.Err(perr))
		}
	}
	return result, nil
}

func toPreviousRequirement(r *requirement.Requirement) *PreviousRequirement {
	return &PreviousRequirement{
		ID:           r.ID,
		Code:         r.Code,
		QuestionAr:   r.QuestionAr,
		QuestionEn:   r.QuestionEn,
		AnswerAr:     r.AnswerAr,
		AnswerEn:     r.AnswerEn,
		AnswerStatus: string(r.AnswerStatus),
	}
}

func toPreviousRecommendation(r *recommendation.Recommendation) *PreviousRecommendation {
	if r == nil {
		return nil
	}
	return &PreviousRecommendation{
		ID:               r.ID,
		CurrentStatusAr:  r.CurrentStatusAr,
		CurrentStatusEn:  r.CurrentStatusEn,
		RecommendationAr: r.RecommendationAr,
		RecommendationEn: r.RecommendationEn,
		Status:           string(r.Status),
		AddressedComment: r.AddressedComment,
		CreatedAt:        r.CreatedAt,
	}
}
