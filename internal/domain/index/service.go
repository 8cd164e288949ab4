package index

import (
	"context"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Service — index domain service
// ─────────────────────────────────────────────────────────────────────────────

// Service orchestrates index domain operations by coordinating the Index
// aggregate and the Repository port.
//
// Domain logic (lifecycle and link invariants) lives in the aggregate.
// Service methods are intentionally thin: they retrieve aggregates, invoke
// domain logic, and persist the result.
//
// Service is consumed by:
//   - internal/application/continuity   (previous-cycle resolution)
//   - internal/interfaces/http/handlers (REST API handlers)
type Service struct {
	repo        Repository
	publisher   EventPublisher
	invalidator ContextInvalidator
	logger      logging.Logger
}

// EventPublisher emits index lifecycle events, fire-and-forget.
// Satisfied by the kafka publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event common.DomainEvent) error
}

// ContextInvalidator drops cached previous-year contexts.  Satisfied by the
// redis context cache; a nil invalidator disables invalidation.
type ContextInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// NewService creates a new index domain Service with the required dependencies.
func NewService(repo Repository, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// SetPublisher installs an event publisher for lifecycle events.
func (s *Service) SetPublisher(p EventPublisher) { s.publisher = p }

// SetInvalidator installs the previous-year-context invalidator.  Link
// changes reroute previous-cycle resolution, so cached contexts computed
// against the old link must not survive them.
func (s *Service) SetInvalidator(inv ContextInvalidator) { s.invalidator = inv }

func (s *Service) publish(ctx context.Context, event common.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("index event publish failed",
			logging.Err(err),
			logging.String("event_type", event.EventType()))
	}
}

func (s *Service) invalidateContexts(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateAll(ctx); err != nil {
		s.logger.Warn("previous-context invalidation failed", logging.Err(err))
	}
}

// CreateIndex creates a new Index aggregate and persists it.
func (s *Service) CreateIndex(ctx context.Context, code, nameAr, indexType string) (*Index, error) {
	s.logger.Info("creating index",
		logging.String("code", code),
		logging.String("index_type", indexType))

	if existing, err := s.repo.GetByCode(ctx, code); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.ErrCodeIndexAlreadyExists, "index with code "+code+" already exists")
	}

	idx, err := NewIndex(code, nameAr, indexType)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInvalidParam, "invalid index parameters")
	}

	if err = s.repo.Create(ctx, idx); err != nil {
		s.logger.Error("failed to save index",
			logging.Err(err),
			logging.String("code", code))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist index")
	}
	return idx, nil
}

// GetIndex retrieves an Index aggregate by its platform-internal UUID.
// Returns ErrCodeIndexNotFound when the index does not exist.
func (s *Service) GetIndex(ctx context.Context, id common.ID) (*Index, error) {
	return s.repo.GetByID(ctx, id)
}

// GetIndexByCode retrieves an Index aggregate by its code (e.g. "ETARI-2025").
func (s *Service) GetIndexByCode(ctx context.Context, code string) (*Index, error) {
	if code == "" {
		return nil, pkgerrors.InvalidParam("index code must not be empty")
	}
	return s.repo.GetByCode(ctx, code)
}

// ListIndices delegates a filtered listing to the repository.
func (s *Service) ListIndices(ctx context.Context, filter ListFilter) ([]*Index, int64, error) {
	return s.repo.List(ctx, filter)
}

// ListCompleted returns completed indices of one family, newest first.
func (s *Service) ListCompleted(ctx context.Context, indexType string) ([]*Index, error) {
	if indexType == "" {
		return nil, pkgerrors.InvalidParam("index_type must not be empty")
	}
	return s.repo.ListCompletedByType(ctx, indexType)
}

// MarkCompleted finalizes an assessment cycle, making the index eligible as a
// previous-cycle link target.
func (s *Service) MarkCompleted(ctx context.Context, id common.ID) (*Index, error) {
	idx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = idx.MarkCompleted(); err != nil {
		return nil, err
	}
	if err = s.repo.Update(ctx, idx); err != nil {
		s.logger.Error("failed to mark index completed",
			logging.Err(err),
			logging.String("index_id", string(id)))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist index completion")
	}
	s.logger.Info("index completed", logging.String("code", idx.Code))
	s.publish(ctx, NewCompletedEvent(idx.ID, idx.Code))
	return idx, nil
}

// LinkPrevious links an index to its previous cycle after enforcing the link
// invariants on the aggregate.
func (s *Service) LinkPrevious(ctx context.Context, id, previousID common.ID) (*Index, error) {
	idx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, err := s.repo.GetByID(ctx, previousID)
	if err != nil {
		return nil, err
	}
	if err = idx.LinkPrevious(prev); err != nil {
		return nil, err
	}
	if err = s.repo.Update(ctx, idx); err != nil {
		s.logger.Error("failed to link previous index",
			logging.Err(err),
			logging.String("index_id", string(id)),
			logging.String("previous_index_id", string(previousID)))
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist previous-index link")
	}
	s.logger.Info("previous index linked",
		logging.String("code", idx.Code),
		logging.String("previous_code", prev.Code))
	s.publish(ctx, NewLinkedEvent(idx.ID, prev.ID))
	s.invalidateContexts(ctx)
	return idx, nil
}

// UnlinkPrevious clears an index's previous-cycle link.
func (s *Service) UnlinkPrevious(ctx context.Context, id common.ID) (*Index, error) {
	idx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = idx.UnlinkPrevious(); err != nil {
		return nil, err
	}
	if err = s.repo.Update(ctx, idx); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeDatabaseError, "failed to persist previous-index unlink")
	}
	s.invalidateContexts(ctx)
	return idx, nil
}

// ResolvePrevious finds the previous cycle for an index.  The explicit
// PreviousIndexID link wins; otherwise the year embedded in the code drives a
// lookup by naming convention.  A nil result with a nil error means no
// previous cycle is resolvable, which callers treat as "no previous-year
// data" rather than an error.
func (s *Service) ResolvePrevious(ctx context.Context, idx *Index) (*Index, error) {
	if idx.PreviousIndexID != nil {
		prev, err := s.repo.GetByID(ctx, *idx.PreviousIndexID)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				// Stale link; fall through to year-based discovery.
				s.logger.Warn("previous index link is stale",
					logging.String("index_id", string(idx.ID)),
					logging.String("previous_index_id", string(*idx.PreviousIndexID)))
			} else {
				return nil, err
			}
		} else {
			return prev, nil
		}
	}

	year, ok := idx.Year()
	if !ok {
		return nil, nil
	}
	prevCode := PreviousYearCode(idx.Code, year)
	prev, err := s.repo.GetByCode(ctx, prevCode)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if prev.IndexType != idx.IndexType {
		// Families are never matched against each other, even when the
		// naming convention collides.
		return nil, nil
	}
	return prev, nil
}
