package recommendation

import (
	"context"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// Service implements manual recommendation use cases.  Bulk creation from
// uploaded sheets lives in the continuity application layer; this service
// covers the single-row CRUD and workflow surface.
type Service struct {
	repo   Repository
	logger logging.Logger
}

// NewService wires a recommendation service.
func NewService(repo Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{repo: repo, logger: logger.Named("recommendation.service")}
}

// Create adds a recommendation for a requirement, updating the existing one
// in place when the (requirement, index) pair is already taken.
func (s *Service) Create(ctx context.Context, requirementID, indexID common.ID, currentStatus, text string) (*Recommendation, error) {
	existing, err := s.repo.GetByRequirementAndIndex(ctx, requirementID, indexID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		if err := existing.ApplyText(currentStatus, text); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	rec, err := New(requirementID, indexID, currentStatus, text)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("recommendation created",
		logging.String("recommendation_id", string(rec.ID)),
		logging.String("requirement_id", string(requirementID)))
	return rec, nil
}

// Get loads one recommendation by ID.
func (s *Service) Get(ctx context.Context, id common.ID) (*Recommendation, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByRequirement loads the recommendation attached to a requirement.
func (s *Service) GetByRequirement(ctx context.Context, requirementID common.ID) (*Recommendation, error) {
	return s.repo.GetByRequirement(ctx, requirementID)
}

// ListByIndex returns an index's recommendations with taxonomy labels.
func (s *Service) ListByIndex(ctx context.Context, indexID common.ID, filter ListFilter) ([]*GroupedItem, int64, error) {
	return s.repo.ListByIndex(ctx, indexID, filter)
}

// Start moves a recommendation to in_progress.
func (s *Service) Start(ctx context.Context, id common.ID) (*Recommendation, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rec.Start(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkAddressed closes a recommendation with the acting user's comment.
func (s *Service) MarkAddressed(ctx context.Context, id common.ID, by common.UserID, comment string) (*Recommendation, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rec.MarkAddressed(by, comment); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("recommendation addressed",
		logging.String("recommendation_id", string(id)),
		logging.String("addressed_by", string(by)))
	return rec, nil
}

// Delete removes a recommendation.
func (s *Service) Delete(ctx context.Context, id common.ID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
