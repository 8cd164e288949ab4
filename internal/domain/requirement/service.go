package requirement

import (
	"context"

	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// Service implements requirement use cases: CRUD within an index and the
// answer review workflow.
type Service struct {
	repo      Repository
	publisher EventPublisher
	logger    logging.Logger
}

// EventPublisher emits answer workflow events, fire-and-forget.
// Satisfied by the kafka publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event common.DomainEvent) error
}

// NewService wires a requirement service.
func NewService(repo Repository, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{repo: repo, logger: logger.Named("requirement.service")}
}

// SetPublisher installs an event publisher for answer workflow events.
func (s *Service) SetPublisher(p EventPublisher) { s.publisher = p }

// CreateRequirement validates and persists a new requirement, rejecting a
// duplicate code within the index.
func (s *Service) CreateRequirement(ctx context.Context, r *Requirement) (*Requirement, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByCode(ctx, r.IndexID, r.Code); err == nil && existing != nil {
		return nil, errors.New(errors.ErrCodeRequirementAlreadyExists,
			"requirement code already exists in this index").WithDetail(r.Code)
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("requirement created",
		logging.String("requirement_id", string(r.ID)),
		logging.String("index_id", string(r.IndexID)),
		logging.String("code", r.Code))
	return r, nil
}

// GetRequirement loads one requirement by ID.
func (s *Service) GetRequirement(ctx context.Context, id common.ID) (*Requirement, error) {
	return s.repo.GetByID(ctx, id)
}

// ListRequirements returns an index's requirements matching the filter.
func (s *Service) ListRequirements(ctx context.Context, indexID common.ID, filter ListFilter) ([]*Requirement, int64, error) {
	return s.repo.List(ctx, indexID, filter)
}

// UpdateRequirement persists edits after revalidation.
func (s *Service) UpdateRequirement(ctx context.Context, r *Requirement) (*Requirement, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, r.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteRequirement removes a requirement.
func (s *Service) DeleteRequirement(ctx context.Context, id common.ID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Answer workflow
// ─────────────────────────────────────────────────────────────────────────────

// SaveAnswer stores draft answer text.
func (s *Service) SaveAnswer(ctx context.Context, id common.ID, answerAr, answerEn string) (*Requirement, error) {
	return s.applyAnswerOp(ctx, id, "save", "", func(r *Requirement) error {
		return r.SaveAnswer(answerAr, answerEn)
	})
}

// SubmitAnswer moves a drafted answer to pending_review.
func (s *Service) SubmitAnswer(ctx context.Context, id common.ID) (*Requirement, error) {
	return s.applyAnswerOp(ctx, id, "submit", EventAnswerSubmitted, (*Requirement).SubmitAnswer)
}

// ApproveAnswer moves a pending answer to approved.
func (s *Service) ApproveAnswer(ctx context.Context, id common.ID) (*Requirement, error) {
	return s.applyAnswerOp(ctx, id, "approve", EventAnswerReviewed, (*Requirement).ApproveAnswer)
}

// RejectAnswer returns a pending answer to draft.
func (s *Service) RejectAnswer(ctx context.Context, id common.ID) (*Requirement, error) {
	return s.applyAnswerOp(ctx, id, "reject", EventAnswerReviewed, (*Requirement).RejectAnswer)
}

// RequestChanges returns an approved answer to draft.
func (s *Service) RequestChanges(ctx context.Context, id common.ID) (*Requirement, error) {
	return s.applyAnswerOp(ctx, id, "request_changes", EventAnswerReviewed, (*Requirement).RequestChanges)
}

// ConfirmAnswer finalizes an approved answer.
func (s *Service) ConfirmAnswer(ctx context.Context, id common.ID) (*Requirement, error) {
	return s.applyAnswerOp(ctx, id, "confirm", EventAnswerReviewed, (*Requirement).ConfirmAnswer)
}

// applyAnswerOp runs one workflow transition: load, apply, persist, and —
// for transitions that carry an eventType — announce on the activity stream.
// Draft saves pass an empty eventType; they are too chatty to publish.
func (s *Service) applyAnswerOp(ctx context.Context, id common.ID, op, eventType string, apply func(*Requirement) error) (*Requirement, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(r); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("answer workflow transition",
		logging.String("requirement_id", string(id)),
		logging.String("operation", op),
		logging.String("answer_status", string(r.AnswerStatus)))
	if eventType != "" && s.publisher != nil {
		if perr := s.publisher.Publish(ctx, NewAnswerEvent(eventType, id, r.AnswerStatus)); perr != nil {
			s.logger.Warn("answer event publish failed",
				logging.Err(perr),
				logging.String("event_type", eventType))
		}
	}
	return r, nil
}
