// Package recommendation implements the Recommendation bounded context:
// evaluator feedback attached to requirements, created either manually or
// by the spreadsheet upload flow, with at most one recommendation per
// (requirement, index) pair.
package recommendation

import (
	"strings"
	"time"

	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// Status tracks how far a recommendation has been acted on.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusAddressed  Status = "addressed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusAddressed:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// allowedTransitions: addressed is terminal and can be reached directly
// from pending or through in_progress.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusAddressed},
	StatusInProgress: {StatusAddressed},
	StatusAddressed:  {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Recommendation aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Recommendation is evaluator feedback for one requirement within one index.
// The (RequirementID, IndexID) pair is unique; re-applying feedback to an
// existing pair updates the text fields in place instead of duplicating.
type Recommendation struct {
	ID common.ID `json:"id"`

	RequirementID common.ID `json:"requirement_id"`
	IndexID       common.ID `json:"index_id"`

	CurrentStatusAr  string `json:"current_status_ar,omitempty"`
	CurrentStatusEn  string `json:"current_status_en,omitempty"`
	RecommendationAr string `json:"recommendation_ar"`
	RecommendationEn string `json:"recommendation_en,omitempty"`

	Status           Status         `json:"status"`
	AddressedComment string         `json:"addressed_comment,omitempty"`
	AddressedBy      *common.UserID `json:"addressed_by,omitempty"`
	AddressedAt      *time.Time     `json:"addressed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a pending recommendation for a (requirement, index) pair.
// IDs take the form "rec_<12 hex>".
func New(requirementID, indexID common.ID, currentStatus, text string) (*Recommendation, error) {
	if requirementID == "" || indexID == "" {
		return nil, errors.InvalidParam("requirement_id and index_id are required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeRecommendationTextEmpty,
			"recommendation text is required")
	}
	now := time.Now().UTC()
	return &Recommendation{
		ID:               common.ID(common.GenerateID("rec")),
		RequirementID:    requirementID,
		IndexID:          indexID,
		CurrentStatusAr:  strings.TrimSpace(currentStatus),
		RecommendationAr: strings.TrimSpace(text),
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ApplyText overwrites the status and recommendation text, used when an
// upload re-targets an existing (requirement, index) pair.  The workflow
// status is left untouched.
func (r *Recommendation) ApplyText(currentStatus, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New(errors.ErrCodeRecommendationTextEmpty,
			"recommendation text is required")
	}
	r.CurrentStatusAr = strings.TrimSpace(currentStatus)
	r.RecommendationAr = strings.TrimSpace(text)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Start moves a pending recommendation to in_progress.
func (r *Recommendation) Start() error {
	return r.transition(StatusInProgress)
}

// MarkAddressed closes the recommendation with the acting user's comment.
func (r *Recommendation) MarkAddressed(by common.UserID, comment string) error {
	if err := r.transition(StatusAddressed); err != nil {
		return err
	}
	now := time.Now().UTC()
	r.AddressedComment = comment
	r.AddressedBy = &by
	r.AddressedAt = &now
	return nil
}

func (r *Recommendation) transition(to Status) error {
	if !CanTransition(r.Status, to) {
		return errors.New(errors.ErrCodeRecommendationStatusInvalid,
			"invalid recommendation status transition").
			WithDetail(string(r.Status) + " -> " + string(to))
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}
