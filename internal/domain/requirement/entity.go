// Package requirement implements the Requirement bounded context: the
// aggregate root for a single assessment question, its taxonomy address
// (main area / element / sub-domain), and the answer review workflow.
// Business rules live here; persistence is handled by the repository layer.
package requirement

import (
	"strings"
	"time"

	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Answer review workflow
// ─────────────────────────────────────────────────────────────────────────────

// AnswerStatus is the review state of a requirement's answer.
type AnswerStatus string

const (
	// AnswerDraft is the initial state; the answer is editable by the owner.
	AnswerDraft AnswerStatus = "draft"

	// AnswerPendingReview means the answer was submitted and awaits a reviewer.
	AnswerPendingReview AnswerStatus = "pending_review"

	// AnswerApproved means a reviewer accepted the answer.
	AnswerApproved AnswerStatus = "approved"

	// AnswerConfirmed is the terminal state set by the index owner.
	AnswerConfirmed AnswerStatus = "confirmed"
)

// IsValid checks if the answer status is a known state.
func (s AnswerStatus) IsValid() bool {
	switch s {
	case AnswerDraft, AnswerPendingReview, AnswerApproved, AnswerConfirmed:
		return true
	default:
		return false
	}
}

func (s AnswerStatus) String() string { return string(s) }

// allowedAnswerTransitions defines the valid next states reachable from each
// answer status.  Rejection and change requests both return to draft.
//
//	draft ──► pending_review ──► approved ──► confirmed
//	  ▲             │
//	  └─────────────┘  (reject / request changes)
var allowedAnswerTransitions = map[AnswerStatus][]AnswerStatus{
	AnswerDraft:         {AnswerPendingReview},
	AnswerPendingReview: {AnswerApproved, AnswerDraft},
	AnswerApproved:      {AnswerConfirmed, AnswerDraft},
	// Terminal state: no outgoing transitions.
	AnswerConfirmed: {},
}

// CanTransitionAnswer reports whether the answer workflow permits moving from
// one status to another.
func CanTransitionAnswer(from, to AnswerStatus) bool {
	for _, next := range allowedAnswerTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Requirement aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Requirement is a single assessment question inside an index.  The triple
// (MainAreaAr, ElementAr, SubDomainAr) is its taxonomy address; ElementAr and
// SubDomainAr may be empty depending on index type.  Code is unique within
// one index but is not stable across assessment cycles and must never be used
// alone to link requirements across years.
type Requirement struct {
	ID      common.ID `json:"id"`
	IndexID common.ID `json:"index_id"`
	Code    string    `json:"code"`

	QuestionAr string `json:"question_ar"`
	QuestionEn string `json:"question_en,omitempty"`

	MainAreaAr  string `json:"main_area_ar"`
	MainAreaEn  string `json:"main_area_en,omitempty"`
	ElementAr   string `json:"element_ar,omitempty"`
	ElementEn   string `json:"element_en,omitempty"`
	SubDomainAr string `json:"sub_domain_ar,omitempty"`
	SubDomainEn string `json:"sub_domain_en,omitempty"`

	DisplayOrder int `json:"display_order"`

	AnswerAr     string       `json:"answer_ar,omitempty"`
	AnswerEn     string       `json:"answer_en,omitempty"`
	AnswerStatus AnswerStatus `json:"answer_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRequirement constructs a Requirement in the draft answer state.
func NewRequirement(indexID common.ID, code, questionAr, mainAreaAr string) (*Requirement, error) {
	if indexID == "" {
		return nil, errors.InvalidParam("index_id is required")
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.InvalidParam("requirement code is required")
	}
	if strings.TrimSpace(questionAr) == "" {
		return nil, errors.InvalidParam("question_ar is required")
	}
	now := time.Now().UTC()
	return &Requirement{
		ID:           common.NewID(),
		IndexID:      indexID,
		Code:         code,
		QuestionAr:   questionAr,
		MainAreaAr:   mainAreaAr,
		AnswerStatus: AnswerDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate checks structural invariants of the requirement.
func (r *Requirement) Validate() error {
	if r.ID == "" {
		return errors.InvalidParam("requirement id is required")
	}
	if r.IndexID == "" {
		return errors.InvalidParam("requirement index_id is required")
	}
	if strings.TrimSpace(r.Code) == "" {
		return errors.InvalidParam("requirement code is required")
	}
	if r.AnswerStatus != "" && !r.AnswerStatus.IsValid() {
		return errors.New(errors.ErrCodeAnswerTransitionInvalid,
			"unknown answer status: "+r.AnswerStatus.String())
	}
	return nil
}

// HasAnswer reports whether any answer text has been recorded.
func (r *Requirement) HasAnswer() bool {
	return strings.TrimSpace(r.AnswerAr) != "" || strings.TrimSpace(r.AnswerEn) != ""
}

// SaveAnswer records answer text while the requirement is in the draft state.
// Saving is also permitted in pending_review to support reviewer edits before
// approval.
func (r *Requirement) SaveAnswer(answerAr, answerEn string) error {
	switch r.AnswerStatus {
	case AnswerDraft, AnswerPendingReview:
	default:
		return errors.New(errors.ErrCodeAnswerTransitionInvalid,
			"answer can only be edited in draft or pending_review, current status is "+r.AnswerStatus.String())
	}
	r.AnswerAr = answerAr
	r.AnswerEn = answerEn
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// SubmitAnswer moves the answer from draft to pending_review.
func (r *Requirement) SubmitAnswer() error {
	if !r.HasAnswer() {
		return errors.New(errors.ErrCodeAnswerEmpty, "cannot submit an empty answer")
	}
	return r.transitionAnswer(AnswerPendingReview)
}

// ApproveAnswer moves the answer from pending_review to approved.
func (r *Requirement) ApproveAnswer() error {
	return r.transitionAnswer(AnswerApproved)
}

// RejectAnswer returns a pending_review answer to draft.
func (r *Requirement) RejectAnswer() error {
	if r.AnswerStatus != AnswerPendingReview {
		return errors.New(errors.ErrCodeAnswerTransitionInvalid,
			"only pending_review answers can be rejected, current status is "+r.AnswerStatus.String())
	}
	return r.transitionAnswer(AnswerDraft)
}

// RequestChanges returns an approved answer to draft for rework.
func (r *Requirement) RequestChanges() error {
	if r.AnswerStatus != AnswerApproved {
		return errors.New(errors.ErrCodeAnswerTransitionInvalid,
			"changes can only be requested on approved answers, current status is "+r.AnswerStatus.String())
	}
	return r.transitionAnswer(AnswerDraft)
}

// ConfirmAnswer moves an approved answer to the terminal confirmed state.
func (r *Requirement) ConfirmAnswer() error {
	return r.transitionAnswer(AnswerConfirmed)
}

func (r *Requirement) transitionAnswer(to AnswerStatus) error {
	if !CanTransitionAnswer(r.AnswerStatus, to) {
		return errors.New(errors.ErrCodeAnswerTransitionInvalid,
			"invalid answer transition from "+r.AnswerStatus.String()+" to "+to.String())
	}
	r.AnswerStatus = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}
