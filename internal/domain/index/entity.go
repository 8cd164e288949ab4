// Package index implements the Index bounded context: the aggregate root for
// one assessment cycle, its lifecycle, and the previous-cycle link on which
// all cross-year matching depends.  The link invariants (completed previous
// cycle, same index type, no circular reference) are enforced here rather
// than in endpoint handlers.
package index

import (
	"strings"
	"time"

	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// Status is the lifecycle state of an index.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// IsValid checks if the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// allowedTransitions defines the valid next states reachable from each status.
//
//	not_started ──► in_progress ──► completed ──► archived
var allowedTransitions = map[Status][]Status{
	StatusNotStarted: {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {StatusArchived},
	// Terminal state: no outgoing transitions.
	StatusArchived: {},
}

// CanTransition reports whether the lifecycle permits moving between statuses.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Index aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// Index is one assessment cycle.  Code conventionally embeds a four-digit
// year (e.g. "ETARI-2025"); IndexType partitions indices into families that
// are never matched against each other.  PreviousIndexID is an explicit,
// admin-set link to the prior cycle.
type Index struct {
	ID   common.ID `json:"id"`
	Code string    `json:"code"`

	NameAr      string `json:"name_ar"`
	NameEn      string `json:"name_en,omitempty"`
	Description string `json:"description,omitempty"`

	IndexType      string                `json:"index_type"`
	Status         Status                `json:"status"`
	OrganizationID common.OrganizationID `json:"organization_id,omitempty"`

	TotalRequirements int `json:"total_requirements"`
	TotalAreas        int `json:"total_areas"`

	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	PreviousIndexID *common.ID `json:"previous_index_id,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewIndex constructs an Index in the not_started state.
func NewIndex(code, nameAr, indexType string) (*Index, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.InvalidParam("index code is required")
	}
	if strings.TrimSpace(nameAr) == "" {
		return nil, errors.InvalidParam("index name_ar is required")
	}
	if strings.TrimSpace(indexType) == "" {
		return nil, errors.InvalidParam("index_type is required")
	}
	if err := ValidateCodeYear(code); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Index{
		ID:        common.NewID(),
		Code:      code,
		NameAr:    nameAr,
		IndexType: indexType,
		Status:    StatusNotStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks structural invariants of the index.
func (i *Index) Validate() error {
	if i.ID == "" {
		return errors.InvalidParam("index id is required")
	}
	if strings.TrimSpace(i.Code) == "" {
		return errors.InvalidParam("index code is required")
	}
	if strings.TrimSpace(i.IndexType) == "" {
		return errors.InvalidParam("index_type is required")
	}
	if i.Status != "" && !i.Status.IsValid() {
		return errors.New(errors.ErrCodeIndexStatusInvalid, "unknown index status: "+i.Status.String())
	}
	return nil
}

// Year extracts the four-digit assessment year from the index code.
// The second return value is false when the code carries no year, in which
// case the index is ineligible for automatic previous-cycle discovery and
// relies entirely on the explicit PreviousIndexID link.
func (i *Index) Year() (int, bool) {
	return ExtractYear(i.Code)
}

// UpdateStatus moves the index through its lifecycle.
func (i *Index) UpdateStatus(to Status) error {
	if !to.IsValid() {
		return errors.New(errors.ErrCodeIndexStatusInvalid, "unknown index status: "+to.String())
	}
	if !CanTransition(i.Status, to) {
		return errors.New(errors.ErrCodeIndexStatusInvalid,
			"invalid index status transition from "+i.Status.String()+" to "+to.String())
	}
	i.Status = to
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted finalizes the assessment cycle.  Completed indices become
// eligible as previous-cycle link targets.
func (i *Index) MarkCompleted() error {
	if i.IsCompleted {
		return errors.New(errors.ErrCodeIndexAlreadyComplete, "index "+i.Code+" is already completed")
	}
	if i.Status == StatusNotStarted {
		// First activity and completion may arrive in one step for imported
		// historical cycles.
		i.Status = StatusInProgress
	}
	if err := i.UpdateStatus(StatusCompleted); err != nil {
		return err
	}
	now := time.Now().UTC()
	i.IsCompleted = true
	i.CompletedAt = &now
	return nil
}

// LinkPrevious sets the explicit previous-cycle link after enforcing the
// link invariants:
//
//  1. the previous index must be completed,
//  2. both indices must share the same index type,
//  3. the link must not create a cycle (A→B→A) or self reference.
func (i *Index) LinkPrevious(previous *Index) error {
	if previous == nil {
		return errors.New(errors.ErrCodeIndexNotFound, "previous index does not exist")
	}
	if previous.ID == i.ID {
		return errors.New(errors.ErrCodeIndexSelfLink, "index "+i.Code+" cannot be linked to itself")
	}
	if !previous.IsCompleted {
		return errors.New(errors.ErrCodeIndexNotCompleted,
			"index "+previous.Code+" must be completed before it can be linked as a previous cycle")
	}
	if previous.IndexType != i.IndexType {
		return errors.New(errors.ErrCodeIndexTypeMismatch,
			"cannot link "+previous.IndexType+" index "+previous.Code+" to "+i.IndexType+" index "+i.Code)
	}
	if previous.PreviousIndexID != nil && *previous.PreviousIndexID == i.ID {
		return errors.New(errors.ErrCodeIndexCircularLink,
			"linking "+previous.Code+" to "+i.Code+" would create a circular reference")
	}
	prevID := previous.ID
	i.PreviousIndexID = &prevID
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// UnlinkPrevious clears the previous-cycle link.
func (i *Index) UnlinkPrevious() error {
	if i.PreviousIndexID == nil {
		return errors.New(errors.ErrCodeIndexNotLinked, "index "+i.Code+" has no previous index linked")
	}
	i.PreviousIndexID = nil
	i.UpdatedAt = time.Now().UTC()
	return nil
}
