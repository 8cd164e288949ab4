// Package mapping implements the SectionMapping bounded context: directed
// edges that reconcile taxonomy-label drift between two assessment cycles,
// and the resolution cascade that translates a current-cycle taxonomy triple
// into the previous cycle's vocabulary.
package mapping

import (
	"strings"
	"time"

	"github.com/qiyas/continuity/pkg/errors"
	"github.com/qiyas/continuity/pkg/types/common"
)

// Level identifies the granularity of a section mapping, distinguished by
// which trailing fields are populated.
type Level string

const (
	LevelMainArea  Level = "main_area"
	LevelElement   Level = "element"
	LevelSubDomain Level = "sub_domain"
)

// Triple is a taxonomy address at up to three levels.  Element and SubDomain
// may be empty depending on index type.
type Triple struct {
	MainArea  string `json:"main_area"`
	Element   string `json:"element,omitempty"`
	SubDomain string `json:"sub_domain,omitempty"`
}

// IsZero reports whether every level of the triple is empty.
func (t Triple) IsZero() bool {
	return t.MainArea == "" && t.Element == "" && t.SubDomain == ""
}

// Key returns the canonical identity of the triple: "main|element|sub".
func (t Triple) Key() string {
	return t.MainArea + "|" + t.Element + "|" + t.SubDomain
}

// ─────────────────────────────────────────────────────────────────────────────
// SectionMapping aggregate root
// ─────────────────────────────────────────────────────────────────────────────

// SectionMapping is a directed edge from a previous-index taxonomy label
// ("from" fields) to its current-index equivalent ("to" fields), scoped to
// one (current_index_id, previous_index_id) pair.  The granularity is
// distinguished by which trailing fields are empty: a main-area-only mapping
// leaves element and sub-domain blank on both sides, an element-level mapping
// leaves only the sub-domain blank, and a full mapping populates all three.
//
// Mappings are long-lived reference data edited by index owners; an index
// pair with zero mappings falls back to identity matching.
type SectionMapping struct {
	ID common.ID `json:"id"`

	CurrentIndexID  common.ID `json:"current_index_id"`
	PreviousIndexID common.ID `json:"previous_index_id"`

	MainAreaFromAr string `json:"main_area_from_ar"`
	MainAreaFromEn string `json:"main_area_from_en,omitempty"`
	MainAreaToAr   string `json:"main_area_to_ar"`
	MainAreaToEn   string `json:"main_area_to_en,omitempty"`

	ElementFromAr string `json:"element_from_ar,omitempty"`
	ElementFromEn string `json:"element_from_en,omitempty"`
	ElementToAr   string `json:"element_to_ar,omitempty"`
	ElementToEn   string `json:"element_to_en,omitempty"`

	SubDomainFromAr string `json:"sub_domain_from_ar,omitempty"`
	SubDomainFromEn string `json:"sub_domain_from_en,omitempty"`
	SubDomainToAr   string `json:"sub_domain_to_ar,omitempty"`
	SubDomainToEn   string `json:"sub_domain_to_en,omitempty"`

	CreatedBy common.UserID `json:"created_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewSectionMapping constructs a SectionMapping between two indices.
func NewSectionMapping(currentIndexID, previousIndexID common.ID) (*SectionMapping, error) {
	if currentIndexID == "" || previousIndexID == "" {
		return nil, errors.New(errors.ErrCodeMappingPairInvalid,
			"both current_index_id and previous_index_id are required")
	}
	if currentIndexID == previousIndexID {
		return nil, errors.New(errors.ErrCodeMappingPairInvalid,
			"current and previous index must differ")
	}
	now := time.Now().UTC()
	return &SectionMapping{
		ID:              common.NewID(),
		CurrentIndexID:  currentIndexID,
		PreviousIndexID: previousIndexID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Validate checks structural invariants of the mapping: both sides must be
// populated down to the same level, with no gaps (a sub-domain mapping
// requires a main area; an element may be blank only when the index family
// has no element level, in which case both element fields stay empty).
func (m *SectionMapping) Validate() error {
	if m.CurrentIndexID == "" || m.PreviousIndexID == "" {
		return errors.New(errors.ErrCodeMappingPairInvalid,
			"both current_index_id and previous_index_id are required")
	}
	if strings.TrimSpace(m.MainAreaFromAr) == "" || strings.TrimSpace(m.MainAreaToAr) == "" {
		return errors.New(errors.ErrCodeMappingLevelInvalid,
			"main_area must be populated on both sides")
	}
	if (m.ElementFromAr == "") != (m.ElementToAr == "") {
		return errors.New(errors.ErrCodeMappingLevelInvalid,
			"element must be populated on both sides or neither")
	}
	if (m.SubDomainFromAr == "") != (m.SubDomainToAr == "") {
		return errors.New(errors.ErrCodeMappingLevelInvalid,
			"sub_domain must be populated on both sides or neither")
	}
	return nil
}

// Level reports the granularity of the mapping.
func (m *SectionMapping) Level() Level {
	switch {
	case m.SubDomainToAr != "":
		return LevelSubDomain
	case m.ElementToAr != "":
		return LevelElement
	default:
		return LevelMainArea
	}
}

// FromTriple returns the previous-index side of the edge.
func (m *SectionMapping) FromTriple() Triple {
	return Triple{
		MainArea:  m.MainAreaFromAr,
		Element:   m.ElementFromAr,
		SubDomain: m.SubDomainFromAr,
	}
}

// ToTriple returns the current-index side of the edge.
func (m *SectionMapping) ToTriple() Triple {
	return Triple{
		MainArea:  m.MainAreaToAr,
		Element:   m.ElementToAr,
		SubDomain: m.SubDomainToAr,
	}
}
