package requirement

import (
	"context"

	"github.com/qiyas/continuity/pkg/types/common"
)

// ListFilter defines listing criteria for requirements within an index.
type ListFilter struct {
	MainAreaAr   string
	ElementAr    string
	SubDomainAr  string
	AnswerStatus AnswerStatus
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Repository defines the persistence contract for the requirement domain.
type Repository interface {
	Create(ctx context.Context, r *Requirement) error
	GetByID(ctx context.Context, id common.ID) (*Requirement, error)
	GetByCode(ctx context.Context, indexID common.ID, code string) (*Requirement, error)
	Update(ctx context.Context, r *Requirement) error
	Delete(ctx context.Context, id common.ID) error

	// ListByIndex returns every requirement of one index ordered by
	// display_order.  Matching operations load the full set; index sizes are
	// bounded (typically a few hundred rows).
	ListByIndex(ctx context.Context, indexID common.ID) ([]*Requirement, error)

	List(ctx context.Context, indexID common.ID, filter ListFilter) ([]*Requirement, int64, error)

	// DistinctSections returns the distinct taxonomy triples of an index,
	// used by the section-mapping comparison and autocomplete endpoints.
	DistinctSections(ctx context.Context, indexID common.ID) ([]Section, error)

	CountByIndex(ctx context.Context, indexID common.ID) (int64, error)
}

// Section is a distinct taxonomy triple observed in an index.
type Section struct {
	MainAreaAr  string `json:"main_area_ar"`
	MainAreaEn  string `json:"main_area_en,omitempty"`
	ElementAr   string `json:"element_ar,omitempty"`
	ElementEn   string `json:"element_en,omitempty"`
	SubDomainAr string `json:"sub_domain_ar,omitempty"`
	SubDomainEn string `json:"sub_domain_en,omitempty"`
}

// Key returns the canonical identity of the section used for de-duplication
// and mapping lookups: "main_area|element|sub_domain".
func (s Section) Key() string {
	return s.MainAreaAr + "|" + s.ElementAr + "|" + s.SubDomainAr
}

// Level reports the deepest populated taxonomy level of the section.
func (s Section) Level() string {
	switch {
	case s.SubDomainAr != "":
		return "sub_domain"
	case s.ElementAr != "":
		return "element"
	default:
		return "main_area"
	}
}
