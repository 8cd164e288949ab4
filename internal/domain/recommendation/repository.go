package recommendation

import (
	"context"

	"github.com/qiyas/continuity/pkg/types/common"
)

// ListFilter narrows recommendation listings within an index.
type ListFilter struct {
	Status     Status
	Pagination *common.Pagination
}

// GroupedItem joins a recommendation with its requirement's taxonomy
// labels, for listings grouped by sub-domain.
type GroupedItem struct {
	Recommendation *Recommendation `json:"recommendation"`
	MainAreaAr     string          `json:"main_area_ar"`
	ElementAr      string          `json:"element_ar,omitempty"`
	SubDomainAr    string          `json:"sub_domain_ar,omitempty"`
}

// Repository persists recommendations.  Tx-scoped variants back the upload
// batch, which commits all of its writes atomically.
type Repository interface {
	Create(ctx context.Context, r *Recommendation) error
	GetByID(ctx context.Context, id common.ID) (*Recommendation, error)
	Update(ctx context.Context, r *Recommendation) error
	Delete(ctx context.Context, id common.ID) error

	// GetByRequirement returns the recommendation attached to a
	// requirement, or a not-found error.
	GetByRequirement(ctx context.Context, requirementID common.ID) (*Recommendation, error)

	// GetByRequirementAndIndex resolves the unique (requirement, index)
	// pair, or a not-found error.
	GetByRequirementAndIndex(ctx context.Context, requirementID, indexID common.ID) (*Recommendation, error)

	// ListByIndex returns an index's recommendations joined with their
	// requirements' taxonomy labels, ordered by sub-domain then main area.
	ListByIndex(ctx context.Context, indexID common.ID, filter ListFilter) ([]*GroupedItem, int64, error)

	// FirstByRequirementIDs returns the first existing recommendation among
	// the given requirements, scanning in the given order.  Previous-year
	// fallback groups surface one recommendation for the whole bucket.
	FirstByRequirementIDs(ctx context.Context, requirementIDs []common.ID) (*Recommendation, error)

	// RunInTx executes fn inside one transaction; every repository call
	// made through the passed Repository joins that transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error
}
