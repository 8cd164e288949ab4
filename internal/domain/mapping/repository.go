package mapping

import (
	"context"

	"github.com/qiyas/continuity/pkg/types/common"
)

// ListFilter narrows mapping listings.
type ListFilter struct {
	CurrentIndexID  common.ID
	PreviousIndexID common.ID
	Level           Level
	Pagination      *common.Pagination
}

// Repository persists section mappings.
type Repository interface {
	Create(ctx context.Context, m *SectionMapping) error
	GetByID(ctx context.Context, id common.ID) (*SectionMapping, error)
	Update(ctx context.Context, m *SectionMapping) error
	Delete(ctx context.Context, id common.ID) error

	// List returns mappings matching the filter plus the total count.
	List(ctx context.Context, filter ListFilter) ([]*SectionMapping, int64, error)

	// ListByPair returns every mapping for one (current, previous) index
	// pair, unpaginated, for in-memory cascade resolution.
	ListByPair(ctx context.Context, currentIndexID, previousIndexID common.ID) ([]*SectionMapping, error)

	// FindByFromTriple locates the mapping whose previous-side triple and
	// level equal the given one within the pair, for duplicate detection.
	FindByFromTriple(ctx context.Context, currentIndexID, previousIndexID common.ID, from Triple) (*SectionMapping, error)
}
