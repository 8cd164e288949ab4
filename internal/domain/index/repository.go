package index

import (
	"context"

	"github.com/qiyas/continuity/pkg/types/common"
)

// ListFilter defines listing criteria for indices.
type ListFilter struct {
	IndexType      string
	Status         Status
	OrganizationID common.OrganizationID
	CompletedOnly  bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// Repository defines the persistence contract for the index domain.
type Repository interface {
	Create(ctx context.Context, i *Index) error
	GetByID(ctx context.Context, id common.ID) (*Index, error)
	GetByCode(ctx context.Context, code string) (*Index, error)
	Update(ctx context.Context, i *Index) error
	Delete(ctx context.Context, id common.ID) error

	List(ctx context.Context, filter ListFilter) ([]*Index, int64, error)

	// ListCompletedByType returns completed indices of one family, newest
	// first.  Used to populate the previous-cycle link picker.
	ListCompletedByType(ctx context.Context, indexType string) ([]*Index, error)
}
