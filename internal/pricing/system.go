package pricing

import (
	"context"

	"github.com/JaimeStill/estimator/pkg/pagination"
)

// System defines the public contract for the pricing catalogue.
type System interface {
	Handler() *Handler

	ListMaterials(ctx context.Context) ([]Material, error)
	ListLaborRates(ctx context.Context) ([]LaborRate, error)

	SearchMaterials(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Material], error)
}
