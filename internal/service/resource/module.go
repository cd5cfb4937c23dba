package resource

import (
	"go.uber.org/fx"

	repo "github.com/Additional-Code/depot/internal/repository/resource"
)

// Module provides one Endpoint per resource type into the "resources" group.
var Module = fx.Options(
	fx.Provide(repo.NewLookup),
	fx.Provide(
		asEndpoint(NewOrders),
		asEndpoint(NewRetailers),
		asEndpoint(NewSuppliers),
		asEndpoint(NewConcessions),
		asEndpoint(NewMemos),
		asEndpoint(NewManualOrders),
	),
)

func asEndpoint(ctor func(Params) Endpoint) any {
	return fx.Annotate(ctor, fx.ResultTags(`group:"resources"`))
}
