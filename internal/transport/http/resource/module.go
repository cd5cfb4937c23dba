package resource

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/access"
	service "github.com/Additional-Code/depot/internal/service/resource"
)

// Params collects every resource endpoint provided to the graph.
type Params struct {
	fx.In

	Echo      *echo.Echo
	Guard     *access.Guard
	Endpoints []service.Endpoint `group:"resources"`
}

// Module wires HTTP handlers for all resource endpoints.
var Module = fx.Invoke(func(p Params) {
	for _, ep := range p.Endpoints {
		Register(p.Echo, p.Guard, NewHandler(ep))
	}
})
