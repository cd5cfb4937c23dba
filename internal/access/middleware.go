package access

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/presentation/http/response"
)

// Module provides the request Guard.
var Module = fx.Provide(NewGuard)

// Guard turns policies into echo middleware.
type Guard struct {
	realm string
}

// NewGuard builds a Guard using the configured authentication realm.
func NewGuard(cfg config.Config) *Guard {
	return &Guard{realm: cfg.Auth.Realm}
}

// Require rejects requests that p does not admit before the wrapped handler
// runs, so no storage is touched on denial.
func (g *Guard) Require(p Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			caller := CallerFrom(req.Context())
			if err := Evaluate(p, caller, OperationFor(req.Method)); err != nil {
				return response.New(c).WithChallenge(g.realm).WithError(err).Build()
			}
			return next(c)
		}
	}
}
