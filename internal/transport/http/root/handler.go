// Package root serves the API entry point listing every collection.
package root

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/access"
	"github.com/Additional-Code/depot/internal/presentation/http/response"
	"github.com/Additional-Code/depot/internal/resource"
)

// Module mounts the directory at "/".
var Module = fx.Invoke(Register)

// Register mounts the directory. It is readable by anyone.
func Register(e *echo.Echo, guard *access.Guard) {
	e.GET("/", directory, guard.Require(access.AllowAny))
}

func directory(c echo.Context) error {
	base := c.Scheme() + "://" + c.Request().Host

	links := map[string]string{"users": base + "/users/"}
	for _, d := range resource.All() {
		links[string(d.Kind)] = base + d.Path()
	}
	return response.New(c).WithData(links).Build()
}
