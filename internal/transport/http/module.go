package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/identity"
	resourcetransport "github.com/Additional-Code/depot/internal/transport/http/resource"
	roottransport "github.com/Additional-Code/depot/internal/transport/http/root"
	usertransport "github.com/Additional-Code/depot/internal/transport/http/user"
)

// Module aggregates all HTTP transport handlers behind Basic authentication.
var Module = fx.Options(
	fx.Invoke(func(e *echo.Echo, auth *identity.Authenticator) {
		e.Use(auth.Middleware())
	}),
	roottransport.Module,
	resourcetransport.Module,
	usertransport.Module,
)
