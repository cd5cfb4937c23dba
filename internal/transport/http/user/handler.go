package user

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/access"
	"github.com/Additional-Code/depot/internal/presentation/http/response"
	service "github.com/Additional-Code/depot/internal/service/user"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/depot/transport/http/user")

// Module wires the read-only user routes.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(Register),
)

// Handler exposes the account directory.
type Handler struct {
	dir *service.Directory
}

// NewHandler constructs a user Handler.
func NewHandler(dir *service.Directory) *Handler {
	return &Handler{dir: dir}
}

// Register mounts /users/ and /users/:id/ for authenticated callers.
func Register(e *echo.Echo, guard *access.Guard, h *Handler) {
	mw := guard.Require(access.Authenticated)
	for _, suffix := range []string{"/", ""} {
		e.GET("/users"+suffix, h.list, mw)
		e.GET("/users/:id"+suffix, h.get, mw)
	}
}

func (h *Handler) list(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "users.list")
	defer span.End()

	users, err := h.dir.List(ctx)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(users).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return b.WithError(errorbank.NotFound("not found")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u, err := h.dir.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(u).Build()
}
