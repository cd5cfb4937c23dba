package resource

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/depot/internal/access"
	"github.com/Additional-Code/depot/internal/presentation/http/response"
	service "github.com/Additional-Code/depot/internal/service/resource"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/depot/transport/http/resource")

// maxBody caps request payloads.
const maxBody = 1 << 20

// Handler exposes one resource collection over HTTP.
type Handler struct {
	ep   service.Endpoint
	kind string
}

// NewHandler constructs a Handler for ep.
func NewHandler(ep service.Endpoint) *Handler {
	return &Handler{ep: ep, kind: string(ep.Descriptor().Kind)}
}

// Register mounts the collection and detail routes of h behind the policy of
// its resource. Paths are served with and without the trailing slash.
func Register(e *echo.Echo, guard *access.Guard, h *Handler) {
	desc := h.ep.Descriptor()
	mw := guard.Require(desc.Policy)

	base := "/" + h.kind
	detail := base + "/:id"
	for _, suffix := range []string{"/", ""} {
		e.GET(base+suffix, h.list, mw)
		e.POST(base+suffix, h.create, mw)
		e.GET(detail+suffix, h.get, mw)
		e.PUT(detail+suffix, h.replace, mw)
		if desc.Patch {
			e.PATCH(detail+suffix, h.patch, mw)
		}
		e.DELETE(detail+suffix, h.delete, mw)
	}
}

func (h *Handler) span(c echo.Context, op string, attrs ...attribute.KeyValue) (echo.Context, trace.Span) {
	ctx, span := httpTracer.Start(c.Request().Context(), h.kind+"."+op, trace.WithAttributes(attrs...))
	c.SetRequest(c.Request().WithContext(ctx))
	return c, span
}

func (h *Handler) list(c echo.Context) error {
	c, span := h.span(c, "list")
	defer span.End()

	items, err := h.ep.List(c.Request().Context())
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	return response.New(c).WithData(items).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	c, span := h.span(c, "get", attribute.Int64("resource.id", id))
	defer span.End()

	item, err := h.ep.Get(c.Request().Context(), id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(item).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	body, err := readBody(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	c, span := h.span(c, "create")
	defer span.End()

	ctx := c.Request().Context()
	item, err := h.ep.Create(ctx, access.CallerFrom(ctx), body)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(item).Build()
}

func (h *Handler) replace(c echo.Context) error {
	return h.update(c, false)
}

func (h *Handler) patch(c echo.Context) error {
	return h.update(c, true)
}

func (h *Handler) update(c echo.Context, partial bool) error {
	b := response.New(c)
	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	body, err := readBody(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	c, span := h.span(c, "update", attribute.Int64("resource.id", id), attribute.Bool("resource.partial", partial))
	defer span.End()

	ctx := c.Request().Context()
	item, err := h.ep.Update(ctx, access.CallerFrom(ctx), id, body, partial)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(item).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)
	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	c, span := h.span(c, "delete", attribute.Int64("resource.id", id))
	defer span.End()

	ctx := c.Request().Context()
	if err := h.ep.Delete(ctx, access.CallerFrom(ctx), id); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

// pathID parses the :id segment. Anything but a positive integer names no
// row, so it is reported as not found.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.NotFound("not found")
	}
	return id, nil
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBody+1))
	if err != nil {
		return nil, errorbank.BadRequest("unable to read request body", errorbank.WithCause(err))
	}
	if len(body) > maxBody {
		return nil, errorbank.BadRequest("request body too large")
	}
	return body, nil
}
