package response

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/depot/pkg/errorbank"
)

// Builder helps construct consistent HTTP responses.
//
// Success payloads are written as the bare representation. Validation errors
// render as a field to messages map, not found renders with an empty body and
// every other error renders as {"detail": message}.
type Builder struct {
	ctx       echo.Context
	status    int
	data      any
	err       error
	challenge string
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// WithChallenge sets the basic-auth realm announced on 401 responses.
func (b *Builder) WithChallenge(realm string) *Builder {
	b.challenge = realm
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

func (b *Builder) buildSuccess() error {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	if b.status == http.StatusNoContent || b.data == nil {
		return b.ctx.NoContent(b.status)
	}
	return b.ctx.JSON(b.status, b.data)
}

type detail struct {
	Detail string `json:"detail"`
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}

	switch appErr.Kind() {
	case errorbank.KindNotFound:
		return b.ctx.NoContent(status)
	case errorbank.KindBadRequest:
		if fields := appErr.Fields(); len(fields) > 0 {
			return b.ctx.JSON(status, fields)
		}
	case errorbank.KindUnauthorized:
		if b.challenge != "" {
			b.ctx.Response().Header().Set(echo.HeaderWWWAuthenticate, fmt.Sprintf("Basic realm=%q", b.challenge))
		}
	case errorbank.KindInternal:
		return b.ctx.JSON(status, detail{Detail: "internal error"})
	}

	return b.ctx.JSON(status, detail{Detail: appErr.Message()})
}
