package access

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

var (
	anonymous = Caller{}
	member    = Caller{ID: 2, Username: "clerk"}
	admin     = Caller{ID: 1, Username: "admin", Admin: true}
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		caller Caller
		op     Operation
		want   errorbank.Kind
	}{
		{"orders read anonymous", AdminOnly, anonymous, Read, errorbank.KindUnauthorized},
		{"orders read member", AdminOnly, member, Read, errorbank.KindForbidden},
		{"orders write member", AdminOnly, member, Write, errorbank.KindForbidden},
		{"orders write admin", AdminOnly, admin, Write, ""},
		{"retailers read anonymous", Authenticated, anonymous, Read, errorbank.KindUnauthorized},
		{"retailers write member", Authenticated, member, Write, ""},
		{"memos read anonymous", AuthenticatedOrReadOnly, anonymous, Read, ""},
		{"memos write anonymous", AuthenticatedOrReadOnly, anonymous, Write, errorbank.KindUnauthorized},
		{"memos write member", AuthenticatedOrReadOnly, member, Write, ""},
		{"root anonymous", AllowAny, anonymous, Write, ""},
		{"unknown policy", Policy(42), admin, Read, errorbank.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Evaluate(tt.policy, tt.caller, tt.op)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errorbank.IsKind(err, tt.want), "got %v", err)
		})
	}
}

func TestOperationFor(t *testing.T) {
	assert.Equal(t, Read, OperationFor(http.MethodGet))
	assert.Equal(t, Read, OperationFor(http.MethodHead))
	assert.Equal(t, Read, OperationFor(http.MethodOptions))
	assert.Equal(t, Write, OperationFor(http.MethodPost))
	assert.Equal(t, Write, OperationFor(http.MethodPatch))
	assert.Equal(t, Write, OperationFor(http.MethodDelete))
}

func TestCallerContext(t *testing.T) {
	assert.False(t, CallerFrom(context.Background()).Authenticated())

	ctx := WithCaller(context.Background(), member)
	assert.Equal(t, member, CallerFrom(ctx))
}

func TestGuardShortCircuits(t *testing.T) {
	guard := NewGuard(config.Config{Auth: config.Auth{Realm: "depot"}})
	e := echo.New()
	reached := false
	e.DELETE("/orders/:id/", func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusNoContent)
	}, guard.Require(AdminOnly))

	req := httptest.NewRequest(http.MethodDelete, "/orders/1/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="depot"`, rec.Header().Get(echo.HeaderWWWAuthenticate))
	assert.False(t, reached)

	req = httptest.NewRequest(http.MethodDelete, "/orders/1/", nil)
	req = req.WithContext(WithCaller(req.Context(), member))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"detail":"You do not have permission to perform this action."}`, rec.Body.String())
	assert.False(t, reached)

	req = httptest.NewRequest(http.MethodDelete, "/orders/1/", nil)
	req = req.WithContext(WithCaller(req.Context(), admin))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, reached)
}
