package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/depot/internal/access"
	"github.com/Additional-Code/depot/internal/cache"
	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/database/dbtest"
	"github.com/Additional-Code/depot/internal/identity"
	"github.com/Additional-Code/depot/internal/messaging"
	repo "github.com/Additional-Code/depot/internal/repository/resource"
	userrepo "github.com/Additional-Code/depot/internal/repository/user"
	svcresource "github.com/Additional-Code/depot/internal/service/resource"
	svcuser "github.com/Additional-Code/depot/internal/service/user"
	resourcetransport "github.com/Additional-Code/depot/internal/transport/http/resource"
	roottransport "github.com/Additional-Code/depot/internal/transport/http/root"
	usertransport "github.com/Additional-Code/depot/internal/transport/http/user"
)

type credentials struct {
	username string
	password string
}

var (
	anonymous = credentials{}
	admin     = credentials{"admin", "admin-pw"}
	clerk     = credentials{"clerk", "clerk-pw"}
)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()

	cfg := config.Config{Auth: config.Auth{Realm: "depot", BcryptCost: bcrypt.MinCost, IdentityTTL: time.Minute}}
	logger := zap.NewNop()
	conns := dbtest.Open(t)
	users := userrepo.New(conns)
	auth := identity.NewAuthenticator(users, cache.Noop(), cfg, logger)
	accounts := identity.NewAccounts(users, auth, cfg, logger)
	_, err := accounts.Create(context.Background(), admin.username, admin.password, true)
	require.NoError(t, err)
	_, err = accounts.Create(context.Background(), clerk.username, clerk.password, false)
	require.NoError(t, err)

	params := svcresource.Params{
		Connections: conns,
		Lookup:      repo.NewLookup(conns),
		Config:      cfg,
		Logger:      logger,
		Publisher:   messaging.Noop("depot.resources"),
	}
	endpoints := []svcresource.Endpoint{
		svcresource.NewOrders(params),
		svcresource.NewRetailers(params),
		svcresource.NewSuppliers(params),
		svcresource.NewConcessions(params),
		svcresource.NewMemos(params),
		svcresource.NewManualOrders(params),
	}

	e := echo.New()
	guard := access.NewGuard(cfg)
	e.Use(auth.Middleware())
	roottransport.Register(e, guard)
	for _, ep := range endpoints {
		resourcetransport.Register(e, guard, resourcetransport.NewHandler(ep))
	}
	usertransport.Register(e, guard, usertransport.NewHandler(svcuser.NewDirectory(users)))

	return &api{t: t, e: e}
}

func (a *api) do(who credentials, method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if who.username != "" {
		req.SetBasicAuth(who.username, who.password)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *api) create(who credentials, path, body string) map[string]any {
	a.t.Helper()
	rec := a.do(who, http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(a.t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func idOf(m map[string]any) string {
	return strconv.FormatInt(int64(m["id"].(float64)), 10)
}

func TestSupplierRoundTrip(t *testing.T) {
	a := newAPI(t)

	created := a.create(clerk, "/suppliers/", `{"code":"ACME","name":"Acme"}`)
	assert.Equal(t, "clerk", created["owner"])

	rec := a.do(clerk, http.MethodGet, "/suppliers/"+idOf(created)+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode(t, rec))

	rec = a.do(clerk, http.MethodGet, "/suppliers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = a.do(clerk, http.MethodPatch, "/suppliers/"+idOf(created)+"/", `{"name":"x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestValidationErrorShape(t *testing.T) {
	a := newAPI(t)

	rec := a.do(clerk, http.MethodPost, "/suppliers/", `{"code":"TOOLONG"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{
		"code": ["Ensure this field has no more than 4 characters."],
		"name": ["This field is required."]
	}`, rec.Body.String())

	rec = a.do(clerk, http.MethodPost, "/suppliers/", `{"code":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "detail")
}

func TestRetailerPatchKeepsOtherFields(t *testing.T) {
	a := newAPI(t)
	s := a.create(clerk, "/suppliers/", `{"code":"S1","name":"One"}`)
	r := a.create(clerk, "/retailers/", `{"code":"TSCO","name":"Tesco","checklist":[`+idOf(s)+`]}`)

	rec := a.do(admin, http.MethodPatch, "/retailers/"+idOf(r)+"/", `{"name":"Tesco Extra"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode(t, rec)
	assert.Equal(t, "TSCO", got["code"])
	assert.Equal(t, "Tesco Extra", got["name"])
	assert.Equal(t, "clerk", got["owner"])
	assert.Equal(t, []any{s["id"]}, got["checklist"])
}

func TestPutReplacesOrRejects(t *testing.T) {
	a := newAPI(t)
	s := a.create(clerk, "/suppliers/", `{"code":"S1","name":"One"}`)
	r := a.create(clerk, "/retailers/", `{"code":"TSCO","name":"Tesco","checklist":[`+idOf(s)+`]}`)
	m := a.create(clerk, "/memos/",
		`{"retailer":`+idOf(r)+`,"supplier":`+idOf(s)+`,"start_date":"2024-01-01","end_date":"2024-01-31","content":"note"}`)

	tests := []struct {
		name   string
		path   string
		body   string
		fields string
	}{
		{"supplier without name", "/suppliers/" + idOf(s) + "/", `{"code":"S2"}`,
			`{"name":["This field is required."]}`},
		{"retailer without checklist", "/retailers/" + idOf(r) + "/", `{"code":"TSCO","name":"Tesco Extra"}`,
			`{"checklist":["This field is required."]}`},
		{"memo without content", "/memos/" + idOf(m) + "/",
			`{"retailer":` + idOf(r) + `,"supplier":` + idOf(s) + `,"start_date":"2024-02-01","end_date":"2024-02-28"}`,
			`{"content":["This field is required."]}`},
		{"memo with null content", "/memos/" + idOf(m) + "/",
			`{"retailer":` + idOf(r) + `,"supplier":` + idOf(s) + `,"start_date":"2024-02-01","end_date":"2024-02-28","content":null}`,
			`{"content":["This field may not be null."]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := a.do(clerk, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, before.Code)

			rec := a.do(clerk, http.MethodPut, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.JSONEq(t, tt.fields, rec.Body.String())

			after := a.do(clerk, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, after.Code)
			assert.JSONEq(t, before.Body.String(), after.Body.String())
		})
	}

	t.Run("order fields default to empty", func(t *testing.T) {
		order := a.create(admin, "/orders/", `{"supplier":"SUP1","retailer":"RET1","ordernum":"N-1"}`)

		rec := a.do(admin, http.MethodPut, "/orders/"+idOf(order)+"/", `{}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode(t, rec)
		assert.Equal(t, "", got["supplier"])
		assert.Equal(t, "", got["retailer"])
		assert.Equal(t, "", got["ordernum"])
		assert.NotEmpty(t, got["received"])
	})

	t.Run("unchanged values", func(t *testing.T) {
		rec := a.do(clerk, http.MethodPut, "/suppliers/"+idOf(s)+"/", `{"code":"S1","name":"One"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = a.do(clerk, http.MethodPut, "/suppliers/"+idOf(s)+"/", `{"code":"S1","name":"One"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "One", decode(t, rec)["name"])
	})
}

func TestPolicies(t *testing.T) {
	a := newAPI(t)

	t.Run("anonymous read of authenticated resource", func(t *testing.T) {
		rec := a.do(anonymous, http.MethodGet, "/retailers/", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="depot"`, rec.Header().Get(echo.HeaderWWWAuthenticate))
	})

	t.Run("anonymous read of public resource", func(t *testing.T) {
		rec := a.do(anonymous, http.MethodGet, "/memos/", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("anonymous write of public resource", func(t *testing.T) {
		rec := a.do(anonymous, http.MethodPost, "/concessions/", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad credentials on public route", func(t *testing.T) {
		rec := a.do(credentials{"clerk", "wrong"}, http.MethodGet, "/", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("orders are admin only", func(t *testing.T) {
		order := a.create(admin, "/orders/", `{"supplier":"SUP1","retailer":"RET1","ordernum":"N-1"}`)
		assert.NotEmpty(t, order["received"])

		rec := a.do(clerk, http.MethodDelete, "/orders/"+idOf(order)+"/", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"detail":"You do not have permission to perform this action."}`, rec.Body.String())

		rec = a.do(admin, http.MethodGet, "/orders/"+idOf(order)+"/", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = a.do(admin, http.MethodDelete, "/orders/"+idOf(order)+"/", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestNotFound(t *testing.T) {
	a := newAPI(t)

	for _, path := range []string{"/manual/99999/", "/manual/abc/", "/users/4242/"} {
		rec := a.do(clerk, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Empty(t, rec.Body.String(), path)
	}

	rec := a.do(clerk, http.MethodPut, "/suppliers/77/", `{"code":"X","name":"Y"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletingSupplierCascades(t *testing.T) {
	a := newAPI(t)
	s := a.create(clerk, "/suppliers/", `{"code":"S1","name":"One"}`)
	r := a.create(clerk, "/retailers/", `{"code":"R1","name":"Shop","checklist":[`+idOf(s)+`]}`)
	c := a.create(clerk, "/concessions/",
		`{"retailer":`+idOf(r)+`,"supplier":`+idOf(s)+`,"product":"APL","description":"apples","best_before":"2024-05-01"}`)
	assert.Equal(t, "2024-05-01", c["best_before"])
	assert.Nil(t, c["start_date"])

	rec := a.do(clerk, http.MethodDelete, "/suppliers/"+idOf(s)+"/", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(anonymous, http.MethodGet, "/concessions/"+idOf(c)+"/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRootAndUsers(t *testing.T) {
	a := newAPI(t)

	rec := a.do(anonymous, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	links := decode(t, rec)
	assert.Equal(t, "http://example.com/manual/", links["manual"])
	assert.Equal(t, "http://example.com/users/", links["users"])
	assert.Len(t, links, 7)

	rec = a.do(anonymous, http.MethodGet, "/users/", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s := a.create(clerk, "/suppliers/", `{"code":"S1","name":"One"}`)

	rec = a.do(clerk, http.MethodGet, "/users/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "clerk", users[1]["username"])
	assert.Equal(t, []any{s["id"]}, users[1]["suppliers"])
	assert.Equal(t, []any{}, users[1]["orders"])
	assert.NotContains(t, users[1], "password_hash")

	rec = a.do(clerk, http.MethodPost, "/users/", `{"username":"x"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
