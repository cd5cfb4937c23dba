// Package identity resolves HTTP Basic credentials to callers and manages
// local accounts.
package identity

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/depot/internal/access"
	"github.com/Additional-Code/depot/internal/cache"
	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/entity"
	"github.com/Additional-Code/depot/internal/presentation/http/response"
	userrepo "github.com/Additional-Code/depot/internal/repository/user"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

var identityTracer = otel.Tracer("github.com/Additional-Code/depot/identity")

const invalidCredentials = "Invalid username/password."

// record is the cached form of an account. It never carries the password
// hash: Verifier is a keyed MAC of the last password that passed bcrypt.
type record struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Admin    bool   `json:"admin"`
	Verifier string `json:"verifier"`
}

// Authenticator verifies credentials against the account table.
type Authenticator struct {
	users  *userrepo.Repository
	cache  cache.Store
	ttl    time.Duration
	realm  string
	key    []byte
	decoy  []byte
	logger *zap.Logger
}

// NewAuthenticator wires an Authenticator. Without AUTH_CACHE_SECRET the
// verifier key is random per process, so replicas do not share cache hits.
func NewAuthenticator(users *userrepo.Repository, store cache.Store, cfg config.Config, logger *zap.Logger) *Authenticator {
	key := []byte(cfg.Auth.CacheSecret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}

	// compared against when the username is unknown
	secret := key[:min(len(key), 72)]
	decoy, err := bcrypt.GenerateFromPassword(secret, cfg.Auth.BcryptCost)
	if err != nil {
		decoy, _ = bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	}

	return &Authenticator{
		users:  users,
		cache:  store,
		ttl:    cfg.Auth.IdentityTTL,
		realm:  cfg.Auth.Realm,
		key:    key,
		decoy:  decoy,
		logger: logger,
	}
}

// Authenticate resolves username and password to a caller. A cached record
// answers only for the exact password that produced it; anything else goes
// through bcrypt, including unknown usernames.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (access.Caller, error) {
	ctx, span := identityTracer.Start(ctx, "Authenticator.Authenticate",
		trace.WithAttributes(attribute.String("user.username", username)))
	defer span.End()

	verifier := a.verifier(username, password)
	if rec, ok := a.cached(ctx, username); ok && hmac.Equal([]byte(rec.Verifier), []byte(verifier)) {
		return rec.caller(), nil
	}

	u, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(a.decoy, []byte(password))
			return access.Caller{}, errorbank.Unauthorized(invalidCredentials)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return access.Caller{}, errorbank.Internal("failed to load account", errorbank.WithCause(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return access.Caller{}, errorbank.Unauthorized(invalidCredentials)
	}

	rec := toRecord(u, verifier)
	a.remember(ctx, rec)
	return rec.caller(), nil
}

// Middleware attaches the caller named by the Authorization header to the
// request context. Requests without Basic credentials continue anonymously;
// requests with bad credentials are rejected whatever the route.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			username, password, ok := req.BasicAuth()
			if !ok {
				return next(c)
			}

			caller, err := a.Authenticate(req.Context(), username, password)
			if err != nil {
				if errorbank.IsKind(err, errorbank.KindInternal) {
					a.logger.Error("authentication failed", zap.String("username", username), zap.Error(err))
				}
				return response.New(c).WithChallenge(a.realm).WithError(err).Build()
			}

			c.SetRequest(req.WithContext(access.WithCaller(req.Context(), caller)))
			return next(c)
		}
	}
}

// Forget drops any cached record for username.
func (a *Authenticator) Forget(ctx context.Context, username string) {
	if err := a.cache.Delete(ctx, cacheKey(username)); err != nil {
		a.logger.Warn("identity cache delete failed", zap.String("username", username), zap.Error(err))
	}
}

func (a *Authenticator) cached(ctx context.Context, username string) (record, bool) {
	raw, err := a.cache.Get(ctx, cacheKey(username))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			a.logger.Warn("identity cache read failed", zap.String("username", username), zap.Error(err))
		}
		return record{}, false
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Verifier == "" {
		return record{}, false
	}
	return rec, true
}

func (a *Authenticator) remember(ctx context.Context, rec record) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, cacheKey(rec.Username), raw, a.ttl); err != nil {
		a.logger.Warn("identity cache write failed", zap.String("username", rec.Username), zap.Error(err))
	}
}

// verifier is an HMAC-SHA256 of the credential pair under the process key.
func (a *Authenticator) verifier(username, password string) string {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(username))
	mac.Write([]byte{0})
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

func (r record) caller() access.Caller {
	return access.Caller{ID: r.ID, Username: r.Username, Admin: r.Admin}
}

func toRecord(u *entity.User, verifier string) record {
	return record{
		ID:       u.ID,
		Username: u.Username,
		Admin:    u.IsAdmin,
		Verifier: verifier,
	}
}

func cacheKey(username string) string {
	return "identity:user:" + username
}
