package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/dto"
	"github.com/Additional-Code/depot/internal/entity"
	userrepo "github.com/Additional-Code/depot/internal/repository/user"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

// Accounts registers and removes local accounts.
type Accounts struct {
	users  *userrepo.Repository
	auth   *Authenticator
	cost   int
	logger *zap.Logger
}

// NewAccounts wires account management.
func NewAccounts(users *userrepo.Repository, auth *Authenticator, cfg config.Config, logger *zap.Logger) *Accounts {
	return &Accounts{
		users:  users,
		auth:   auth,
		cost:   cfg.Auth.BcryptCost,
		logger: logger,
	}
}

// Create registers an account with a bcrypt hash of password.
func (a *Accounts) Create(ctx context.Context, username, password string, admin bool) (*entity.User, error) {
	in := dto.AccountInput{Username: username, Password: password}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, err := a.users.FindByUsername(ctx, username); err == nil {
		return nil, errorbank.Conflict("A user with that username already exists.")
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		return nil, errorbank.Internal("failed to check username", errorbank.WithCause(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}

	u := &entity.User{Username: username, PasswordHash: string(hash), IsAdmin: admin}
	if err := a.users.Create(ctx, u); err != nil {
		return nil, errorbank.Internal("failed to create account", errorbank.WithCause(err))
	}

	a.logger.Info("account created", zap.String("username", username), zap.Bool("admin", admin))
	return u, nil
}

// Ensure creates the account unless the username is already taken. It
// reports whether a new account was written.
func (a *Accounts) Ensure(ctx context.Context, username, password string, admin bool) (bool, error) {
	_, err := a.Create(ctx, username, password, admin)
	if errorbank.IsKind(err, errorbank.KindConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the account and, through cascading keys, everything it
// owns.
func (a *Accounts) Delete(ctx context.Context, username string) error {
	u, err := a.users.FindByUsername(ctx, username)
	if errors.Is(err, userrepo.ErrNotFound) {
		return errorbank.NotFound("user not found")
	}
	if err != nil {
		return errorbank.Internal("failed to load account", errorbank.WithCause(err))
	}

	if err := a.users.Delete(ctx, u.ID); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return errorbank.NotFound("user not found")
		}
		return errorbank.Internal("failed to delete account", errorbank.WithCause(err))
	}
	a.auth.Forget(ctx, username)

	a.logger.Info("account deleted", zap.String("username", username))
	return nil
}
