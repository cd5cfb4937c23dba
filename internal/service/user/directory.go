package user

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/dto"
	"github.com/Additional-Code/depot/internal/entity"
	userrepo "github.com/Additional-Code/depot/internal/repository/user"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/depot/service/user")

// Module provides the read-only account directory.
var Module = fx.Provide(NewDirectory)

// Directory lists accounts together with the rows they own.
type Directory struct {
	users *userrepo.Repository
}

// NewDirectory wires a Directory.
func NewDirectory(users *userrepo.Repository) *Directory {
	return &Directory{users: users}
}

// List returns every account by id.
func (d *Directory) List(ctx context.Context) ([]dto.UserResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "UserDirectory.List")
	defer span.End()

	users, err := d.users.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list users", errorbank.WithCause(err))
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp, err := d.describe(ctx, &users[i])
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// Get returns one account.
func (d *Directory) Get(ctx context.Context, id int64) (dto.UserResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "UserDirectory.Get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u, err := d.users.GetByID(ctx, id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return dto.UserResponse{}, errorbank.NotFound("user not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return dto.UserResponse{}, errorbank.Internal("failed to load user", errorbank.WithCause(err))
	}
	return d.describe(ctx, u)
}

func (d *Directory) describe(ctx context.Context, u *entity.User) (dto.UserResponse, error) {
	owned, err := d.users.OwnedIDs(ctx, u.ID)
	if err != nil {
		return dto.UserResponse{}, errorbank.Internal("failed to load owned rows", errorbank.WithCause(err))
	}
	return dto.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Orders:      owned.Orders,
		Retailers:   owned.Retailers,
		Suppliers:   owned.Suppliers,
		Concessions: owned.Concessions,
		Memos:       owned.Memos,
		Manuals:     owned.Manuals,
	}, nil
}
