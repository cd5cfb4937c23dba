package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/database"
	"github.com/Additional-Code/depot/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/depot/repository/user")

// Module provides the account repository.
var Module = fx.Provide(New)

// ErrNotFound is returned when an account is missing.
var ErrNotFound = errors.New("user not found")

// Owned holds the identifiers of every row attributed to one account.
type Owned struct {
	Orders      []int64
	Retailers   []int64
	Suppliers   []int64
	Concessions []int64
	Memos       []int64
	Manuals     []int64
}

// Repository encapsulates account persistence.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// New wires the repository with primary/replica connections.
func New(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create inserts an account.
func (r *Repository) Create(ctx context.Context, u *entity.User) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create",
		trace.WithAttributes(attribute.String("user.username", u.Username)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(u).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// FindByUsername reads from the primary so freshly created accounts can
// authenticate straight away.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.FindByUsername",
		trace.WithAttributes(attribute.String("user.username", username)))
	defer span.End()

	u := new(entity.User)
	err := r.writer.NewSelect().Model(u).Where("?TableAlias.username = ?", username).Scan(ctx)
	return r.one(span, u, err)
}

// GetByID fetches an account using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID",
		trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).Where("?TableAlias.id = ?", id).Scan(ctx)
	return r.one(span, u, err)
}

func (r *Repository) one(span trace.Span, u *entity.User, err error) (*entity.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return u, nil
}

// List returns every account by id.
func (r *Repository) List(ctx context.Context) ([]entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.List")
	defer span.End()

	users := make([]entity.User, 0)
	if err := r.reader.NewSelect().Model(&users).OrderExpr("?TableAlias.id ASC").Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return users, nil
}

// Delete removes an account. Owned rows go with it through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Delete",
		trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// OwnedIDs collects the ids of every row owned by userID, one query per table.
func (r *Repository) OwnedIDs(ctx context.Context, userID int64) (Owned, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.OwnedIDs",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var owned Owned
	targets := []struct {
		model any
		dst   *[]int64
	}{
		{(*entity.Order)(nil), &owned.Orders},
		{(*entity.Retailer)(nil), &owned.Retailers},
		{(*entity.Supplier)(nil), &owned.Suppliers},
		{(*entity.Concession)(nil), &owned.Concessions},
		{(*entity.Memo)(nil), &owned.Memos},
		{(*entity.ManualOrder)(nil), &owned.Manuals},
	}
	for _, t := range targets {
		ids := make([]int64, 0)
		err := r.reader.NewSelect().
			Model(t.model).
			Column("id").
			Where("owner_id = ?", userID).
			OrderExpr("id ASC").
			Scan(ctx, &ids)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "select failed")
			return Owned{}, err
		}
		if ids == nil {
			ids = []int64{}
		}
		*t.dst = ids
	}
	return owned, nil
}
