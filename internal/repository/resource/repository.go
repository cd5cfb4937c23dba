package resource

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/depot/internal/database"
	"github.com/Additional-Code/depot/internal/entity"
	"github.com/Additional-Code/depot/internal/resource"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/depot/repository/resource")

// ErrNotFound is returned when no row has the requested identifier.
var ErrNotFound = errors.New("resource not found")

// Repository encapsulates read/write access for one resource table.
type Repository[M any, PM entity.Owned[M]] struct {
	writer *bun.DB
	reader *bun.DB
	desc   resource.Descriptor
}

// NewRepository wires a repository for the table behind desc.
func NewRepository[M any, PM entity.Owned[M]](conns *database.Connections, desc resource.Descriptor) *Repository[M, PM] {
	return &Repository[M, PM]{
		writer: conns.Writer,
		reader: conns.Reader,
		desc:   desc,
	}
}

func (r *Repository[M, PM]) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("resource.kind", string(r.desc.Kind)))
	return repoTracer.Start(ctx, "ResourceRepository."+op, trace.WithAttributes(attrs...))
}

// List returns every row in the descriptor's default ordering.
func (r *Repository[M, PM]) List(ctx context.Context) ([]PM, error) {
	ctx, span := r.start(ctx, "List")
	defer span.End()

	rows := make([]PM, 0)
	q := r.withRelations(r.reader.NewSelect().Model(&rows))
	for _, expr := range r.desc.OrderBy {
		q = q.OrderExpr(expr)
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// GetByID fetches a row by primary key using the read replica when available.
func (r *Repository[M, PM]) GetByID(ctx context.Context, id int64) (PM, error) {
	ctx, span := r.start(ctx, "GetByID", attribute.Int64("resource.id", id))
	defer span.End()

	row, err := r.selectOne(ctx, r.reader, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
	}
	return row, err
}

// GetForWrite fetches a row from the primary ahead of modifying it.
func (r *Repository[M, PM]) GetForWrite(ctx context.Context, id int64) (PM, error) {
	ctx, span := r.start(ctx, "GetForWrite", attribute.Int64("resource.id", id))
	defer span.End()

	row, err := r.selectOne(ctx, r.writer, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
	}
	return row, err
}

// Create inserts row and its associations in one transaction, then returns
// the stored row with relations loaded.
func (r *Repository[M, PM]) Create(ctx context.Context, row PM) (PM, error) {
	ctx, span := r.start(ctx, "Create")
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return err
		}
		return syncAssociations(ctx, tx, row)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, err
	}
	return r.selectOne(ctx, r.writer, row.PrimaryKey())
}

// Update overwrites every mutable column of row and its associations.
func (r *Repository[M, PM]) Update(ctx context.Context, row PM) (PM, error) {
	ctx, span := r.start(ctx, "Update", attribute.Int64("resource.id", row.PrimaryKey()))
	defer span.End()

	err := r.writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(row).
			ExcludeColumn(r.desc.Immutable...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		// Some drivers count changed rather than matched rows.
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			found, err := tx.NewSelect().
				Model((*M)(nil)).
				Where("?TableAlias.id = ?", row.PrimaryKey()).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !found {
				return ErrNotFound
			}
		}
		return syncAssociations(ctx, tx, row)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
		}
		return nil, err
	}
	return r.selectOne(ctx, r.writer, row.PrimaryKey())
}

// Delete removes the row with id and returns it as it was. Dependent rows
// go with it through ON DELETE CASCADE.
func (r *Repository[M, PM]) Delete(ctx context.Context, id int64) (PM, error) {
	ctx, span := r.start(ctx, "Delete", attribute.Int64("resource.id", id))
	defer span.End()

	row, err := r.selectOne(ctx, r.writer, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.writer.NewDelete().Model(row).WherePK().Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return nil, err
	}
	return row, nil
}

func (r *Repository[M, PM]) selectOne(ctx context.Context, db *bun.DB, id int64) (PM, error) {
	row := PM(new(M))
	err := r.withRelations(db.NewSelect().Model(row)).
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Repository[M, PM]) withRelations(q *bun.SelectQuery) *bun.SelectQuery {
	for _, rel := range r.desc.Relations {
		q = q.Relation(rel)
	}
	return q
}

func syncAssociations(ctx context.Context, db bun.IDB, row any) error {
	if syncer, ok := row.(entity.AssociationSyncer); ok {
		return syncer.SyncAssociations(ctx, db)
	}
	return nil
}
