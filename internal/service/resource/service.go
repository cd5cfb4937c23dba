package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/depot/internal/access"
	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/database"
	"github.com/Additional-Code/depot/internal/dto"
	"github.com/Additional-Code/depot/internal/entity"
	"github.com/Additional-Code/depot/internal/messaging"
	repo "github.com/Additional-Code/depot/internal/repository/resource"
	"github.com/Additional-Code/depot/internal/resource"
	"github.com/Additional-Code/depot/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/depot/service/resource")
	serviceMeter  = otel.Meter("github.com/Additional-Code/depot/service/resource")
)

// Endpoint is the type-erased view of a resource service used by transports.
// Every returned value is the wire representation.
type Endpoint interface {
	Descriptor() resource.Descriptor
	List(ctx context.Context) ([]any, error)
	Get(ctx context.Context, id int64) (any, error)
	Create(ctx context.Context, caller access.Caller, body []byte) (any, error)
	Update(ctx context.Context, caller access.Caller, id int64, body []byte, partial bool) (any, error)
	Delete(ctx context.Context, caller access.Caller, id int64) error
}

// Params defines dependencies for constructing resource services.
type Params struct {
	fx.In

	Connections *database.Connections
	Lookup      *repo.Lookup
	Config      config.Config
	Logger      *zap.Logger
	Publisher   messaging.Client
}

// Service implements Endpoint for one resource type.
type Service[M any, PM entity.Owned[M]] struct {
	desc      resource.Descriptor
	repo      *repo.Repository[M, PM]
	refs      dto.References
	codec     dto.Codec[M]
	logger    *zap.Logger
	publisher messaging.Client
	publish   bool
	mutations metric.Int64Counter
}

func newService[M any, PM entity.Owned[M]](p Params, kind resource.Kind, codec dto.Codec[M]) *Service[M, PM] {
	desc := resource.MustLookup(kind)

	mutations, err := serviceMeter.Int64Counter("depot.resource.mutations",
		metric.WithDescription("Committed resource writes by kind and action."))
	if err != nil {
		p.Logger.Warn("mutation counter unavailable", zap.Error(err))
	}

	return &Service[M, PM]{
		desc:      desc,
		repo:      repo.NewRepository[M, PM](p.Connections, desc),
		refs:      p.Lookup,
		codec:     codec,
		logger:    p.Logger.With(zap.String("resource", string(kind))),
		publisher: p.Publisher,
		publish:   p.Config.Messaging.Enabled,
		mutations: mutations,
	}
}

// NewOrders serves /orders/.
func NewOrders(p Params) Endpoint {
	return newService[entity.Order](p, resource.Orders, dto.OrderCodec{})
}

// NewRetailers serves /retailers/.
func NewRetailers(p Params) Endpoint {
	return newService[entity.Retailer](p, resource.Retailers, dto.RetailerCodec{})
}

// NewSuppliers serves /suppliers/.
func NewSuppliers(p Params) Endpoint {
	return newService[entity.Supplier](p, resource.Suppliers, dto.SupplierCodec{})
}

// NewConcessions serves /concessions/.
func NewConcessions(p Params) Endpoint {
	return newService[entity.Concession](p, resource.Concessions, dto.ConcessionCodec{})
}

// NewMemos serves /memos/.
func NewMemos(p Params) Endpoint {
	return newService[entity.Memo](p, resource.Memos, dto.MemoCodec{})
}

// NewManualOrders serves /manual/.
func NewManualOrders(p Params) Endpoint {
	return newService[entity.ManualOrder](p, resource.ManualOrders, dto.ManualOrderCodec{})
}

func (s *Service[M, PM]) Descriptor() resource.Descriptor {
	return s.desc
}

func (s *Service[M, PM]) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("resource.kind", string(s.desc.Kind)))
	return serviceTracer.Start(ctx, "ResourceService."+op, trace.WithAttributes(attrs...))
}

// List returns every row in default order.
func (s *Service[M, PM]) List(ctx context.Context) ([]any, error) {
	ctx, span := s.start(ctx, "List")
	defer span.End()

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.internal(span, "list", err)
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.codec.Encode(row))
	}
	return out, nil
}

// Get returns one row.
func (s *Service[M, PM]) Get(ctx context.Context, id int64) (any, error) {
	ctx, span := s.start(ctx, "Get", attribute.Int64("resource.id", id))
	defer span.End()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(span, err)
	}
	return s.codec.Encode(row), nil
}

// Create validates body and stores a new row owned by caller.
func (s *Service[M, PM]) Create(ctx context.Context, caller access.Caller, body []byte) (any, error) {
	ctx, span := s.start(ctx, "Create")
	defer span.End()

	row := PM(new(M))
	if err := s.codec.Decode(ctx, body, row, false, s.refs); err != nil {
		return nil, err
	}
	row.AssignOwner(caller.ID)

	stored, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, s.internal(span, "create", err)
	}

	s.record(ctx, ActionCreated, caller, stored)
	return s.codec.Encode(stored), nil
}

// Update replaces, or with partial merges, the writable fields of a row.
// Owner and other immutable columns are left as stored.
func (s *Service[M, PM]) Update(ctx context.Context, caller access.Caller, id int64, body []byte, partial bool) (any, error) {
	ctx, span := s.start(ctx, "Update", attribute.Int64("resource.id", id), attribute.Bool("resource.partial", partial))
	defer span.End()

	row, err := s.repo.GetForWrite(ctx, id)
	if err != nil {
		return nil, s.lookupErr(span, err)
	}
	if err := s.codec.Decode(ctx, body, row, partial, s.refs); err != nil {
		return nil, err
	}

	stored, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, s.lookupErr(span, err)
	}

	s.record(ctx, ActionUpdated, caller, stored)
	return s.codec.Encode(stored), nil
}

// Delete removes a row together with everything that references it.
func (s *Service[M, PM]) Delete(ctx context.Context, caller access.Caller, id int64) error {
	ctx, span := s.start(ctx, "Delete", attribute.Int64("resource.id", id))
	defer span.End()

	row, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.lookupErr(span, err)
	}

	s.record(ctx, ActionDeleted, caller, row)
	return nil
}

func (s *Service[M, PM]) lookupErr(span trace.Span, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errorbank.NotFound(fmt.Sprintf("%s not found", s.desc.Kind))
	}
	return s.internal(span, "load", err)
}

func (s *Service[M, PM]) internal(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	s.logger.Error("resource "+op+" failed", zap.Error(err))
	return errorbank.Internal(fmt.Sprintf("failed to %s %s", op, s.desc.Kind), errorbank.WithCause(err))
}

// record logs, counts and publishes a committed mutation. Failures here never
// undo the write.
func (s *Service[M, PM]) record(ctx context.Context, action Action, caller access.Caller, row PM) {
	s.logger.Info("resource "+string(action),
		zap.Int64("id", row.PrimaryKey()),
		zap.String("actor", caller.Username),
		zap.Stringer("summary", row),
	)

	if s.mutations != nil {
		s.mutations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(s.desc.Kind)),
			attribute.String("action", string(action)),
		))
	}

	if !s.publish || s.publisher == nil {
		return
	}
	event := Event{
		Kind:       s.desc.Kind,
		Action:     action,
		ID:         row.PrimaryKey(),
		Owner:      row.OwnedBy(),
		Actor:      caller.Username,
		Summary:    row.String(),
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal resource event", zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("%s-%d", s.desc.Kind, event.ID))
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.logger.Error("publish resource event", zap.Error(err))
	}
}
