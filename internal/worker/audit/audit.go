// Package audit consumes resource events and writes an audit trail to the log.
package audit

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/messaging"
	svcresource "github.com/Additional-Code/depot/internal/service/resource"
	"github.com/Additional-Code/depot/internal/worker"
)

var (
	workerTracer = otel.Tracer("github.com/Additional-Code/depot/worker/audit")
	workerMeter  = otel.Meter("github.com/Additional-Code/depot/worker/audit")
)

// Module registers the audit handler.
var Module = fx.Module("worker_audit",
	fx.Provide(
		fx.Annotate(
			NewHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewHandler sets up a worker handler that records every resource mutation.
func NewHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	processed, err := workerMeter.Int64Counter("depot.worker.events",
		metric.WithDescription("Resource events consumed by the audit worker."))
	if err != nil {
		logger.Warn("audit counter unavailable", zap.Error(err))
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handle(logger, processed),
	}
}

func handle(logger *zap.Logger, processed metric.Int64Counter) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.audit.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		var event svcresource.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode resource event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		logger.Info("resource event",
			zap.String("kind", string(event.Kind)),
			zap.String("action", string(event.Action)),
			zap.Int64("id", event.ID),
			zap.Int64("owner", event.Owner),
			zap.String("actor", event.Actor),
			zap.String("summary", event.Summary),
			zap.Time("occurred_at", event.OccurredAt),
		)

		if processed != nil {
			processed.Add(ctx, 1, metric.WithAttributes(
				attribute.String("kind", string(event.Kind)),
				attribute.String("action", string(event.Action)),
			))
		}
		return nil
	}
}
