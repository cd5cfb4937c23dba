package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// QueryHook logs every statement at debug level and failed statements at
// warn. sql.ErrNoRows is an expected outcome and is not treated as a failure.
type QueryHook struct {
	logger *zap.Logger
}

var _ bun.QueryHook = (*QueryHook)(nil)

func NewQueryHook(logger *zap.Logger) *QueryHook {
	return &QueryHook{logger: logger}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.Duration("duration", time.Since(event.StartTime)),
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.logger.Warn("query failed", append(fields, zap.String("query", event.Query), zap.Error(event.Err))...)
		return
	}
	if ce := h.logger.Check(zap.DebugLevel, "query"); ce != nil {
		ce.Write(append(fields, zap.String("query", event.Query))...)
	}
}
