package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds a topic to the handler that consumes it.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs a fixed pool of consumers over the messaging client and routes
// each message to the handler registered for its topic.
type Engine struct {
	client    messaging.Client
	logger    *zap.Logger
	cfg       config.Config
	handlers  map[string]messaging.Handler
	processed metric.Int64Counter
	failed    metric.Int64Counter
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		handlers[r.Topic] = r.Handler
	}

	meter := otel.Meter("github.com/Additional-Code/depot/internal/worker")
	processed, _ := meter.Int64Counter("depot.worker.messages.processed",
		metric.WithDescription("Messages handled successfully, by topic."))
	failed, _ := meter.Int64Counter("depot.worker.messages.failed",
		metric.WithDescription("Messages whose handler returned an error or panicked, by topic."))

	return &Engine{
		client:    p.Client,
		logger:    p.Logger,
		cfg:       p.Config,
		handlers:  handlers,
		processed: processed,
		failed:    failed,
	}
}

var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("worker engine disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	concurrency := max(e.cfg.Messaging.Workers.Concurrency, 1)

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := range concurrency {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, i)
		}()
	}

	topics := make([]string, 0, len(e.handlers))
	for topic := range e.handlers {
		topics = append(topics, topic)
	}
	e.logger.Info("worker engine started", zap.Int("workers", concurrency), zap.Strings("topics", topics))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := e.cfg.Messaging.Workers.PollInterval
	if backoff <= 0 {
		backoff = time.Second
	}

	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, workerID, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err), zap.Int("worker", workerID), zap.Duration("backoff", backoff))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// dispatch runs the handler for msg.Topic. Messages without a handler are
// acknowledged and dropped; a panicking handler is reported as a failure.
func (e *Engine) dispatch(ctx context.Context, workerID int, msg messaging.Message) (err error) {
	handler, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		return nil
	}

	topic := metric.WithAttributes(attribute.String("topic", msg.Topic))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic on %s: %v", msg.Topic, r)
		}
		if err != nil {
			e.failed.Add(ctx, 1, topic)
			return
		}
		e.processed.Add(ctx, 1, topic)
	}()

	e.logger.Debug("processing message",
		zap.String("topic", msg.Topic),
		zap.Int64("offset", msg.Offset),
		zap.Int("worker", workerID),
	)
	return handler(ctx, msg)
}
