package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/depot/internal/config"
)

// Module runs the operational gRPC listener. It carries the standard health
// service, so orchestrators can probe depot without credentials.
var Module = fx.Module("grpc_server",
	fx.Provide(health.NewServer, NewServer),
	fx.Invoke(Run),
)

func NewServer(logger *zap.Logger, healthSrv *health.Server) *grpc.Server {
	logger = logger.Named("grpc")

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			start := time.Now()
			resp, err := handler(ctx, req)
			logCall(logger, "unary", info.FullMethod, start, err)
			return resp, err
		}),
		grpc.ChainStreamInterceptor(func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
			start := time.Now()
			err := handler(srv, ss)
			logCall(logger, "stream", info.FullMethod, start, err)
			return err
		}),
	)
	healthpb.RegisterHealthServer(server, healthSrv)
	reflection.Register(server)
	return server
}

// logCall records a finished RPC. Health probes are frequent, so successful
// calls are logged at debug.
func logCall(logger *zap.Logger, kind, method string, start time.Time, err error) {
	code := status.Code(err)
	level := zapcore.DebugLevel
	if code != codes.OK {
		level = zapcore.WarnLevel
	}
	if ce := logger.Check(level, "grpc call finished"); ce != nil {
		ce.Write(
			zap.String("kind", kind),
			zap.String("method", method),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
}

// Run binds the listener on start and reports SERVING once it is bound. A
// serve failure shuts the whole application down.
func Run(lc fx.Lifecycle, sd fx.Shutdowner, cfg config.Config, server *grpc.Server, healthSrv *health.Server, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			logger.Info("starting gRPC server", zap.String("addr", addr))

			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					logger.Error("grpc server failed", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			healthSrv.Shutdown()

			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()
			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				return nil
			}
		},
	})
}
