package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/depot/internal/access"
	"github.com/Additional-Code/depot/internal/cache"
	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/database"
	"github.com/Additional-Code/depot/internal/identity"
	"github.com/Additional-Code/depot/internal/logger"
	"github.com/Additional-Code/depot/internal/messaging"
	"github.com/Additional-Code/depot/internal/observability"
	repositoryuser "github.com/Additional-Code/depot/internal/repository/user"
	grpcserver "github.com/Additional-Code/depot/internal/server/grpc"
	httpserver "github.com/Additional-Code/depot/internal/server/http"
	serviceresource "github.com/Additional-Code/depot/internal/service/resource"
	serviceuser "github.com/Additional-Code/depot/internal/service/user"
	transporthttp "github.com/Additional-Code/depot/internal/transport/http"
	"github.com/Additional-Code/depot/internal/worker"
	workeraudit "github.com/Additional-Code/depot/internal/worker/audit"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryuser.Module,
	identity.Module,
	serviceresource.Module,
	serviceuser.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	access.Module,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing. Nothing in it depends on the
// observability manager, so it is invoked to install the otel providers.
var Worker = fx.Options(
	Core,
	worker.Module,
	workeraudit.Module,
	fx.Invoke(func(*observability.Manager) {}),
)

// Module is the default application wiring.
var Module = HTTP
