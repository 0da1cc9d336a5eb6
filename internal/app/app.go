package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Argor01/OkoZnaniy-sub000/internal/cache"
	"github.com/Argor01/OkoZnaniy-sub000/internal/config"
	"github.com/Argor01/OkoZnaniy-sub000/internal/database"
	"github.com/Argor01/OkoZnaniy-sub000/internal/logger"
	"github.com/Argor01/OkoZnaniy-sub000/internal/messaging"
	"github.com/Argor01/OkoZnaniy-sub000/internal/notification"
	"github.com/Argor01/OkoZnaniy-sub000/internal/observability"
	repositorybid "github.com/Argor01/OkoZnaniy-sub000/internal/repository/bid"
	repositoryfile "github.com/Argor01/OkoZnaniy-sub000/internal/repository/file"
	repositoryoffer "github.com/Argor01/OkoZnaniy-sub000/internal/repository/offer"
	repositoryorder "github.com/Argor01/OkoZnaniy-sub000/internal/repository/order"
	grpcserver "github.com/Argor01/OkoZnaniy-sub000/internal/server/grpc"
	httpserver "github.com/Argor01/OkoZnaniy-sub000/internal/server/http"
	servicebid "github.com/Argor01/OkoZnaniy-sub000/internal/service/bid"
	servicefile "github.com/Argor01/OkoZnaniy-sub000/internal/service/file"
	serviceoffer "github.com/Argor01/OkoZnaniy-sub000/internal/service/offer"
	serviceorder "github.com/Argor01/OkoZnaniy-sub000/internal/service/order"
	transporthttp "github.com/Argor01/OkoZnaniy-sub000/internal/transport/http"
	"github.com/Argor01/OkoZnaniy-sub000/internal/worker"
	workerchat "github.com/Argor01/OkoZnaniy-sub000/internal/worker/chat"
	workerlifecycle "github.com/Argor01/OkoZnaniy-sub000/internal/worker/lifecycle"
	"github.com/Argor01/OkoZnaniy-sub000/pkg/validation"
)

// Storage is the minimal graph for database maintenance commands.
var Storage = fx.Options(
	config.Module,
	logger.Module,
	database.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Storage,
	cache.Module,
	messaging.Module,
	observability.Module,
	notification.Module,
	fx.Provide(validation.New),
	repositoryorder.Module,
	repositorybid.Module,
	repositoryoffer.Module,
	repositoryfile.Module,
	serviceorder.Module,
	servicebid.Module,
	serviceoffer.Module,
	servicefile.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// GRPCServer adds the gRPC server to a graph that already has Core.
var GRPCServer = grpcserver.Module

// GRPC runs the gRPC server on its own.
var GRPC = fx.Options(
	Core,
	GRPCServer,
)

// Workers adds the consumers to a graph that already has Core.
var Workers = fx.Options(
	worker.Module,
	workerchat.Module,
	workerlifecycle.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	Workers,
)

// EventLogger routes Fx's own lifecycle events through the engine logger.
var EventLogger = fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
})

// Module is the default application wiring (HTTP only).
var Module = HTTP
