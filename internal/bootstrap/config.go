// Package bootstrap wires the sync engine's adapters and services together
// by hand, the way the teacher's InitServers/Options composition does, rather
// than through a generated dependency-injection container.
package bootstrap

import (
	"fmt"

	libCommons "github.com/alaalsalam/hisabi-backend/common"
	"github.com/alaalsalam/hisabi-backend/common/mlog"
	"github.com/alaalsalam/hisabi-backend/common/mmongo"
	"github.com/alaalsalam/hisabi-backend/common/mopentelemetry"
	"github.com/alaalsalam/hisabi-backend/common/mpostgres"
	"github.com/alaalsalam/hisabi-backend/common/mrabbitmq"
	"github.com/alaalsalam/hisabi-backend/common/mredis"
	"github.com/alaalsalam/hisabi-backend/common/mzap"
	httpin "github.com/alaalsalam/hisabi-backend/internal/adapters/http/in"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/mongodb/payload"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/postgres/devicetoken"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/postgres/oplog"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/postgres/syncentity"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/postgres/wallet"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/rabbitmq/events"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/redis/clock"
	syncsvc "github.com/alaalsalam/hisabi-backend/internal/services/sync"
	"github.com/joho/godotenv"
)

const ApplicationName = "hisabi-sync"

// Config is the top level environment-driven configuration for the sync
// service.
type Config struct {
	EnvName  string `env:"ENV_NAME"`
	LogLevel string `env:"LOG_LEVEL"`
	Version  string `env:"VERSION"`

	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":3003"`

	PrimaryDBConnString string `env:"DB_CONNECTION_STRING_PRIMARY"`
	ReplicaDBConnString string `env:"DB_CONNECTION_STRING_REPLICA"`
	PrimaryDBName        string `env:"DB_NAME_PRIMARY"`
	ReplicaDBName        string `env:"DB_NAME_REPLICA"`
	MigrationsPath       string `env:"DB_MIGRATIONS_PATH"`

	MongoConnString string `env:"MONGO_CONNECTION_STRING"`
	MongoDatabase   string `env:"MONGO_DATABASE"`

	RedisConnString string `env:"REDIS_CONNECTION_STRING"`

	RabbitMQConnString string `env:"RABBITMQ_CONNECTION_STRING"`
	RabbitMQExchange    string `env:"RABBITMQ_EXCHANGE" envDefault:"sync.mutations"`

	OtelServiceName         string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	OtelLibraryName         string `env:"OTEL_LIBRARY_NAME"`
	OtelServiceVersion      string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv       string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
	OtelColExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTelemetry         bool   `env:"ENABLE_TELEMETRY"`
}

// Options contains optional dependencies callers can inject, mirroring the
// teacher's Options struct for composing this service under a test harness
// or a larger unified process.
type Options struct {
	Logger mlog.Logger
}

// Service bundles the running components returned by InitServersWithOptions.
type Service struct {
	App        *libCommons.Launcher
	Server     *Server
	Logger     mlog.Logger
	Telemetry  *mopentelemetry.Telemetry
	PostgresDB *mpostgres.PostgresConnection
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Service) Run() {
	s.App.Run()
}

// InitServers initializes the sync service with default options.
func InitServers() (*Service, error) {
	return InitServersWithOptions(nil)
}

// InitServersWithOptions wires every adapter and service by hand: Postgres,
// MongoDB, Redis and RabbitMQ connections; the Registry, Normalizer, Version
// Controller, Recalc Dispatcher, Delta Producer and Operation Ledger
// services; the Push/Pull orchestrators; and the HTTP route registrar.
func InitServersWithOptions(opts *Options) (*Service, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := libCommons.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment variables: %w", err)
	}

	var logger mlog.Logger
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	} else {
		logger = mzap.InitializeLogger()
	}

	telemetry := &mopentelemetry.Telemetry{
		LibraryName:               cfg.OtelLibraryName,
		ServiceName:               cfg.OtelServiceName,
		ServiceVersion:            cfg.OtelServiceVersion,
		DeploymentEnv:             cfg.OtelDeploymentEnv,
		CollectorExporterEndpoint: cfg.OtelColExporterEndpoint,
	}

	if cfg.EnableTelemetry {
		telemetry = telemetry.InitializeTelemetry()
	}

	pgConn := &mpostgres.PostgresConnection{
		ConnectionStringPrimary: cfg.PrimaryDBConnString,
		ConnectionStringReplica: cfg.ReplicaDBConnString,
		PrimaryDBName:           cfg.PrimaryDBName,
		ReplicaDBName:           cfg.ReplicaDBName,
		MigrationsPath:          cfg.MigrationsPath,
	}

	mongoConn := &mmongo.MongoConnection{
		ConnectionStringSource: cfg.MongoConnString,
		Database:               cfg.MongoDatabase,
	}

	redisConn := &mredis.RedisConnection{
		ConnectionStringSource: cfg.RedisConnString,
		Logger:                 logger,
	}

	rabbitConn := &mrabbitmq.RabbitMQConnection{
		ConnectionStringSource: cfg.RabbitMQConnString,
		Exchange:               cfg.RabbitMQExchange,
		Logger:                 logger,
	}

	payloadRepo := payload.NewRepository(mongoConn)
	storage := syncentity.NewRepository(pgConn, payloadRepo)
	ledgerRepo := oplog.NewRepository(pgConn)
	walletRepo := wallet.NewRepository(pgConn)
	authRepo := devicetoken.NewRepository(pgConn)
	walletClock := clock.NewWalletClock(redisConn)
	eventPublisher := events.NewPublisher(rabbitConn)

	registry := syncsvc.NewRegistry()
	normalizer := syncsvc.NewNormalizer(registry)
	versions := syncsvc.NewVersionController(storage, walletClock)
	operationLedger := syncsvc.NewOperationLedger(ledgerRepo)
	recalc := syncsvc.NewRecalcDispatcher(storage, walletClock)
	deltaProducer := syncsvc.NewDeltaProducer(storage)
	scopeResolver := syncsvc.NewScopeResolver(authRepo, walletRepo)

	pushOrchestrator := syncsvc.NewPushOrchestrator(registry, normalizer, versions, operationLedger, recalc, eventPublisher, walletClock)
	pullOrchestrator := syncsvc.NewPullOrchestrator(deltaProducer, walletClock)

	pushHandler := httpin.NewPushHandler(pushOrchestrator, scopeResolver)
	pullHandler := httpin.NewPullHandler(pullOrchestrator, scopeResolver)
	routeRegistrar := httpin.NewRouteRegistrar(pushHandler, pullHandler)

	server := NewServer(cfg, routeRegistrar, logger, telemetry)

	launcher := libCommons.NewLauncher(
		libCommons.WithLogger(logger),
		libCommons.RunApp(ApplicationName, server),
	)

	return &Service{
		App:        launcher,
		Server:     server,
		Logger:     logger,
		Telemetry:  telemetry,
		PostgresDB: pgConn,
	}, nil
}
