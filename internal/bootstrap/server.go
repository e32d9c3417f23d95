package bootstrap

import (
	libCommons "github.com/alaalsalam/hisabi-backend/common"
	"github.com/alaalsalam/hisabi-backend/common/mlog"
	netHTTP "github.com/alaalsalam/hisabi-backend/common/net/http"
	"github.com/alaalsalam/hisabi-backend/common/mopentelemetry"
	httpin "github.com/alaalsalam/hisabi-backend/internal/adapters/http/in"
	"github.com/gofiber/fiber/v2"
)

// Server represents the HTTP server exposing the sync engine's push/pull
// endpoints.
type Server struct {
	app           *fiber.App
	serverAddress string
	logger        mlog.Logger
	telemetry     *mopentelemetry.Telemetry
}

// ServerAddress returns the server's listen address.
func (s *Server) ServerAddress() string {
	return s.serverAddress
}

// NewServer builds the Fiber app, registers the ambient middleware stack and
// the sync routes, and wraps it in a Server.
func NewServer(cfg *Config, routes *httpin.RouteRegistrar, logger mlog.Logger, telemetry *mopentelemetry.Telemetry) *Server {
	serverAddress := cfg.ServerAddress
	if serverAddress == "" {
		serverAddress = ":3003"
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(netHTTP.WithCorrelationID())
	app.Use(netHTTP.WithHTTPLogging(netHTTP.WithCustomLogger(logger)))
	netHTTP.AllowFullOptionsWithCORS(app)

	if telemetry != nil && telemetry.TracerProvider != nil {
		tm := netHTTP.NewTelemetryMiddleware(telemetry)
		app.Use(tm.WithTelemetry(telemetry))
		app.Use(tm.EndTracingSpans)
	}

	routes.Register(app, cfg.Version)

	return &Server{
		app:           app,
		serverAddress: serverAddress,
		logger:        logger,
		telemetry:     telemetry,
	}
}

// Run implements libCommons.App, starting the HTTP listener.
func (s *Server) Run(l *libCommons.Launcher) error {
	return s.app.Listen(s.serverAddress)
}
