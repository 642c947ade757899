package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appGuardrails "github.com/civiclink/guardrails/pkg/app/guardrails"
	"github.com/civiclink/guardrails/pkg/config"
	"github.com/civiclink/guardrails/pkg/guardrails/input_validation"
	"github.com/civiclink/guardrails/pkg/guardrails/output_sanitization"
	handlers "github.com/civiclink/guardrails/pkg/handlers/http"
	"github.com/civiclink/guardrails/pkg/infra/agent"
	"github.com/civiclink/guardrails/pkg/infra/audit"
	"github.com/civiclink/guardrails/pkg/infra/httpx"
	infraLogger "github.com/civiclink/guardrails/pkg/infra/logger"
	"github.com/civiclink/guardrails/pkg/infra/prometheus"
	"github.com/civiclink/guardrails/pkg/middleware"
	"github.com/civiclink/guardrails/pkg/server"
	"github.com/civiclink/guardrails/pkg/server/router"
	"github.com/civiclink/guardrails/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, closeLogger, err := infraLogger.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLogger()

	logger.WithField("version", version.GetInfo().String()).Info("starting")

	if cfg.Metrics.Enabled {
		prometheus.Initialize(prometheus.MetricsConfig{
			EnableFlags:      cfg.Metrics.EnableFlags,
			EnableRedactions: cfg.Metrics.EnableRedactions,
			EnableLatency:    cfg.Metrics.EnableLatency,
		})
	}

	validator, err := input_validation.New(cfg.Validation)
	if err != nil {
		logger.Fatalf("failed to build input validator: %v", err)
	}
	sanitizer, err := output_sanitization.New(cfg.Sanitization)
	if err != nil {
		logger.Fatalf("failed to build output sanitizer: %v", err)
	}

	publisher := audit.NewNopPublisher()
	if cfg.Audit.Enabled {
		redisClient := audit.NewRedisClient(cfg.Audit)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("audit redis is unreachable, events will be dropped until it recovers")
		}
		cancel()
		asyncPublisher := audit.NewAsyncPublisher(
			audit.NewRedisPublisher(redisClient, cfg.Audit.Channel),
			logger,
			cfg.Audit.QueueSize,
			cfg.Audit.PublishTimeout,
		)
		defer asyncPublisher.Close()
		publisher = asyncPublisher
	}

	agentClient := agent.NewClient(
		cfg.Agent,
		httpx.NewFastHTTPClient(
			httpx.WithTimeout(cfg.Agent.Timeout),
			httpx.WithUserAgent(version.GetInfo().UserAgent()),
		),
		httpx.NewCircuitBreaker("agent", cfg.Agent.Breaker),
	)

	engine := appGuardrails.NewEngine(appGuardrails.EngineDeps{
		Logger:    logger,
		Validator: validator,
		Sanitizer: sanitizer,
		Publisher: publisher,
	})

	middlewareTransport := &middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
		CORSMiddleware:         middleware.NewCORSMiddleware(cfg.Server.CORS),
		RequestIDMiddleware:    middleware.NewRequestIDMiddleware(),
		MetricsMiddleware:      middleware.NewMetricsMiddleware(),
	}

	handlerTransport := &handlers.HandlerTransportDTO{
		ValidateHandler: handlers.NewValidateHandler(logger, engine),
		SanitizeHandler: handlers.NewSanitizeHandler(logger, engine),
		ChatHandler: handlers.NewChatHandler(handlers.ChatHandlerDeps{
			Logger: logger,
			Engine: engine,
			Agent:  agentClient.Call,
		}),
		GetVersionHandler: handlers.NewGetVersionHandler(logger, handlers.ChainsOf(validator, sanitizer)),
	}

	srv := server.NewGuardrailsServer(server.GuardrailsServerDI{
		Config: cfg,
		Logger: logger,
		Routers: []router.ServerRouter{
			router.NewGuardrailsRouter(middlewareTransport, handlerTransport),
		},
	})

	if err := run(srv, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.WithError(err).Error("server stopped with error")
		closeLogger()
		os.Exit(1)
	}
	logger.Info("server gracefully stopped")
}

func run(srv server.Server, shutdownTimeout time.Duration, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		done := make(chan error, 1)
		go func() { done <- srv.Shutdown() }()
		select {
		case err := <-done:
			return err
		case <-time.After(shutdownTimeout):
			return errors.New("shutdown timed out")
		}
	})
	return g.Wait()
}
