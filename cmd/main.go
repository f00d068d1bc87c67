package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jessevdk/go-flags"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	// Instrumentation
	"github.com/exaring/otelpgx"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Internal
	"github.com/jupiterclapton/cenackle/services/discovery-service/config"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/adapters/primary/events"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/adapters/primary/rest"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/adapters/secondary/security"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/adapters/secondary/throttle"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/services"
)

type options struct {
	Config      string `long:"config" short:"c" description:"Path to a YAML config file (defaults to $CONFIG_PATH, then ./config.yaml)"`
	MigrateOnly bool   `long:"migrate-only" description:"Apply database migrations and exit"`
}

func main() {
	// 0. Flags
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	// 1. Config & Logger
	cfg, err := config.Load(opts.Config)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	initLogger(cfg)
	slog.Info("🚀 Starting Discovery Service", "env", cfg.Env, "http_port", cfg.Server.HTTPPort, "grpc_port", cfg.Server.GRPCPort)

	// 2. Schema
	version, dirty, err := repository.RunMigrations(cfg.DBUrl)
	if err != nil {
		slog.Error("Migrations failed", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Schema up to date", "version", version, "dirty", dirty)
	if opts.MigrateOnly {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Telemetry (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 4. Infrastructure: Postgres
	dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		slog.Error("Unable to parse DB config", "error", err)
		os.Exit(1)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	if err := dbPool.Ping(ctx); err != nil {
		slog.Error("Unable to reach database", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Postgres")

	// 5. Infrastructure: Redis (write throttle)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		slog.Error("Failed to instrument Redis", "error", err)
	}
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// The throttle fails open, so Redis being down is not fatal.
		slog.Warn("⚠️ Redis unreachable, write throttle will fail open", "error", err)
	} else {
		slog.Info("✅ Connected to Redis")
	}

	// 6. Infrastructure: NATS
	nc, err := nats.Connect(cfg.NatsUrl, nats.Name(cfg.ServiceName))
	if err != nil {
		slog.Error("Unable to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()
	slog.Info("✅ Connected to NATS")

	// 7. Driven adapters
	breaker := repository.NewBreaker("postgres", repository.DefaultBreakerSettings())
	contentRepo := repository.NewContentRepo(dbPool, breaker)
	ledgerRepo := repository.NewLedgerRepo(dbPool, breaker)
	commentRepo := repository.NewCommentRepo(dbPool, breaker)

	broker, err := eventbroker.NewNatsBroker(ctx, nc)
	if err != nil {
		slog.Error("Unable to set up JetStream", "error", err)
		os.Exit(1)
	}

	identity, err := security.NewJWTValidatorFromFile(cfg.JWT.PublicKeyPath, cfg.JWT.Issuer)
	if err != nil {
		slog.Error("Unable to load JWT public key", "path", cfg.JWT.PublicKeyPath, "error", err)
		os.Exit(1)
	}

	writeThrottle := throttle.NewRedisThrottle(rdb, cfg.Throttle.Limit, cfg.Throttle.Window)

	// 8. Core
	settings := services.Settings{
		DefaultPageSize:  cfg.Feed.DefaultPageSize,
		DensePageSize:    cfg.Feed.DensePageSize,
		MaxPageSize:      cfg.Feed.MaxPageSize,
		LikeWeight:       cfg.Feed.LikeWeight,
		ReadRetryBackoff: cfg.Feed.ReadRetryBackoff,
	}
	visibility := services.NewVisibilityFilter(ledgerRepo)
	scorer := services.NewRelevanceScorer(settings.LikeWeight)
	feedService := services.NewFeedService(contentRepo, visibility, scorer, settings)
	interactionService := services.NewInteractionService(ledgerRepo, broker, writeThrottle, settings)
	contentService := services.NewContentService(contentRepo, contentRepo, broker, settings)
	commentService := services.NewCommentService(commentRepo, contentRepo, visibility, broker, writeThrottle, settings)

	// 9. Driving adapters: NATS consumers
	consumer := events.NewEventHandler(contentRepo, contentRepo)
	subs, err := consumer.Subscribe(nc)
	if err != nil {
		slog.Error("Unable to subscribe to events", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Subscribed to inbound events", "subscriptions", len(subs))

	// 10. Driving adapters: HTTP
	router := rest.NewRouter(rest.NewHandler(feedService, interactionService, contentService, commentService), identity, rest.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     time.Minute,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})
	srvHTTP := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("📡 HTTP API listening", "port", cfg.Server.HTTPPort)
		if err := srvHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// 11. Driving adapters: gRPC health
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		slog.Error("Failed to listen", "error", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("📡 gRPC health listening", "port", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	slog.Info("🛑 Shutting down server...")
	healthServer.Shutdown()

	// Stop consuming first so no event lands while the stores are closing.
	events.Drain(subs)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced to shutdown", "error", err)
	}
	if err := nc.Drain(); err != nil {
		slog.Error("NATS drain failed", "error", err)
	}
	grpcServer.GracefulStop()
	slog.Info("👋 Server exited")
}

func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var handler slog.Handler
	if cfg.IsLocal() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler).With("service", cfg.ServiceName))
}

func initTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
