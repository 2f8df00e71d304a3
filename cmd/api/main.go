package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtbook/internal/api"
	"courtbook/internal/auth"
	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/domain"
	"courtbook/internal/events"
	"courtbook/internal/export"
	"courtbook/internal/logging"
	"courtbook/internal/metrics"
	"courtbook/internal/repository"
	"courtbook/internal/schedule"
	"courtbook/internal/scheduler"
	"courtbook/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const healthInterval = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	grid, err := cfg.Schedule.Grid()
	if err != nil {
		return fmt.Errorf("schedule grid: %w", err)
	}
	calendar, err := schedule.NewCalendar(cfg.Schedule.Timezone, nil)
	if err != nil {
		return err
	}

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	db, err := database.Open(cfg.Database.Path, logging.Component(logger, "database"), database.Options{
		BusyTimeout: cfg.Database.BusyTimeout,
		Grid:        grid,
		Locker:      buildLocker(cfg, redisClient, logger),
		LockWait:    cfg.Schedule.LockWait,
	})
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	eventBus := events.NewEventBus()
	subscribeAuditLog(eventBus, logging.Component(logger, "audit"))

	bookings := service.NewBookingService(db, grid, calendar, eventBus, logging.Component(logger, "booking"))
	exporter := export.NewExporter(db, grid, cfg.Exports.Path, logging.Component(logger, "export"))

	tokens, err := auth.NewJWTProvider(cfg.API.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	jobs, err := initScheduler(cfg, db, calendar, logger)
	if err != nil {
		return err
	}
	defer func() { _ = jobs.Stop() }()

	httpServer := api.NewHTTPServer(cfg.API, bookings, exporter, tokens, db, logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API.GRPC, db, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	jobs.Start()
	return startServers(ctx, cfg, httpServer, grpcServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, baseLogger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, date locks are process-local")
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, client); err != nil {
		// The failover locker keeps probing, so the client is kept.
		logger.Warn().Err(err).Msg("redis connection failed, starting on local locks")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

func buildLocker(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.DateLocker {
	local := repository.NewMemoryDateLocker()
	if client == nil {
		return local
	}
	primary := repository.NewRedisDateLocker(client, cfg.Schedule.LockTTL)
	return repository.NewFailoverDateLocker(primary, local, logging.Component(logger, "locker"))
}

func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	audit := func(e *events.Event) error {
		var p events.ReservationEventPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		logger.Info().
			Str("event", e.Type).
			Str("reservation_id", p.ReservationID).
			Str("member_id", p.MemberID).
			Str("actor_id", p.ActorID).
			Bool("actor_is_admin", p.ActorIsAdmin).
			Str("date", p.Date).
			Int("hour", p.Hour).
			Int("court", p.Court).
			Msg("reservation audit")
		return nil
	}
	bus.Subscribe(events.EventReservationCreated, audit)
	bus.Subscribe(events.EventReservationCancelled, audit)
}

func initScheduler(cfg *config.Config, db *database.DB, calendar *schedule.Calendar, logger *zerolog.Logger) (*scheduler.Service, error) {
	jobs, err := scheduler.New(logger, gocron.WithLocation(calendar.Location()))
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	if backup.Enabled() {
		if err := jobs.RegisterBackup(cfg.Backup.Schedule, backup); err != nil {
			return nil, err
		}
	}
	if err := jobs.RegisterPurge(cfg.Schedule.PurgeCron, db, calendar, cfg.Schedule.PurgeAfterDays); err != nil {
		return nil, err
	}
	return jobs, nil
}

func startServers(
	ctx context.Context,
	cfg *config.Config,
	httpServer *api.HTTPServer,
	grpcServer *api.GRPCServer,
	logger *zerolog.Logger,
) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)

	if grpcServer != nil {
		g.Go(grpcServer.Serve)
		g.Go(func() error {
			grpcServer.WatchHealth(gctx, healthInterval)
			return nil
		})
	}

	if cfg.Monitoring.PrometheusEnabled {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.Monitoring.PrometheusPort, logger)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownTimeout)
		defer cancel()

		if grpcServer != nil {
			grpcServer.Shutdown(shutdownCtx)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	err := g.Wait()
	logger.Info().Msg("API server stopped")
	return err
}

func serveMetrics(ctx context.Context, port int, logger *zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
