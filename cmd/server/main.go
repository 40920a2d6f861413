package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appregistry "github.com/attornatus/backend/internal/application/registry"
	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/infrastructure/auth"
	"github.com/attornatus/backend/internal/infrastructure/config"
	"github.com/attornatus/backend/internal/infrastructure/logger"
	"github.com/attornatus/backend/internal/infrastructure/persistence"
	"github.com/attornatus/backend/internal/infrastructure/postal"
	"github.com/attornatus/backend/internal/infrastructure/telemetry"
	"github.com/attornatus/backend/internal/interfaces/http/handler"
	"github.com/attornatus/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Person Registry API
//	@version		1.0
//	@description	Registers people, keeps their addresses and tracks which one is the main address.
//	@description	Addresses are resolved from Brazilian postal codes (CEP) through ViaCEP.

//	@contact.name	API Support
//	@contact.url	https://github.com/attornatus/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server terminated", zap.Error(err))
	}
}

// shutdownFunc releases one resource acquired during startup
type shutdownFunc func(ctx context.Context) error

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Shutdown hooks run in reverse order of acquisition
	var cleanups []shutdownFunc
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](shutdownCtx); err != nil {
				log.Warn("Shutdown step failed", zap.Error(err))
			}
		}
	}()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, mp.Shutdown)

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, lp.Shutdown)

	// Export log records to the collector as well once the bridge is up
	exportLevel, err := logger.ParseLevel(cfg.Telemetry.LogsLevel)
	if err != nil {
		exportLevel = zapcore.InfoLevel
	}
	log = telemetry.BridgeLogger(log, lp, exportLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
		ProfileTypes:    cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func(context.Context) error { return profiler.Stop() })
	if profiler.IsEnabled() && tp.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting person registry",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", telemetry.ServiceVersion),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.SQLLevel),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, func(context.Context) error { return db.Close() })
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		DBName:          cfg.Database.DBName,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		return err
	}

	healthChecks := []handler.SystemHandlerOption{handler.WithHealthCheck("database", db)}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanups = append(cleanups, func(context.Context) error { return redisClient.Close() })
		healthChecks = append(healthChecks, handler.WithHealthCheck("redis", handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})))
	}

	lookup, err := newPostalLookup(cfg, redisClient, log)
	if err != nil {
		return err
	}

	// Business events are counted only when metrics are exported
	var serviceOpts []appregistry.PersonServiceOption
	if mp.IsEnabled() {
		registryMetrics, err := telemetry.NewRegistryMetrics(mp.Meter("registry"))
		if err != nil {
			return err
		}
		serviceOpts = append(serviceOpts, appregistry.WithEventRecorder(registryMetrics))
	}

	personService := appregistry.NewPersonService(
		persistence.NewGormPersonRepository(db.DB),
		persistence.NewGormTransactionScope(db.DB),
		log.Named("person_service"),
		serviceOpts...,
	)
	addressService := appregistry.NewAddressService(
		persistence.NewGormAddressRepository(db.DB),
		lookup,
		log.Named("address_service"),
	)

	deps := router.Deps{
		Config:  cfg,
		Logger:  log,
		Persons: handler.NewPersonHandler(personService, addressService),
		System:  handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, healthChecks...),
	}
	if mp.IsEnabled() {
		deps.Meter = mp.Meter("http")
	}
	if cfg.Auth.Enabled {
		jwtService, err := auth.NewJWTService(cfg.Auth)
		if err != nil {
			return err
		}
		deps.Tokens = jwtService
	}

	engine, err := router.New(ctx, deps)
	if err != nil {
		return err
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("Server exited gracefully")
	return nil
}

// newPostalLookup builds the ViaCEP client and puts the Redis cache in front
// of it when both the cache and Redis are enabled.
func newPostalLookup(cfg *config.Config, client *redis.Client, log *zap.Logger) (registry.PostalLookup, error) {
	viaCEP, err := postal.NewViaCEPClient(postal.ViaCEPConfig{
		BaseURL: cfg.Postal.BaseURL,
		Timeout: cfg.Postal.Timeout,
	}, postal.WithLogger(log.Named("viacep")))
	if err != nil {
		return nil, err
	}

	if !cfg.Postal.CacheEnabled || client == nil {
		log.Info("Postal lookup cache disabled")
		return viaCEP, nil
	}

	log.Info("Postal lookup cache enabled",
		zap.String("redis_addr", cfg.Redis.Addr()),
		zap.Duration("ttl", cfg.Postal.CacheTTL),
	)
	return postal.NewCachedLookup(viaCEP, postal.NewRedisStore(client), cfg.Postal.CacheTTL, log), nil
}
