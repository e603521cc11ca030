package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"forumflow/internal/analytics"
	"forumflow/internal/config"
	"forumflow/internal/constants"
	"forumflow/internal/logger"
	"forumflow/internal/runtime"
	"forumflow/pkg/bootstrap"
	"forumflow/pkg/health"
	"forumflow/pkg/logging"
	"forumflow/pkg/metrics"
	"forumflow/pkg/middleware"
	"forumflow/pkg/ratelimit"
	"forumflow/pkg/tracing"
)

const serviceName = "analytics-service"

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	store          *analytics.Store
	aggregator     *analytics.Aggregator
	snapshots      *analytics.SnapshotStore
	runner         *runtime.Runner
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(serviceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitBroker(serviceName); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initService()

	if err := a.initSnapshots(); err != nil {
		initCtx := logging.WithServiceName(ctx, serviceName)
		a.Logger.WarnwCtx(initCtx, "Snapshot store initialization failed, snapshots disabled",
			"error", err,
		)
	}

	tp, err := tracing.Init(a.Config.Tracing, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterConsumerMetrics()
	metrics.RegisterAnalyticsMetrics()
	if a.Config.RateLimit.Enabled {
		metrics.RegisterRateLimitMetrics()
	}

	if err := a.initHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initService() {
	eventLogSize := a.Config.Analytics.EventLogSize
	if eventLogSize <= 0 {
		eventLogSize = constants.DefaultEventLogSize
	}

	a.store = analytics.NewStore(eventLogSize)
	a.aggregator = analytics.NewAggregator(a.store, a.Logger)
	a.runner = runtime.NewRunner(serviceName, a.Consumer,
		[]string{constants.TopicForumEvents}, a.aggregator.Handlers(), a.Logger)
}

func (a *App) initSnapshots() error {
	if !a.Config.Analytics.Snapshot.Enabled {
		return nil
	}

	snapshots, err := analytics.NewSnapshotStore(
		a.dbConnector.PostgresDSN(), a.store, a.Config.Analytics.Snapshot.Interval, a.Logger)
	if err != nil {
		return err
	}
	a.snapshots = snapshots
	return nil
}

func (a *App) initHTTPServer(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RecoveryMiddleware(a.Logger))

	if a.Config.RateLimit.Enabled {
		rlConfig := ratelimit.DefaultConfig()
		if a.Config.RateLimit.RPS > 0 {
			rlConfig.RPS = a.Config.RateLimit.RPS
		}
		if a.Config.RateLimit.Burst > 0 {
			rlConfig.Burst = a.Config.RateLimit.Burst
		}
		router.Use(ratelimit.RateLimitMiddleware(rlConfig))
	}

	handler := analytics.NewHandler(a.store, a.Logger)
	handler.RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewConsumerChecker(a.runner))

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if err := a.runner.Start(gCtx); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	if a.snapshots != nil {
		g.Go(func() error {
			a.snapshots.Run(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, serviceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down analytics service")

	// Drain the consumer before the broker connections are torn down so
	// in-flight records finish and commit.
	if a.runner.State() == runtime.StateRunning {
		if err := a.runner.Stop(ctx); err != nil {
			a.Logger.WarnwCtx(shutdownCtx, "Consumer stop error", "error", err)
		}
	}

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.snapshots != nil {
			if err := a.snapshots.Close(); err != nil {
				errs = append(errs, fmt.Errorf("snapshot store close error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer shutdown error: %w", err))
			}
		}

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
