package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/payment-tracker/internal/config"
	"github.com/nimasrn/payment-tracker/internal/dashboard"
	"github.com/nimasrn/payment-tracker/internal/handlers"
	"github.com/nimasrn/payment-tracker/internal/repository"
	"github.com/nimasrn/payment-tracker/internal/services"
	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/nimasrn/payment-tracker/pkg/prom"
	"github.com/nimasrn/payment-tracker/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting payment tracker", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

	if cfg.AppDebugMetricsAddr != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed creating metrics", "error", err)
		} else {
			go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
		}
	}

	// a missing database is not fatal, the dashboard shows how to configure it
	db, err := pg.Open(cfg.PostgresConfig(), cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err, "missing", cfg.MissingPostgres())
		for _, hint := range config.PostgresEnvHint {
			logger.Warn("database configuration hint", "set", hint)
		}
	} else if err := db.Ping(context.Background()); err != nil {
		logger.Error("pg is not reachable", "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed closing pg", "error", err)
		}
	}()

	refresherOpts := []dashboard.Option{dashboard.WithListLimit(cfg.DashboardListLimit)}
	if cfg.RedisEnabled() {
		redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: cfg.AppName,
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			logger.Warn("failed connecting to redis, snapshot cache disabled", "error", err)
		} else {
			defer redisAdap.Close()
			refresherOpts = append(refresherOpts, dashboard.WithCache(dashboard.NewRedisSnapshotCache(redisAdap, cfg.DashboardSnapshotTTL)))
		}
	}

	paymentRepo := repository.NewPaymentRepository(db)

	// services
	paymentService := services.NewPaymentService(paymentRepo)
	statsService := services.NewStatsService(paymentRepo, cfg.DashboardRecentWindow)
	if cfg.DashboardConsistentStats {
		statsService.WithSnapshot(db)
	}
	healthService := services.NewHealthService(db)

	refresher := dashboard.NewRefresher(paymentService, statsService, cfg.DashboardRefreshInterval, refresherOpts...)

	// handlers
	paymentHandler := handlers.NewPaymentHandler(paymentService, refresher)
	statsHandler := handlers.NewStatsHandler(statsService, refresher)
	healthHandler := handlers.NewHealthHandler(healthService)
	dashboardHandler, err := handlers.NewDashboardHandler(paymentService, refresher, handlers.DashboardOption{
		RefreshInterval: refresher.Interval(),
		AutoRefresh:     cfg.DashboardAutoRefresh,
		DatabaseReady:   db.Available(),
		Hint:            config.PostgresEnvHint,
		Missing:         cfg.MissingPostgres(),
	})
	if err != nil {
		logger.Error("failed parsing dashboard templates", "error", err)
		return
	}

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.Name = cfg.AppName
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	g := s.Router.Group("/api/v1")
	handlers.RegisterPaymentRoutes(g, paymentHandler)
	handlers.RegisterStatsRoutes(g, statsHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)
	handlers.RegisterDashboardRoutes(s.Router, dashboardHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("dashboard refresher stopped", "error", err)
		}
	}()

	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--env=") {
			path := strings.TrimPrefix(v, "--env=")
			if _, err := os.Stat(path); err != nil {
				logger.Error("failed to open the passed env file", "error", err)
				return ""
			}
			return path
		}
	}
	return ""
}
