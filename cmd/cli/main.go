package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/payment-tracker/internal/config"
	"github.com/nimasrn/payment-tracker/internal/dashboard"
	"github.com/nimasrn/payment-tracker/internal/repository"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/nimasrn/payment-tracker/pkg/redis"
)

const usage = `usage: cli [--env=path] <command> [flags]

commands:
  list        [--limit=50]                 show the most recent payments
  add         --name --amount --currency --method
  set-status  --id --status                 change a payment status
  stats                                     show today's figures
  watch       [--interval=10s]              print a fresh snapshot on every interval
  snapshot                                  print the snapshot cached by the API
`

func main() {
	defer logger.Sync()

	args := commandArgs(os.Args[1:])
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := config.Load(getEnvPath()); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, listLimit: cfg.DashboardListLimit, recent: cfg.DashboardRecentWindow}

	// snapshot only needs redis
	if args[0] != "snapshot" {
		db, err := pg.Open(cfg.PostgresConfig(), false)
		if err != nil {
			logger.Error("failed connecting to pg", "error", err)
			fmt.Fprintln(os.Stderr, "Database connection failed. Set the following environment variables:")
			for _, hint := range config.PostgresEnvHint {
				fmt.Fprintln(os.Stderr, "  "+hint)
			}
			os.Exit(1)
		}
		defer db.Close()
		a.repo = repository.NewPaymentRepository(db)
		if cfg.DashboardConsistentStats {
			a.snapshotTx = db
		}
	}

	if cfg.RedisEnabled() {
		redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:    []string{cfg.RedisAddr},
			DB:       cfg.RedisDatabase,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			logger.Warn("failed connecting to redis", "error", err)
		} else {
			defer redisAdap.Close()
			a.cache = dashboard.NewRedisSnapshotCache(redisAdap, cfg.DashboardSnapshotTTL)
		}
	}

	a.wire(cfg.DashboardRefreshInterval)
	if err := a.run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// commandArgs drops the --env flag so it can appear anywhere on the line.
func commandArgs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if strings.HasPrefix(v, "--env=") {
			continue
		}
		out = append(out, v)
	}
	return out
}

func getEnvPath() string {
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
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}
