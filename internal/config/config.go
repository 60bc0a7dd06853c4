package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the tracker. Only this struct
// must be used to read configuration, no direct access to the environment
// should be made elsewhere.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=payment_tracker"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=5s"`

	NeonHost     string `env:"NEON_HOST"`
	NeonDatabase string `env:"NEON_DATABASE"`
	NeonUser     string `env:"NEON_USER"`
	NeonPassword string `env:"NEON_PASSWORD"`
	NeonPort     string `env:"NEON_PORT,default=5432"`
	NeonSSLMode  string `env:"NEON_SSLMODE,default=require"`

	PgMaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS,default=1"`
	PgMaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS,default=1"`
	PgConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME,default=30m"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=payment_tracker:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=payment_tracker"`

	DashboardRefreshInterval time.Duration `env:"DASHBOARD_REFRESH_INTERVAL,default=10s"`
	DashboardAutoRefresh     bool          `env:"DASHBOARD_AUTO_REFRESH,default=true"`
	DashboardListLimit       int           `env:"DASHBOARD_LIST_LIMIT,default=50"`
	DashboardRecentWindow    time.Duration `env:"DASHBOARD_RECENT_WINDOW,default=1h"`
	DashboardSnapshotTTL     time.Duration `env:"DASHBOARD_SNAPSHOT_TTL,default=30s"`
	DashboardConsistentStats bool          `env:"DASHBOARD_CONSISTENT_STATS,default=false"`
}

// PostgresEnvHint lists the variables an operator has to set to reach the database.
var PostgresEnvHint = []string{
	"NEON_HOST=your-neon-host",
	"NEON_DATABASE=your-database-name",
	"NEON_USER=your-username",
	"NEON_PASSWORD=your-password",
	"NEON_PORT=5432",
}

func Load(path string) error {
	c, err := Parse(path)
	if err != nil {
		return err
	}
	config = c
	return nil
}

// Parse reads the optional env file at path and maps the environment onto a
// new Config without installing it globally.
func Parse(path string) (*Config, error) {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return nil, errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return nil, errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	return c, nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

func (c *Config) PostgresConfig() pg.Config {
	return pg.Config{
		Host:            c.NeonHost,
		Port:            c.NeonPort,
		User:            c.NeonUser,
		Password:        c.NeonPassword,
		Database:        c.NeonDatabase,
		SSLMode:         c.NeonSSLMode,
		MaxOpenConns:    c.PgMaxOpenConns,
		MaxIdleConns:    c.PgMaxIdleConns,
		ConnMaxLifetime: c.PgConnMaxLifetime,
	}
}

// MissingPostgres returns the names of required NEON_* variables that are empty.
func (c *Config) MissingPostgres() []string {
	var missing []string
	if c.NeonHost == "" {
		missing = append(missing, "NEON_HOST")
	}
	if c.NeonDatabase == "" {
		missing = append(missing, "NEON_DATABASE")
	}
	if c.NeonUser == "" {
		missing = append(missing, "NEON_USER")
	}
	if c.NeonPassword == "" {
		missing = append(missing, "NEON_PASSWORD")
	}
	return missing
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
