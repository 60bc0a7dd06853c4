package pg

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPort    = "5432"
	DefaultSSLMode = "require"
)

var ErrIncompleteConfig = errors.New("incomplete postgres configuration")

type Config struct {
	User     string
	Host     string
	Port     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c Config) withDefaults() Config {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = DefaultSSLMode
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.MaxIdleConns <= 0 || c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	return c
}

// Validate reports which required values are missing.
func (c Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteConfig, strings.Join(missing, ", "))
	}
	return nil
}

// DSN renders the libpq keyword/value connection string. Values are quoted
// so passwords with spaces or quotes survive.
func (c Config) DSN() string {
	c = c.withDefaults()
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		quote(c.Host), quote(c.User), quote(c.Password), quote(c.Database), quote(c.Port), quote(c.SSLMode))
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
