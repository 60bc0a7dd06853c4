package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("NEON_HOST", "db.example.com")
	t.Setenv("NEON_DATABASE", "payments")
	t.Setenv("NEON_USER", "tracker")
	t.Setenv("NEON_PASSWORD", "secret")

	c, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, "5432", c.NeonPort)
	assert.Equal(t, "require", c.NeonSSLMode)
	assert.Equal(t, ":8080", c.HttpListenAddr)
	assert.Equal(t, 10*time.Second, c.DashboardRefreshInterval)
	assert.Equal(t, time.Hour, c.DashboardRecentWindow)
	assert.Equal(t, 50, c.DashboardListLimit)
	assert.True(t, c.DashboardAutoRefresh)
	assert.False(t, c.DashboardConsistentStats)
	assert.Empty(t, c.MissingPostgres())
	assert.False(t, c.RedisEnabled())

	pgc := c.PostgresConfig()
	assert.Equal(t, "db.example.com", pgc.Host)
	assert.Equal(t, "payments", pgc.Database)
	assert.Equal(t, "require", pgc.SSLMode)
	assert.NoError(t, pgc.Validate())
}

func TestParse_MissingPostgres(t *testing.T) {
	t.Setenv("NEON_HOST", "")
	t.Setenv("NEON_DATABASE", "")
	t.Setenv("NEON_USER", "")
	t.Setenv("NEON_PASSWORD", "")

	c, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, []string{"NEON_HOST", "NEON_DATABASE", "NEON_USER", "NEON_PASSWORD"}, c.MissingPostgres())
	assert.Error(t, c.PostgresConfig().Validate())
}

func TestParse_OnlyPasswordMissing(t *testing.T) {
	t.Setenv("NEON_HOST", "db.example.com")
	t.Setenv("NEON_DATABASE", "payments")
	t.Setenv("NEON_USER", "tracker")
	t.Setenv("NEON_PASSWORD", "")

	c, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, []string{"NEON_PASSWORD"}, c.MissingPostgres())
	assert.ErrorIs(t, c.PostgresConfig().Validate(), pg.ErrIncompleteConfig)
}

func TestParse_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "NEON_HOST=file-host\nDASHBOARD_REFRESH_INTERVAL=30s\nNEON_PORT=6543\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// godotenv never overrides variables that are already set
	t.Setenv("NEON_HOST", "")
	os.Unsetenv("NEON_HOST")
	t.Setenv("DASHBOARD_REFRESH_INTERVAL", "")
	os.Unsetenv("DASHBOARD_REFRESH_INTERVAL")
	t.Setenv("NEON_PORT", "")
	os.Unsetenv("NEON_PORT")

	c, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "file-host", c.NeonHost)
	assert.Equal(t, "6543", c.NeonPort)
	assert.Equal(t, 30*time.Second, c.DashboardRefreshInterval)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
