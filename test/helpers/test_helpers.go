package helpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/payment-tracker/internal/repository"
	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/nimasrn/payment-tracker/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB returns a handle over a private in-memory sqlite database with
// the payments table in place.
func SetupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&repository.PaymentEntity{}))
	return pg.Wrap(db)
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	// unique name per test, adapters are cached globally by name
	connName := fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	return mr, adapter
}

// CreateTestPayment inserts a row directly, bypassing the repository, so
// tests can place rows at arbitrary timestamps.
func CreateTestPayment(t *testing.T, db *pg.DB, name, amount, status string, createdAt time.Time) *repository.PaymentEntity {
	t.Helper()
	p := &repository.PaymentEntity{
		CustomerName:  name,
		Amount:        decimal.RequireFromString(amount),
		Currency:      "USD",
		Status:        status,
		PaymentMethod: "credit_card",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	require.NoError(t, db.Write(context.Background()).Create(p).Error)
	return p
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}
