package repository

import (
	"testing"
	"time"

	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

func setupTestDB(t *testing.T) *testDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every pooled connection to :memory: would get its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&PaymentEntity{})
	require.NoError(t, err)

	return &testDB{
		DB:    pg.Wrap(db),
		rawDB: db,
	}
}

// testClock hands out strictly increasing timestamps, one second apart.
type testClock struct {
	t time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{t: start}
}

func (c *testClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}
