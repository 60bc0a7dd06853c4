package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) TodaySummary(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockStatsRepository) StatusDistribution(ctx context.Context) (map[model.PaymentStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.PaymentStatus]int64), args.Error(1)
}

func (m *MockStatsRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2026, 3, 10, 15, 4, 5, 0, time.Local)
	from, to := DayBounds(at)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local), from)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.Local), to)
}

func TestStatsService_Compute(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	from, to := DayBounds(now)

	t.Run("figures", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("TodaySummary", ctx, from, to).Return(int64(2), decimal.RequireFromString("30.754"), nil)
		repo.On("StatusDistribution", ctx).Return(map[model.PaymentStatus]int64{
			model.PaymentStatusPending:   2,
			model.PaymentStatusCompleted: 1,
		}, nil)
		repo.On("CountSince", ctx, now.Add(-time.Hour)).Return(int64(1), nil)

		stats, err := NewStatsService(repo, 0).WithClock(func() time.Time { return now }).Compute(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.TodayCount)
		assert.Equal(t, "30.75", stats.TodayTotal.StringFixed(2))
		assert.Equal(t, int64(2), stats.Pending())
		assert.Equal(t, int64(1), stats.RecentActivity)
		repo.AssertExpectations(t)
	})

	t.Run("empty table", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("TodaySummary", ctx, from, to).Return(int64(0), decimal.Zero, nil)
		repo.On("StatusDistribution", ctx).Return(nil, nil)
		repo.On("CountSince", ctx, now.Add(-30*time.Minute)).Return(int64(0), nil)

		stats, err := NewStatsService(repo, 30*time.Minute).WithClock(func() time.Time { return now }).Compute(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.TodayCount)
		assert.Equal(t, "0.00", stats.TodayTotal.StringFixed(2))
		assert.NotNil(t, stats.StatusDistribution)
		assert.Empty(t, stats.StatusDistribution)
		assert.Zero(t, stats.Pending())
	})

	t.Run("query failure yields nil", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("TodaySummary", ctx, from, to).Return(int64(0), decimal.Zero, nil)
		repo.On("StatusDistribution", ctx).Return(nil, errors.New("relation \"payments\" does not exist"))

		stats, err := NewStatsService(repo, 0).WithClock(func() time.Time { return now }).Compute(ctx)
		assert.Nil(t, stats)
		assert.ErrorContains(t, err, "status_distribution")
		repo.AssertNotCalled(t, "CountSince", mock.Anything, mock.Anything)
	})

	t.Run("no connection", func(t *testing.T) {
		repo := new(MockStatsRepository)
		repo.On("TodaySummary", ctx, from, to).Return(int64(0), decimal.Zero, pg.ErrNoConnection)

		stats, err := NewStatsService(repo, 0).WithClock(func() time.Time { return now }).Compute(ctx)
		assert.Nil(t, stats)
		assert.ErrorIs(t, err, pg.ErrNoConnection)
	})
}

type txKey struct{}

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	args := m.Called(ctx, opts)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, txKey{}, "tx"))
}

func TestStatsService_ComputeWithSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.Local)
	from, to := DayBounds(now)
	inTx := mock.MatchedBy(func(c context.Context) bool { return c.Value(txKey{}) == "tx" })

	t.Run("queries share one read-only transaction", func(t *testing.T) {
		tx := new(MockTransactor)
		tx.On("WithinTransaction", ctx, []*sql.TxOptions{SnapshotTxOptions}).Return(nil).Once()
		repo := new(MockStatsRepository)
		repo.On("TodaySummary", inTx, from, to).Return(int64(1), decimal.RequireFromString("5"), nil)
		repo.On("StatusDistribution", inTx).Return(map[model.PaymentStatus]int64{model.PaymentStatusPending: 1}, nil)
		repo.On("CountSince", inTx, now.Add(-time.Hour)).Return(int64(1), nil)

		stats, err := NewStatsService(repo, 0).WithSnapshot(tx).WithClock(func() time.Time { return now }).Compute(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.TodayCount)
		assert.Equal(t, int64(1), stats.Pending())
		assert.True(t, SnapshotTxOptions.ReadOnly)
		tx.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("begin failure", func(t *testing.T) {
		tx := new(MockTransactor)
		tx.On("WithinTransaction", ctx, mock.Anything).Return(errors.New("too many connections"))
		repo := new(MockStatsRepository)

		stats, err := NewStatsService(repo, 0).WithSnapshot(tx).WithClock(func() time.Time { return now }).Compute(ctx)
		assert.Nil(t, stats)
		assert.ErrorContains(t, err, "stats snapshot")
		repo.AssertNotCalled(t, "TodaySummary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("query failure inside transaction", func(t *testing.T) {
		tx := new(MockTransactor)
		tx.On("WithinTransaction", ctx, mock.Anything).Return(nil)
		repo := new(MockStatsRepository)
		repo.On("TodaySummary", inTx, from, to).Return(int64(0), decimal.Zero, pg.ErrNoConnection)

		stats, err := NewStatsService(repo, 0).WithSnapshot(tx).WithClock(func() time.Time { return now }).Compute(ctx)
		assert.Nil(t, stats)
		assert.ErrorIs(t, err, pg.ErrNoConnection)
		assert.ErrorContains(t, err, "today_summary")
	})
}

func TestHealthService_Get(t *testing.T) {
	assert.ErrorIs(t, NewHealthService(nil).Get(context.Background()), pg.ErrNoConnection)

	var db *pg.DB
	assert.ErrorIs(t, NewHealthService(db).Get(context.Background()), pg.ErrNoConnection)
}
