package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayment(name, amount string) *model.Payment {
	return &model.Payment{
		CustomerName:  name,
		Amount:        decimal.RequireFromString(amount),
		Currency:      model.CurrencyUSD,
		PaymentMethod: model.PaymentMethodCreditCard,
	}
}

func TestPaymentRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	t.Run("create payment successfully", func(t *testing.T) {
		created, err := repo.Create(ctx, newPayment("Alice", "49.99"))
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Alice", created.CustomerName)
		assert.True(t, decimal.RequireFromString("49.99").Equal(created.Amount))
		assert.Equal(t, model.PaymentStatusPending, created.Status)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
	})

	t.Run("caller status is ignored", func(t *testing.T) {
		p := newPayment("Bob", "10.00")
		p.Status = model.PaymentStatusCompleted

		created, err := repo.Create(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, created.Status)

		stored, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, stored.Status)
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := map[int64]bool{}
		for i := 0; i < 5; i++ {
			created, err := repo.Create(ctx, newPayment("Carol", "1.50"))
			require.NoError(t, err)
			assert.False(t, seen[created.ID])
			seen[created.ID] = true
		}
	})
}

func TestPaymentRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	clock := newTestClock(time.Now().Add(-time.Hour))
	repo := NewPaymentRepository(db).WithClock(clock.Now)
	ctx := context.Background()

	t.Run("empty table", func(t *testing.T) {
		payments, err := repo.List(ctx, 50)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	var ids []int64
	for i := 0; i < 5; i++ {
		created, err := repo.Create(ctx, newPayment("Customer", "5.00"))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	t.Run("limit caps the result", func(t *testing.T) {
		payments, err := repo.List(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, payments, 3)
	})

	t.Run("newest first", func(t *testing.T) {
		payments, err := repo.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, payments, 5)
		assert.Equal(t, ids[4], payments[0].ID)
		for i := 1; i < len(payments); i++ {
			assert.False(t, payments[i-1].CreatedAt.Before(payments[i].CreatedAt))
		}
	})

	t.Run("non-positive limit", func(t *testing.T) {
		_, err := repo.List(ctx, 0)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestPaymentRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t).DB
	clock := newTestClock(time.Now().Add(-time.Hour))
	repo := NewPaymentRepository(db).WithClock(clock.Now)
	ctx := context.Background()

	created, err := repo.Create(ctx, newPayment("Alice", "49.99"))
	require.NoError(t, err)

	t.Run("status and updated_at change together", func(t *testing.T) {
		before, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)

		err = repo.UpdateStatus(ctx, created.ID, model.PaymentStatusCompleted)
		require.NoError(t, err)

		after, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, after.Status)
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
		assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
	})

	t.Run("same status twice", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, created.ID, model.PaymentStatusRefunded))
		require.NoError(t, repo.UpdateStatus(ctx, created.ID, model.PaymentStatusRefunded))

		after, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusRefunded, after.Status)
	})

	t.Run("any transition is allowed", func(t *testing.T) {
		for _, s := range []model.PaymentStatus{model.PaymentStatusFailed, model.PaymentStatusPending, model.PaymentStatusCompleted} {
			require.NoError(t, repo.UpdateStatus(ctx, created.ID, s))
		}
	})

	t.Run("payment not found", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 999, model.PaymentStatusCompleted)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestPaymentRepository_GetByID(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPaymentRepository_Stats(t *testing.T) {
	tdb := setupTestDB(t)
	repo := NewPaymentRepository(tdb.DB)
	ctx := context.Background()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	nextDay := day.AddDate(0, 0, 1)

	t.Run("empty table", func(t *testing.T) {
		count, total, err := repo.TodaySummary(ctx, day, nextDay)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
		assert.True(t, total.IsZero())

		dist, err := repo.StatusDistribution(ctx)
		require.NoError(t, err)
		assert.Empty(t, dist)

		recent, err := repo.CountSince(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, int64(0), recent)
	})

	seed := []PaymentEntity{
		{CustomerName: "in-1", Amount: decimal.RequireFromString("10.50"), Status: "pending", CreatedAt: day.Add(11*time.Hour + 30*time.Minute)},
		{CustomerName: "in-2", Amount: decimal.RequireFromString("20.25"), Status: "completed", CreatedAt: day.Add(10 * time.Hour)},
		{CustomerName: "before", Amount: decimal.RequireFromString("99.00"), Status: "pending", CreatedAt: day.Add(-time.Hour)},
		{CustomerName: "after", Amount: decimal.RequireFromString("7.00"), Status: "failed", CreatedAt: nextDay},
	}
	for i := range seed {
		seed[i].Currency = "EUR"
		seed[i].PaymentMethod = "paypal"
		seed[i].UpdatedAt = seed[i].CreatedAt
		require.NoError(t, tdb.rawDB.Create(&seed[i]).Error)
	}

	t.Run("today summary uses a half-open window", func(t *testing.T) {
		count, total, err := repo.TodaySummary(ctx, day, nextDay)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.True(t, decimal.RequireFromString("30.75").Equal(total), total.String())
	})

	t.Run("status distribution omits empty statuses", func(t *testing.T) {
		dist, err := repo.StatusDistribution(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[model.PaymentStatus]int64{
			model.PaymentStatusPending:   2,
			model.PaymentStatusCompleted: 1,
			model.PaymentStatusFailed:    1,
		}, dist)
		_, ok := dist[model.PaymentStatusRefunded]
		assert.False(t, ok)
	})

	t.Run("count since is inclusive", func(t *testing.T) {
		recent, err := repo.CountSince(ctx, day.Add(11*time.Hour+30*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(2), recent)
	})
}

func TestPaymentRepository_NoConnection(t *testing.T) {
	repo := NewPaymentRepository(nil)
	ctx := context.Background()

	payments, err := repo.List(ctx, 50)
	assert.ErrorIs(t, err, pg.ErrNoConnection)
	assert.Empty(t, payments)

	_, err = repo.Create(ctx, newPayment("Alice", "1.00"))
	assert.ErrorIs(t, err, pg.ErrNoConnection)

	err = repo.UpdateStatus(ctx, 1, model.PaymentStatusCompleted)
	assert.ErrorIs(t, err, pg.ErrNoConnection)

	_, _, err = repo.TodaySummary(ctx, time.Now(), time.Now())
	assert.ErrorIs(t, err, pg.ErrNoConnection)

	_, err = repo.StatusDistribution(ctx)
	assert.ErrorIs(t, err, pg.ErrNoConnection)

	_, err = repo.CountSince(ctx, time.Now())
	assert.ErrorIs(t, err, pg.ErrNoConnection)
}
