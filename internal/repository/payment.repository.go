package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidLimit    = errors.New("limit must be positive")
)

type PaymentRepository struct {
	*pg.DB
	now func() time.Time
}

func NewPaymentRepository(db *pg.DB) *PaymentRepository {
	return &PaymentRepository{
		DB:  db,
		now: time.Now,
	}
}

// WithClock replaces the time source used for created_at/updated_at.
func (r *PaymentRepository) WithClock(now func() time.Time) *PaymentRepository {
	r.now = now
	return r
}

// timestamp drops precision below what postgres stores so the returned
// model matches a later re-fetch.
func (r *PaymentRepository) timestamp() time.Time {
	return r.now().Truncate(time.Microsecond)
}

func (r *PaymentRepository) List(ctx context.Context, limit int) ([]*model.Payment, error) {
	if !r.Available() {
		return nil, pg.ErrNoConnection
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var entities []*PaymentEntity
	err := r.Read(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	return toPaymentModels(entities), nil
}

// Create inserts p as a new pending payment. Status and both timestamps are
// set here whatever the caller passed.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	if !r.Available() {
		return nil, pg.ErrNoConnection
	}

	entity := toPaymentEntity(p)
	now := r.timestamp()
	entity.ID = 0
	entity.Status = string(model.PaymentStatusPending)
	entity.CreatedAt = now
	entity.UpdatedAt = now

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toPaymentModel(entity), nil
}

// UpdateStatus rewrites status and updated_at in one statement. A missing id
// is reported as ErrPaymentNotFound.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error {
	if !r.Available() {
		return pg.ErrNoConnection
	}

	result := r.Write(ctx).
		Model(&PaymentEntity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": r.timestamp(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	if !r.Available() {
		return nil, pg.ErrNoConnection
	}

	var entity PaymentEntity
	err := r.Read(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return toPaymentModel(&entity), nil
}

type summaryRow struct {
	Count int64
	Total decimal.Decimal
}

// TodaySummary counts and sums payments created in [from, to).
func (r *PaymentRepository) TodaySummary(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error) {
	if !r.Available() {
		return 0, decimal.Zero, pg.ErrNoConnection
	}

	var row summaryRow
	err := r.Read(ctx).
		Model(&PaymentEntity{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&row).
		Error
	if err != nil {
		return 0, decimal.Zero, err
	}

	return row.Count, row.Total, nil
}

type statusCountRow struct {
	Status string
	Count  int64
}

// StatusDistribution maps each status present in the table to its row count.
func (r *PaymentRepository) StatusDistribution(ctx context.Context) (map[model.PaymentStatus]int64, error) {
	if !r.Available() {
		return nil, pg.ErrNoConnection
	}

	var rows []statusCountRow
	err := r.Read(ctx).
		Model(&PaymentEntity{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	dist := make(map[model.PaymentStatus]int64, len(rows))
	for _, row := range rows {
		dist[model.PaymentStatus(row.Status)] = row.Count
	}
	return dist, nil
}

func (r *PaymentRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	if !r.Available() {
		return 0, pg.ErrNoConnection
	}

	var count int64
	err := r.Read(ctx).
		Model(&PaymentEntity{}).
		Where("created_at >= ?", since).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
