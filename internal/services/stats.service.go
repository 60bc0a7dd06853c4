package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/nimasrn/payment-tracker/pkg/prom"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const DefaultRecentWindow = time.Hour

type StatsRepository interface {
	TodaySummary(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error)
	StatusDistribution(ctx context.Context) (map[model.PaymentStatus]int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error, opts ...*sql.TxOptions) error
}

// SnapshotTxOptions asks for a read-only view that stays fixed for the whole
// transaction.
var SnapshotTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

type StatsService struct {
	repo   StatsRepository
	tx     Transactor
	now    func() time.Time
	recent time.Duration
}

func NewStatsService(repo StatsRepository, recent time.Duration) *StatsService {
	if recent <= 0 {
		recent = DefaultRecentWindow
	}
	return &StatsService{
		repo:   repo,
		now:    time.Now,
		recent: recent,
	}
}

func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// DayBounds returns the local calendar day containing t as [start, end).
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// WithSnapshot makes Compute run its queries in a single read-only
// transaction so the figures always agree with each other.
func (s *StatsService) WithSnapshot(tx Transactor) *StatsService {
	s.tx = tx
	return s
}

// Compute gathers the dashboard figures. Without WithSnapshot the three
// queries run independently, so a write landing between them can make the
// figures disagree slightly.
func (s *StatsService) Compute(ctx context.Context) (*model.Stats, error) {
	if s.tx == nil {
		return s.compute(ctx)
	}

	var (
		stats    *model.Stats
		queryErr error
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stats, queryErr = s.compute(ctx)
		return queryErr
	}, SnapshotTxOptions)
	switch {
	case queryErr != nil:
		return nil, queryErr
	case err != nil:
		return nil, s.fail("snapshot", err)
	}
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*model.Stats, error) {
	now := s.now().Local()
	from, to := DayBounds(now)

	count, total, err := s.repo.TodaySummary(ctx, from, to)
	if err != nil {
		return nil, s.fail("today_summary", err)
	}

	dist, err := s.repo.StatusDistribution(ctx)
	if err != nil {
		return nil, s.fail("status_distribution", err)
	}
	if dist == nil {
		dist = map[model.PaymentStatus]int64{}
	}

	recent, err := s.repo.CountSince(ctx, now.Add(-s.recent))
	if err != nil {
		return nil, s.fail("recent_activity", err)
	}

	return &model.Stats{
		TodayCount:         count,
		TodayTotal:         total.Round(2),
		StatusDistribution: dist,
		RecentActivity:     recent,
	}, nil
}

func (s *StatsService) fail(query string, err error) error {
	prom.IncOperationFailure("stats")
	logger.Error("stats query failed", "query", query, "error", err)
	return errors.Wrapf(err, "stats %s", query)
}
