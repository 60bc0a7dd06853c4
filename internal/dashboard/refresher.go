package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/nimasrn/payment-tracker/pkg/prom"
)

const (
	DefaultInterval = 10 * time.Second
	MinInterval     = time.Second
	MaxInterval     = time.Hour
)

type PaymentLister interface {
	List(ctx context.Context, limit int) ([]*model.Payment, error)
}

type StatsComputer interface {
	Compute(ctx context.Context) (*model.Stats, error)
}

type Option func(r *Refresher)

func WithCache(cache SnapshotCache) Option {
	return func(r *Refresher) { r.cache = cache }
}

func WithListLimit(limit int) Option {
	return func(r *Refresher) { r.limit = limit }
}

func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// Refresher recomputes the dashboard on an interval and on demand, and fans
// every new snapshot out to its subscribers.
type Refresher struct {
	payments PaymentLister
	stats    StatsComputer
	cache    SnapshotCache
	interval time.Duration
	limit    int
	now      func() time.Time

	trigger chan struct{}
	seq     atomic.Uint64

	mu        sync.RWMutex
	latest    *Snapshot
	latestSeq uint64
	subs      map[int]chan *Snapshot
	nextID    int

	saveMu   sync.Mutex
	savedSeq uint64
}

func NewRefresher(payments PaymentLister, stats StatsComputer, interval time.Duration, opts ...Option) *Refresher {
	r := &Refresher{
		payments: payments,
		stats:    stats,
		interval: ClampInterval(interval),
		limit:    50,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
		subs:     make(map[int]chan *Snapshot),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClampInterval keeps the refresh period within [MinInterval, MaxInterval].
// Zero or negative means DefaultInterval.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Refresh builds a new snapshot and publishes it. It never returns nil.
// Refreshes may overlap; a snapshot is only published when no refresh that
// started after it has been published already.
func (r *Refresher) Refresh(ctx context.Context) *Snapshot {
	seq := r.seq.Add(1)
	start := time.Now()
	s := &Snapshot{GeneratedAt: r.now()}

	stats, err := r.stats.Compute(ctx)
	if err != nil {
		s.StatsError = err.Error()
	}
	s.Stats = stats

	items, err := r.payments.List(ctx, r.limit)
	if err != nil {
		s.PaymentsError = err.Error()
	}
	if items == nil {
		items = []*model.Payment{}
	}
	s.Payments = items

	result := "ok"
	if !s.Healthy() {
		result = "error"
	}
	prom.AddRefreshDuration(time.Since(start).Seconds(), result)

	if !r.publish(s, seq) {
		logger.Debug("[dashboard] dropped superseded snapshot", "seq", seq)
		return s
	}
	if stats != nil {
		distribution := make(map[string]int64, len(stats.StatusDistribution))
		for k, v := range stats.StatusDistribution {
			distribution[string(k)] = v
		}
		prom.SetPaymentStats(stats.TodayCount, stats.TodayTotal.InexactFloat64(), stats.RecentActivity, distribution)
	}
	r.save(ctx, s, seq)
	return s
}

func (r *Refresher) save(ctx context.Context, s *Snapshot, seq uint64) {
	if r.cache == nil {
		return
	}
	r.saveMu.Lock()
	defer r.saveMu.Unlock()
	if seq < r.savedSeq {
		return
	}
	if err := r.cache.Save(ctx, s); err != nil {
		logger.Warn("[dashboard] failed to cache snapshot", "error", err)
		return
	}
	r.savedSeq = seq
}

// Trigger asks the running loop for an immediate refresh. Calls made while a
// request is already pending are folded into it.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes once, then on every tick and trigger until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	logger.Info("[dashboard] refresher started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[dashboard] refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		case <-r.trigger:
			r.Refresh(ctx)
			ticker.Reset(r.interval)
		}
	}
}

// Subscribe registers a receiver for new snapshots. A subscriber that falls
// behind loses snapshots instead of stalling the refresher.
func (r *Refresher) Subscribe(buffer int) (<-chan *Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *Snapshot, buffer)

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Latest returns the newest snapshot known to this process, then the shared
// cache, and computes one as a last resort.
func (r *Refresher) Latest(ctx context.Context) *Snapshot {
	r.mu.RLock()
	s := r.latest
	r.mu.RUnlock()
	if s != nil {
		return s
	}

	if r.cache != nil {
		cached, err := r.cache.Load(ctx)
		if err != nil {
			logger.Warn("[dashboard] failed to read cached snapshot", "error", err)
		}
		if cached != nil {
			return cached
		}
	}
	return r.Refresh(ctx)
}

func (r *Refresher) publish(s *Snapshot, seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.latestSeq {
		return false
	}
	r.latest = s
	r.latestSeq = seq
	for _, ch := range r.subs {
		select {
		case ch <- s:
		default:
		}
	}
	return true
}
