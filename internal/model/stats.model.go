package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Stats holds the dashboard summary figures. They are derived from the table
// at query time and never persisted.
type Stats struct {
	TodayCount         int64                   `json:"today_count"`
	TodayTotal         decimal.Decimal         `json:"today_total"`
	StatusDistribution map[PaymentStatus]int64 `json:"status_distribution"`
	RecentActivity     int64                   `json:"recent_activity"`
}

func (s *Stats) Pending() int64 {
	if s == nil {
		return 0
	}
	return s.StatusDistribution[PaymentStatusPending]
}

// MarshalJSON writes today_total with exactly two decimals and adds the
// derived pending count.
func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	return json.Marshal(struct {
		plain
		TodayTotal string `json:"today_total"`
		Pending    int64  `json:"pending"`
	}{
		plain:      plain(s),
		TodayTotal: s.TodayTotal.StringFixed(AmountScale),
		Pending:    s.Pending(),
	})
}
