package dashboard

import (
	"time"

	"github.com/nimasrn/payment-tracker/internal/model"
)

// Snapshot is everything one render of the dashboard needs. A failing
// section carries its error text so the rest of the page still renders.
type Snapshot struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Stats         *model.Stats     `json:"stats"`
	StatsError    string           `json:"stats_error,omitempty"`
	Payments      []*model.Payment `json:"payments"`
	PaymentsError string           `json:"payments_error,omitempty"`
}

func (s *Snapshot) Healthy() bool {
	return s != nil && s.StatsError == "" && s.PaymentsError == ""
}
