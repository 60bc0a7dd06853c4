package services

import (
	"context"

	"github.com/nimasrn/payment-tracker/pkg/pg"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	db Pinger
}

func NewHealthService(db Pinger) *HealthService {
	return &HealthService{db: db}
}

// Get returns nil when the database answers. A service built without a
// database reports pg.ErrNoConnection.
func (s *HealthService) Get(ctx context.Context) error {
	if s.db == nil {
		return pg.ErrNoConnection
	}
	return s.db.Ping(ctx)
}
