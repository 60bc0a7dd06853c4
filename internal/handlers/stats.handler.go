package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/payment-tracker/internal/dashboard"
	"github.com/nimasrn/payment-tracker/internal/model"
	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
)

type StatsService interface {
	Compute(ctx context.Context) (*model.Stats, error)
}

type SnapshotSource interface {
	Latest(ctx context.Context) *dashboard.Snapshot
	Refresh(ctx context.Context) *dashboard.Snapshot
	Trigger()
}

type StatsHandler struct {
	svc       StatsService
	snapshots SnapshotSource
}

func RegisterStatsRoutes(e *router.Group, h *StatsHandler) {
	e.GET("/stats", h.GetStats)
	e.GET("/dashboard", h.GetSnapshot)
}

func NewStatsHandler(svc StatsService, snapshots SnapshotSource) *StatsHandler {
	return &StatsHandler{
		svc:       svc,
		snapshots: snapshots,
	}
}

func (h *StatsHandler) GetStats(ctx *xhttp.RequestCtx) {
	stats, err := h.svc.Compute(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, stats)
}

// GetSnapshot serves the latest render. ?fresh=1 forces a recompute.
func (h *StatsHandler) GetSnapshot(ctx *xhttp.RequestCtx) {
	var s *dashboard.Snapshot
	if query(ctx, "fresh") == "1" {
		s = h.snapshots.Refresh(ctx)
	} else {
		s = h.snapshots.Latest(ctx)
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}
