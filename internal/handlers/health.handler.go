package handlers

import (
	"context"

	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
)

type HealthService interface {
	Get(ctx context.Context) error
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// GetHealth reports the database reachability. The process itself is up
// whenever this answers, so a missing database is 503 rather than a crash.
func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.svc.Get(ctx); err != nil {
		writeJSON(ctx, statusFor(err), map[string]string{"status": "degraded", "database": err.Error()})
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
