package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/nimasrn/payment-tracker/internal/model"
	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	List(ctx context.Context, limit int) ([]*model.Payment, error)
	Insert(ctx context.Context, req model.PaymentCreateRequest) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) (bool, error)
	Get(ctx context.Context, id int64) (*model.Payment, error)
}

// RefreshTrigger is notified after every successful write.
type RefreshTrigger interface {
	Trigger()
}

type PaymentHandler struct {
	svc     PaymentService
	refresh RefreshTrigger
}

func RegisterPaymentRoutes(e *router.Group, h *PaymentHandler) {
	e.GET("/payments", h.ListPayments)
	e.POST("/payments", h.CreatePayment)
	e.GET("/payments/{id}", h.GetPayment)
	e.PATCH("/payments/{id}/status", h.UpdatePaymentStatus)
}

func NewPaymentHandler(svc PaymentService, refresh RefreshTrigger) *PaymentHandler {
	return &PaymentHandler{
		svc:     svc,
		refresh: refresh,
	}
}

type createPaymentRequest struct {
	CustomerName  string              `json:"customer_name"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      model.Currency      `json:"currency"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
}

type updateStatusRequest struct {
	Status model.PaymentStatus `json:"status"`
}

type listResponse struct {
	Items []*model.Payment `json:"items"`
	Count int              `json:"count"`
}

func (h *PaymentHandler) ListPayments(ctx *xhttp.RequestCtx) {
	limit := 0
	if v := query(ctx, "limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	items, err := h.svc.List(ctx, limit)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (h *PaymentHandler) GetPayment(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid payment id")
		return
	}
	p, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *PaymentHandler) CreatePayment(ctx *xhttp.RequestCtx) {
	var req createPaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p, err := h.svc.Insert(ctx, model.PaymentCreateRequest{
		CustomerName:  req.CustomerName,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	h.refresh.Trigger()
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *PaymentHandler) UpdatePaymentStatus(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid payment id")
		return
	}
	var req updateStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	ok, err := h.svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	h.refresh.Trigger()
	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"updated": ok})
}
