package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/nimasrn/payment-tracker/pkg/prom"
	pkgerrors "github.com/pkg/errors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

var ErrInvalidStatus = fmt.Errorf("%w: unsupported status", model.ErrValidation)

type PaymentRepository interface {
	List(ctx context.Context, limit int) ([]*model.Payment, error)
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error
	GetByID(ctx context.Context, id int64) (*model.Payment, error)
}

// PaymentService is the boundary the dashboard and the CLI talk to. Every
// failure is logged and counted here, callers get a fallback value and the
// error.
type PaymentService struct {
	repo PaymentRepository
}

func NewPaymentService(repo PaymentRepository) *PaymentService {
	return &PaymentService{repo: repo}
}

func (s *PaymentService) List(ctx context.Context, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	items, err := s.repo.List(ctx, limit)
	if err != nil {
		s.fail("list", err, "limit", limit)
		return []*model.Payment{}, pkgerrors.Wrap(err, "list payments")
	}
	if items == nil {
		items = []*model.Payment{}
	}
	return items, nil
}

func (s *PaymentService) Insert(ctx context.Context, req model.PaymentCreateRequest) (*model.Payment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := &model.Payment{
		CustomerName:  req.CustomerName,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentMethod: req.PaymentMethod,
		Status:        model.PaymentStatusPending,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.fail("insert", err, "customer_name", req.CustomerName)
		return nil, pkgerrors.Wrap(err, "insert payment")
	}
	logger.Info("payment added", "id", created.ID, "amount", created.Amount.StringFixed(2), "currency", created.Currency)
	return created, nil
}

// UpdateStatus reports true only when the row exists and was written.
// Setting the status a payment already has is still a successful update.
func (s *PaymentService) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) (bool, error) {
	if !status.Valid() {
		return false, pkgerrors.Wrapf(ErrInvalidStatus, "status %q", status)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.fail("update_status", err, "id", id, "status", status)
		return false, pkgerrors.Wrapf(err, "update payment %d", id)
	}
	logger.Info("payment status updated", "id", id, "status", status)
	return true, nil
}

func (s *PaymentService) Get(ctx context.Context, id int64) (*model.Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.fail("get", err, "id", id)
		return nil, pkgerrors.Wrapf(err, "get payment %d", id)
	}
	return p, nil
}

func (s *PaymentService) fail(operation string, err error, keysAndValues ...any) {
	prom.IncOperationFailure(operation)
	fields := append([]any{"operation", operation, "error", err}, keysAndValues...)
	if errors.Is(err, context.Canceled) {
		logger.Warn("payment operation cancelled", fields...)
		return
	}
	logger.Error("payment operation failed", fields...)
}
