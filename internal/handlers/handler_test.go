package handlers

import (
	"context"

	"github.com/nimasrn/payment-tracker/internal/dashboard"
	"github.com/nimasrn/payment-tracker/internal/model"
	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) List(ctx context.Context, limit int) ([]*model.Payment, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *MockPaymentService) Insert(ctx context.Context, req model.PaymentCreateRequest) (*model.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentService) Get(ctx context.Context, id int64) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Compute(ctx context.Context) (*model.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}

type MockSnapshotSource struct {
	mock.Mock
}

func (m *MockSnapshotSource) Latest(ctx context.Context) *dashboard.Snapshot {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*dashboard.Snapshot)
}

func (m *MockSnapshotSource) Refresh(ctx context.Context) *dashboard.Snapshot {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*dashboard.Snapshot)
}

func (m *MockSnapshotSource) Trigger() {
	m.Called()
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Get(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func setupFormContext(path string, body string) *xhttp.RequestCtx {
	ctx := setupTestContext("POST", path, []byte(body))
	ctx.Request.Header.SetContentType("application/x-www-form-urlencoded")
	return ctx
}
