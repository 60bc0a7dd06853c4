package handlers

import (
	"bytes"
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/payment-tracker/internal/dashboard"
	"github.com/nimasrn/payment-tracker/internal/model"
	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/nimasrn/payment-tracker/web"
	"github.com/shopspring/decimal"
)

type DashboardOption struct {
	RefreshInterval time.Duration
	AutoRefresh     bool
	// DatabaseReady is false when startup could not open the database.
	DatabaseReady bool
	Hint          []string
	Missing       []string
}

type DashboardHandler struct {
	payments  PaymentService
	snapshots SnapshotSource
	option    DashboardOption
	templates *template.Template
}

func RegisterDashboardRoutes(r *router.Router, h *DashboardHandler) {
	r.GET("/", h.GetDashboard)
	r.POST("/dashboard/payments", h.SubmitPayment)
	r.POST("/dashboard/status", h.SubmitStatus)
}

func NewDashboardHandler(payments PaymentService, snapshots SnapshotSource, option DashboardOption) (*DashboardHandler, error) {
	tmpl, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{
		payments:  payments,
		snapshots: snapshots,
		option:    option,
		templates: tmpl,
	}, nil
}

type flash struct {
	Kind    string
	Message string
}

type statusBar struct {
	Status  model.PaymentStatus
	Count   int64
	Percent int
}

type dashboardView struct {
	GeneratedAt    string
	AutoRefresh    bool
	RefreshSeconds int
	Flash          *flash
	ShowHint       bool
	Hint           []string
	Missing        []string

	TodayCount     int64
	TodayTotal     string
	Pending        int64
	RecentActivity int64
	StatsError     string
	Bars           []statusBar

	Payments      []*model.Payment
	PaymentsError string

	Currencies []model.Currency
	Methods    []model.PaymentMethod
	Statuses   []model.PaymentStatus
}

func (h *DashboardHandler) GetDashboard(ctx *xhttp.RequestCtx) {
	s := h.snapshots.Latest(ctx)
	view := h.view(s)
	view.AutoRefresh = h.option.AutoRefresh && query(ctx, "refresh") != "off"
	if msg := query(ctx, "msg"); msg != "" {
		kind := query(ctx, "kind")
		if kind != "error" {
			kind = "ok"
		}
		view.Flash = &flash{Kind: kind, Message: msg}
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "dashboard_page", view); err != nil {
		logger.Error("[dashboard] template execution failed", "error", err)
		ctx.Error(err.Error(), xhttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(xhttp.StatusOK)
	ctx.SetBody(buf.Bytes())
}

func (h *DashboardHandler) SubmitPayment(ctx *xhttp.RequestCtx) {
	amount, err := decimal.NewFromString(strings.TrimSpace(form(ctx, "amount")))
	if err != nil {
		h.redirect(ctx, "error", "Amount must be a number")
		return
	}
	p, err := h.payments.Insert(ctx, model.PaymentCreateRequest{
		CustomerName:  strings.TrimSpace(form(ctx, "customer_name")),
		Amount:        amount,
		Currency:      model.Currency(form(ctx, "currency")),
		PaymentMethod: model.PaymentMethod(form(ctx, "payment_method")),
	})
	if err != nil {
		h.redirect(ctx, "error", "Failed to add payment: "+err.Error())
		return
	}
	h.snapshots.Refresh(ctx)
	h.redirect(ctx, "ok", "Payment #"+strconv.FormatInt(p.ID, 10)+" added")
}

func (h *DashboardHandler) SubmitStatus(ctx *xhttp.RequestCtx) {
	id, err := strconv.ParseInt(form(ctx, "id"), 10, 64)
	if err != nil {
		h.redirect(ctx, "error", "Select a payment to update")
		return
	}
	status := model.PaymentStatus(form(ctx, "status"))
	if ok, err := h.payments.UpdateStatus(ctx, id, status); !ok {
		msg := "Failed to update payment #" + strconv.FormatInt(id, 10)
		if err != nil {
			msg += ": " + err.Error()
		}
		h.redirect(ctx, "error", msg)
		return
	}
	h.snapshots.Refresh(ctx)
	h.redirect(ctx, "ok", "Payment #"+strconv.FormatInt(id, 10)+" is now "+string(status))
}

func (h *DashboardHandler) redirect(ctx *xhttp.RequestCtx, kind, msg string) {
	q := url.Values{}
	q.Set("kind", kind)
	q.Set("msg", msg)
	ctx.Redirect("/?"+q.Encode(), xhttp.StatusSeeOther)
}

func (h *DashboardHandler) view(s *dashboard.Snapshot) dashboardView {
	v := dashboardView{
		RefreshSeconds: int(h.option.RefreshInterval / time.Second),
		ShowHint:       !h.option.DatabaseReady,
		Hint:           h.option.Hint,
		Missing:        h.option.Missing,
		TodayTotal:     "0.00",
		Payments:       []*model.Payment{},
		Currencies:     model.Currencies,
		Methods:        model.PaymentMethods,
		Statuses:       model.PaymentStatuses,
	}
	if v.RefreshSeconds < 1 {
		v.RefreshSeconds = 1
	}
	if s == nil {
		return v
	}

	v.GeneratedAt = s.GeneratedAt.Format("2006-01-02 15:04:05")
	v.StatsError = s.StatsError
	v.PaymentsError = s.PaymentsError
	if s.Payments != nil {
		v.Payments = s.Payments
	}
	if st := s.Stats; st != nil {
		v.TodayCount = st.TodayCount
		v.TodayTotal = st.TodayTotal.StringFixed(2)
		v.Pending = st.Pending()
		v.RecentActivity = st.RecentActivity
		v.Bars = statusBars(st.StatusDistribution)
	}
	return v
}

// statusBars orders the distribution by the known status list, unknown
// statuses last, and scales each bar against the largest bucket.
func statusBars(dist map[model.PaymentStatus]int64) []statusBar {
	var largest int64
	for _, c := range dist {
		if c > largest {
			largest = c
		}
	}
	order := append([]model.PaymentStatus{}, model.PaymentStatuses...)
	var unknown []model.PaymentStatus
	for status := range dist {
		if !status.Valid() {
			unknown = append(unknown, status)
		}
	}
	slices.Sort(unknown)
	order = append(order, unknown...)

	var bars []statusBar
	for _, status := range order {
		c, ok := dist[status]
		if !ok || c == 0 {
			continue
		}
		bars = append(bars, statusBar{
			Status:  status,
			Count:   c,
			Percent: int(c * 100 / largest),
		})
	}
	return bars
}
