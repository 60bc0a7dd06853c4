package prom

import (
	"sync"

	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemPayments  = "payments"
	SystemDashboard = "dashboard"
)

const (
	MetricTodayCount        = "today_count"
	MetricTodayTotal        = "today_total"
	MetricRecentActivity    = "recent_activity"
	MetricStatusCount       = "status_count"
	MetricOperationFailures = "operation_failures_total"
	MetricRefreshDuration   = "refresh_duration_seconds"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionGauges = make(map[string]prometheus.Gauge)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createGauge(SystemPayments, MetricTodayCount))
	hasError(createGauge(SystemPayments, MetricTodayTotal))
	hasError(createGauge(SystemPayments, MetricRecentActivity))
	hasError(createGaugeVec(SystemPayments, MetricStatusCount, []string{"status"}))
	hasError(createCounterVec(SystemPayments, MetricOperationFailures, []string{"operation"}))
	hasError(createHistogramVec(SystemDashboard, MetricRefreshDuration, []string{"result"}))

	if err == nil {
		MetricSystemEnabled = true
	}
	return err
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Error("[metrics-server] http listen error", "error", err)
	}
}

func createGauge(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionGauges[subsystem+name] = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	})
	return prometheus.Register(MetricCollectionGauges[subsystem+name])
}

func createGaugeVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionGaugeVec[subsystem+name] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionGaugeVec[subsystem+name])
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	return prometheus.Register(MetricCollectionHistogramVec[subsystem+name])
}

func SetGauge(subsystem, name string, value float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGauges[subsystem+name]; ok {
		v.Set(value)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

// ResetGaugeVec drops every label set so that values which disappeared
// are not reported with a stale count.
func ResetGaugeVec(subsystem, name string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.Reset()
	}
}

func SetGaugeVec(subsystem, name string, value float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Set(value)
		return
	}
	logger.Warn("[metrics-server] gauge vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Inc()
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncOperationFailure(operation string) {
	IncCounterVec(SystemPayments, MetricOperationFailures, operation)
}

func AddRefreshDuration(seconds float64, result string) {
	AddHistogramVec(SystemDashboard, MetricRefreshDuration, seconds, result)
}

// SetPaymentStats publishes the dashboard figures as gauges.
func SetPaymentStats(todayCount int64, todayTotal float64, recent int64, distribution map[string]int64) {
	SetGauge(SystemPayments, MetricTodayCount, float64(todayCount))
	SetGauge(SystemPayments, MetricTodayTotal, todayTotal)
	SetGauge(SystemPayments, MetricRecentActivity, float64(recent))
	ResetGaugeVec(SystemPayments, MetricStatusCount)
	for status, count := range distribution {
		SetGaugeVec(SystemPayments, MetricStatusCount, float64(count), status)
	}
}
