package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LeaveSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_submissions_total",
		Help: "Leave submissions by requested type and outcome",
	}, []string{"leave_type", "outcome"})

	CreditMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_credit_mutations_total",
		Help: "Balance mutations written to the credit ledger, by credit type and source",
	}, []string{"credit_type", "source"})

	ApprovalDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_approval_decisions_total",
		Help: "Approval stage decisions, by stage and decision",
	}, []string{"stage", "decision"})

	AccrualEmployees = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_accrual_employees_total",
		Help: "Employees handled by accrual runs, by result",
	}, []string{"result"})

	AccrualDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leave_accrual_run_duration_seconds",
		Help:    "Wall time of a full accrual batch",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	CronRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_cron_runs_total",
		Help: "Scheduled job executions, by job and result",
	}, []string{"job", "result"})

	CronDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leave_cron_run_duration_seconds",
		Help:    "Wall time of scheduled job executions",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"job"})

	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leave_stream_subscribers",
		Help: "Open notification stream connections",
	})

	StreamDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_stream_events_dropped_total",
		Help: "Stream events not delivered, by reason",
	}, []string{"reason"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leave_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency labeled by the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
