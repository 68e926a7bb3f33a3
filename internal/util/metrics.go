package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchaseAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_attempts_total",
		Help: "Total number of purchase submissions sent to the PSP",
	})

	PurchaseSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_success_total",
		Help: "Total number of purchases authorized and accepted",
	})

	PurchaseDeclinedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_declined_total",
		Help: "Total number of purchases declined by the PSP",
	}, []string{"code"})

	RiskRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_rejections_total",
		Help: "Total number of PSP-authorized transactions rejected by the 3DS policy",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Total number of orders completed with an authorized payment",
	})

	ReconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_runs_total",
		Help: "Total number of reconciliation passes started",
	})

	ReconcileChangedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_changed_total",
		Help: "Total number of payments finalized by reconciliation",
	})

	ReconcileRecordErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_record_errors_total",
		Help: "Total number of per-record errors during reconciliation",
	})

	PSPRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "psp_request_latency_seconds",
		Help:    "Latency of PSP API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
