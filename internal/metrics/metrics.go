// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aptracker_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aptracker_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	InvoiceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aptracker_invoice_transitions_total",
		Help: "Lifecycle actions applied to invoices.",
	}, []string{"action", "to"})

	InvoicesImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aptracker_invoices_imported_total",
		Help: "Bulk import rows by outcome.",
	}, []string{"outcome"})

	ForecastRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aptracker_forecast_runs_total",
		Help: "Forecast aggregations computed.",
	})

	ForecastOutflow = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aptracker_forecast_outflow",
		Help: "Total projected outflow of the last zero-delay forecast, in the reporting currency.",
	})
)
