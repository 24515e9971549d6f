// Package monitoring exposes the Prometheus metrics of the service.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CommissionsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affiliate_commissions_recorded_total",
			Help: "Commission transactions successfully recorded",
		},
	)

	CommissionCentavosTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affiliate_commission_centavos_total",
			Help: "Total commission amount credited, in centavos",
		},
	)

	CommissionBatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affiliate_commission_batch_failures_total",
			Help: "Per-referral failures during commission batch runs",
		},
	)

	WithdrawalsRequestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affiliate_withdrawals_requested_total",
			Help: "Withdrawal requests accepted (pending transactions created)",
		},
	)

	LedgerInconsistenciesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "affiliate_ledger_inconsistencies_total",
			Help: "Multi-step ledger operations that partially completed",
		},
	)
)
