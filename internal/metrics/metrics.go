package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	PaymentsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payments_completed_total",
		Help: "Completed payments by method",
	}, []string{"method"})

	PaymentsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payments_failed_total",
		Help: "Failed payments by method",
	}, []string{"method"})

	PointsEarned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_loyalty_points_earned_total",
		Help: "Loyalty points credited to customers",
	})

	PointsRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_loyalty_points_redeemed_total",
		Help: "Loyalty points spent by customers",
	})

	TransfersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_stock_transfers_completed_total",
		Help: "Stock transfers that reached completed",
	})
)
