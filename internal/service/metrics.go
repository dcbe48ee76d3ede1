package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargo_order_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})

	bidEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargo_bid_events_total",
		Help: "Bid lifecycle events by outcome.",
	}, []string{"event"})

	paymentAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargo_payment_attempts_total",
		Help: "PSP charge attempts by resulting status.",
	}, []string{"status"})

	payoutsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cargo_payouts_total",
		Help: "Driver payouts by transfer status.",
	}, []string{"status"})

	payoutBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cargo_payout_batch_duration_seconds",
		Help:    "Duration of weekly payout batch runs.",
		Buckets: prometheus.DefBuckets,
	})
)
