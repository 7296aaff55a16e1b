package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// paymentsCreated counts payment creation attempts by outcome
	// (created, or the snake_case error kind).
	paymentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_created_total",
			Help: "Payment creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// keyGenerations counts key generation calls by outcome.
	keyGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excursion_key_generations_total",
			Help: "Excursion key generations by outcome.",
		},
		[]string{"outcome"},
	)

	// keyDraws records how many candidates a successful generation drew.
	keyDraws = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "excursion_key_draws",
			Help:    "Candidates drawn per successful key generation.",
			Buckets: []float64{1, 2, 3, 5, 10, 50, 100, 1000},
		},
	)

	// feedbackRelayed counts feedback relays by outcome.
	feedbackRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_relayed_total",
			Help: "Customer feedback relays to the staff chat by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(paymentsCreated, keyGenerations, keyDraws, feedbackRelayed)
}
