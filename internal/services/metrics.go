package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_booking_outcomes_total",
			Help: "Booking workflow results by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	listingSources = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_class_listings_total",
			Help: "Class listings served by data source",
		},
		[]string{"source", "degraded"},
	)
)

func recordOutcome(operation string, outcome CheckInOutcome) {
	bookingOutcomes.WithLabelValues(operation, string(outcome)).Inc()
}

func recordListing(source string, degraded bool) {
	label := "false"
	if degraded {
		label = "true"
	}
	listingSources.WithLabelValues(source, label).Inc()
}
