package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anki_gateway_events_total",
			Help: "Total number of inbound conversation events",
		},
		[]string{"kind"},
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anki_gateway_enrichment_failures_total",
			Help: "Total number of failed AI enrichment calls",
		},
		[]string{"reason"},
	)

	EnrichmentLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "anki_gateway_enrichment_latency_seconds",
			Help: "AI enrichment latency in seconds",
		},
	)

	Commits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anki_gateway_commits_total",
			Help: "Total number of card commit attempts by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anki_gateway_active_sessions",
			Help: "Number of sessions with a workflow in progress",
		},
	)

	AnkiUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anki_gateway_anki_up",
			Help: "Whether the AnkiConnect endpoint answered the last probe",
		},
	)
)
