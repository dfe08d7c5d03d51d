// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/penwyp/go-pointer-monitor/internal/core/model"
)

const namespace = "pointer_monitor"

// Drop reasons.
const (
	ReasonPaused  = "paused"
	ReasonRegion  = "region"
	ReasonROI     = "roi"
	ReasonType    = "type"
	ReasonInvalid = "invalid"
)

// Metrics holds the pipeline counters on a private registry. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	eventsProcessed *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	eventsEvicted   prometheus.Counter
	playbackEmitted *prometheus.CounterVec
	recordingsSaved *prometheus.CounterVec
}

// New creates and registers the counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "processed_total",
				Help:      "Events that passed every filter, by type.",
			},
			[]string{"type"},
		),
		eventsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "dropped_total",
				Help:      "Events rejected by the pipeline, by reason.",
			},
			[]string{"reason"},
		),
		eventsEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "evicted_total",
				Help:      "Events evicted from the store at capacity.",
			},
		),
		playbackEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "playback",
				Name:      "emitted_total",
				Help:      "Synthetic events emitted during playback, by type.",
			},
			[]string{"type"},
		),
		recordingsSaved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "recordings",
				Name:      "saved_total",
				Help:      "Finished recordings, by persistence result.",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.eventsProcessed,
		m.eventsDropped,
		m.eventsEvicted,
		m.playbackEmitted,
		m.recordingsSaved,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EventProcessed(kind model.EventKind) {
	if m == nil {
		return
	}
	m.eventsProcessed.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) EventEvicted() {
	if m == nil {
		return
	}
	m.eventsEvicted.Inc()
}

func (m *Metrics) PlaybackEmitted(kind model.EventKind) {
	if m == nil {
		return
	}
	m.playbackEmitted.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RecordingSaved(saved bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !saved {
		result = "failed"
	}
	m.recordingsSaved.WithLabelValues(result).Inc()
}
