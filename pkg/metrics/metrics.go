// Package metrics provides Prometheus metrics for the eyelid calibration
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eyelid"

var (
	// Pipeline intake.
	eventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_ingested_total",
		Help:      "Calibration events accepted onto the bus, by kind.",
	}, []string{"kind"})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Calibration events rejected due to backpressure or a closed bus.",
	})
	busSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bus_size",
		Help:      "Current number of events waiting on the bus.",
	})

	// Capture.
	samplesCaptured = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_captured_total",
		Help:      "Samples appended to phase buffers, by phase and eye variant.",
	}, []string{"phase", "variant"})
	samplesDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "samples_deduplicated_total",
		Help:      "Samples skipped because their timestamp repeated.",
	})

	// Training.
	trainingsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trainings_started_total",
		Help:      "Training rounds started, by kind and eye variant.",
	}, []string{"kind", "variant"})
	trainingsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trainings_skipped_total",
		Help:      "Training rounds skipped for lack of usable data.",
	}, []string{"kind", "variant"})
	trainingsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trainings_failed_total",
		Help:      "Training rounds that ended in an error.",
	}, []string{"kind", "variant"})
	trainingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trainings_rejected_total",
		Help:      "Training requests rejected because a round was in flight.",
	}, []string{"kind", "variant"})
	trainingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "training_duration_seconds",
		Help:      "Wall-clock duration of completed training rounds.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"kind"})

	// Runtime mapping.
	predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Openness predictions served, by the model that answered.",
	}, []string{"source"})
	registeredModels = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "registered_models",
		Help:      "Number of trained models currently registered.",
	})

	// HTTP surface.
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint and status code.",
	}, []string{"endpoint", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)

// RecordEventIngested counts an accepted bus event.
func RecordEventIngested(kind string) { eventsIngested.WithLabelValues(kind).Inc() }

// RecordEventDropped counts a rejected bus event.
func RecordEventDropped() { eventsDropped.Inc() }

// UpdateBusSize sets the current bus depth.
func UpdateBusSize(n int) { busSize.Set(float64(n)) }

// RecordSampleCaptured counts a sample appended to a phase buffer.
func RecordSampleCaptured(phase, variant string) {
	samplesCaptured.WithLabelValues(phase, variant).Inc()
}

// RecordSampleDeduplicated counts a sample skipped by timestamp dedup.
func RecordSampleDeduplicated() { samplesDeduplicated.Inc() }

// RecordTrainingStarted counts a training round start.
func RecordTrainingStarted(kind, variant string) {
	trainingsStarted.WithLabelValues(kind, variant).Inc()
}

// RecordTrainingSkipped counts a training round skipped for lack of data.
func RecordTrainingSkipped(kind, variant string) {
	trainingsSkipped.WithLabelValues(kind, variant).Inc()
}

// RecordTrainingFailed counts a failed training round.
func RecordTrainingFailed(kind, variant string) {
	trainingsFailed.WithLabelValues(kind, variant).Inc()
}

// RecordTrainingRejected counts a training request refused by the
// in-flight guard.
func RecordTrainingRejected(kind, variant string) {
	trainingsRejected.WithLabelValues(kind, variant).Inc()
}

// ObserveTrainingDuration records the wall-clock time of a completed round.
func ObserveTrainingDuration(kind string, seconds float64) {
	trainingDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordPrediction counts a served prediction; source is "smooth", "binary"
// or "fallback".
func RecordPrediction(source string) { predictions.WithLabelValues(source).Inc() }

// UpdateRegisteredModels sets the number of registered models.
func UpdateRegisteredModels(n int) { registeredModels.Set(float64(n)) }

// RecordHTTPRequest counts a finished HTTP request.
func RecordHTTPRequest(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// ObserveHTTPDuration records request latency for an endpoint.
func ObserveHTTPDuration(endpoint string, seconds float64) {
	httpDuration.WithLabelValues(endpoint).Observe(seconds)
}
