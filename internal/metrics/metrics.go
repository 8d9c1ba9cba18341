package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Capture metrics
	FramesCaptured  prometheus.Counter
	CaptureFailures prometheus.Counter
	FrameSize       prometheus.Histogram

	// Encode metrics
	EncodeFailures prometheus.Counter

	// Session metrics
	ActiveSessions    prometheus.Gauge
	SessionsTotal     prometheus.Counter
	PartsSent         prometheus.Counter
	BytesSent         prometheus.Counter
	TransportFailures prometheus.Counter

	// Still endpoint metrics
	StillsServed prometheus.Counter

	// Supervisor metrics
	InitAttempts      prometheus.Counter
	NetworkReconnects prometheus.Counter
}

// New creates all metrics on a private registry, exposed via Handler.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		FramesCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_frames_captured_total",
			Help: "Total number of frames acquired from the camera",
		}),
		CaptureFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_capture_failures_total",
			Help: "Total number of failed frame acquisitions",
		}),
		FrameSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "helmcam_frame_size_bytes",
			Help:    "Size of captured frames in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 10), // 1KB to ~512KB
		}),

		EncodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_encode_failures_total",
			Help: "Total number of failed JPEG conversions",
		}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "helmcam_active_sessions",
			Help: "Number of currently streaming sessions",
		}),
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_sessions_total",
			Help: "Total number of stream sessions since service start",
		}),
		PartsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_parts_sent_total",
			Help: "Total number of multipart frames delivered",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_bytes_sent_total",
			Help: "Total payload bytes delivered to viewers",
		}),
		TransportFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_transport_failures_total",
			Help: "Total number of chunk writes that ended a session",
		}),

		StillsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_stills_served_total",
			Help: "Total number of still frames served",
		}),

		InitAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_init_attempts_total",
			Help: "Total number of camera initialization attempts",
		}),
		NetworkReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "helmcam_network_reconnects_total",
			Help: "Total number of wireless reconnection attempts",
		}),
	}
}

// Handler returns the exposition endpoint for this metrics set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFrameCaptured records a successful acquisition.
func (m *Metrics) RecordFrameCaptured(size int) {
	m.FramesCaptured.Inc()
	m.FrameSize.Observe(float64(size))
}

// RecordCaptureFailure records a failed acquisition.
func (m *Metrics) RecordCaptureFailure() {
	m.CaptureFailures.Inc()
}

// RecordEncodeFailure records a failed JPEG conversion.
func (m *Metrics) RecordEncodeFailure() {
	m.EncodeFailures.Inc()
}

// RecordSessionStart records a session opening.
func (m *Metrics) RecordSessionStart() {
	m.ActiveSessions.Inc()
	m.SessionsTotal.Inc()
}

// RecordSessionStop records a session ending.
func (m *Metrics) RecordSessionStop() {
	m.ActiveSessions.Dec()
}

// RecordPartSent records one multipart frame delivered.
func (m *Metrics) RecordPartSent(payloadLen int) {
	m.PartsSent.Inc()
	m.BytesSent.Add(float64(payloadLen))
}

// RecordTransportFailure records a chunk write that ended a session.
func (m *Metrics) RecordTransportFailure() {
	m.TransportFailures.Inc()
}

// RecordStillServed records a one-shot frame response.
func (m *Metrics) RecordStillServed() {
	m.StillsServed.Inc()
}

// RecordInitAttempt records one camera bring-up attempt.
func (m *Metrics) RecordInitAttempt() {
	m.InitAttempts.Inc()
}

// RecordNetworkReconnect records a steady-state reconnection attempt.
func (m *Metrics) RecordNetworkReconnect() {
	m.NetworkReconnects.Inc()
}
