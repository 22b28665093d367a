package rocketbot

import (
	"time"
)

// MetricType represents the type of metric.
type MetricType int

const (
	// MetricTypeCounter is a monotonically increasing counter.
	MetricTypeCounter MetricType = 0
	// MetricTypeGauge is a value that can go up and down.
	MetricTypeGauge MetricType = 1
	// MetricTypeHistogram tracks distribution of values.
	MetricTypeHistogram MetricType = 2
)

// String returns the string representation of the metric type.
func (t MetricType) String() string {
	switch t {
	case MetricTypeCounter:
		return "counter"
	case MetricTypeGauge:
		return "gauge"
	case MetricTypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// MetricLabels represents key-value pairs for metric labels.
type MetricLabels map[string]string

// Metrics defines the interface for collecting metrics.
type Metrics interface {
	// Counter returns a counter metric.
	Counter(name string, labels MetricLabels) Counter

	// Gauge returns a gauge metric.
	Gauge(name string, labels MetricLabels) Gauge

	// Histogram returns a histogram metric.
	Histogram(name string, labels MetricLabels) Histogram
}

// Counter is a monotonically increasing counter.
type Counter interface {
	// Inc increments the counter by 1.
	Inc()

	// Add adds the given value to the counter.
	Add(delta float64)

	// Value returns the current value.
	Value() float64
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	// Set sets the gauge to the given value.
	Set(value float64)

	// Inc increments the gauge by 1.
	Inc()

	// Dec decrements the gauge by 1.
	Dec()

	// Add adds the given value to the gauge.
	Add(delta float64)

	// Sub subtracts the given value from the gauge.
	Sub(delta float64)

	// Value returns the current value.
	Value() float64
}

// Histogram tracks the distribution of values.
type Histogram interface {
	// Observe records a value.
	Observe(value float64)

	// ObserveDuration records a duration in seconds.
	ObserveDuration(d time.Duration)

	// Count returns the number of observations.
	Count() uint64

	// Sum returns the sum of all observations.
	Sum() float64
}

// NoOpMetrics is a no-op implementation of Metrics.
type NoOpMetrics struct{}

// Counter returns a no-op counter.
func (n *NoOpMetrics) Counter(_ string, _ MetricLabels) Counter {
	return &noOpCounter{}
}

// Gauge returns a no-op gauge.
func (n *NoOpMetrics) Gauge(_ string, _ MetricLabels) Gauge {
	return &noOpGauge{}
}

// Histogram returns a no-op histogram.
func (n *NoOpMetrics) Histogram(_ string, _ MetricLabels) Histogram {
	return &noOpHistogram{}
}

type noOpCounter struct{}

func (n *noOpCounter) Inc()           {}
func (n *noOpCounter) Add(_ float64)  {}
func (n *noOpCounter) Value() float64 { return 0 }

type noOpGauge struct{}

func (n *noOpGauge) Set(_ float64)  {}
func (n *noOpGauge) Inc()           {}
func (n *noOpGauge) Dec()           {}
func (n *noOpGauge) Add(_ float64)  {}
func (n *noOpGauge) Sub(_ float64)  {}
func (n *noOpGauge) Value() float64 { return 0 }

type noOpHistogram struct{}

func (n *noOpHistogram) Observe(_ float64)               {}
func (n *noOpHistogram) ObserveDuration(_ time.Duration) {}
func (n *noOpHistogram) Count() uint64                   { return 0 }
func (n *noOpHistogram) Sum() float64                    { return 0 }

// Standard metric names for the bot backend.
const (
	// MetricSessionAttempts is the total number of connection attempts.
	MetricSessionAttempts = "rocketbot_session_attempts_total"

	// MetricSessionFailures is the total number of failed attempts.
	MetricSessionFailures = "rocketbot_session_failures_total"

	// MetricSessionsSettled is the total number of sessions that reached
	// a settled subscription.
	MetricSessionsSettled = "rocketbot_sessions_settled_total"

	// MetricSessionConnected reports 1 while a session is live.
	MetricSessionConnected = "rocketbot_session_connected"

	// MetricMessagesReceived is the total number of inbound messages
	// dispatched to the handler.
	MetricMessagesReceived = "rocketbot_messages_received_total"

	// MetricMessagesSent is the total number of outbound send calls.
	MetricMessagesSent = "rocketbot_messages_sent_total"

	// MetricMessagesDropped is the total number of outbound messages
	// dropped before reaching the transport.
	MetricMessagesDropped = "rocketbot_messages_dropped_total"

	// MetricHeartbeats is the total number of heartbeat invocations.
	MetricHeartbeats = "rocketbot_heartbeats_total"

	// MetricSessionDuration is the observed duration of sessions.
	MetricSessionDuration = "rocketbot_session_duration_seconds"
)

// Standard metric labels.
const (
	// LabelStage is the session stage label (connect, login, subscribe, wait).
	LabelStage = "stage"

	// LabelCollection is the stream collection label.
	LabelCollection = "collection"

	// LabelMethod is the remote method label.
	LabelMethod = "method"
)

// BotMetrics provides convenience methods for common bot metrics.
type BotMetrics struct {
	metrics Metrics
}

// NewBotMetrics creates a new BotMetrics instance.
func NewBotMetrics(m Metrics) *BotMetrics {
	if m == nil {
		m = &NoOpMetrics{}
	}
	return &BotMetrics{metrics: m}
}

// AttemptStarted records the start of a connection attempt.
func (b *BotMetrics) AttemptStarted() {
	b.metrics.Counter(MetricSessionAttempts, nil).Inc()
}

// AttemptFailed records a failed attempt at the given stage.
func (b *BotMetrics) AttemptFailed(stage string) {
	b.metrics.Counter(MetricSessionFailures, MetricLabels{LabelStage: stage}).Inc()
}

// SessionSettled records a session whose subscription settled successfully.
func (b *BotMetrics) SessionSettled() {
	b.metrics.Counter(MetricSessionsSettled, nil).Inc()
	b.metrics.Gauge(MetricSessionConnected, nil).Set(1)
}

// SessionEnded records the end of a session and its duration.
func (b *BotMetrics) SessionEnded(d time.Duration) {
	b.metrics.Gauge(MetricSessionConnected, nil).Set(0)
	b.metrics.Histogram(MetricSessionDuration, nil).ObserveDuration(d)
}

// MessageReceived records an inbound message dispatch.
func (b *BotMetrics) MessageReceived(collection string) {
	b.metrics.Counter(MetricMessagesReceived, MetricLabels{LabelCollection: collection}).Inc()
}

// MessageSent records an outbound send call.
func (b *BotMetrics) MessageSent(method string) {
	b.metrics.Counter(MetricMessagesSent, MetricLabels{LabelMethod: method}).Inc()
}

// MessageDropped records an outbound message dropped before sending.
func (b *BotMetrics) MessageDropped() {
	b.metrics.Counter(MetricMessagesDropped, nil).Inc()
}

// Heartbeat records a heartbeat invocation.
func (b *BotMetrics) Heartbeat() {
	b.metrics.Counter(MetricHeartbeats, nil).Inc()
}
