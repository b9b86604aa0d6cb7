package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetingd_active_sessions",
		Help: "Number of active capture sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetingd_sessions_total",
		Help: "Total number of sessions processed",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetingd_session_duration_seconds",
		Help:    "Duration of capture sessions in seconds",
		Buckets: []float64{10, 30, 60, 300, 600, 1800, 3600},
	})

	// Capture metrics
	chunksCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetingd_chunks_captured_total",
		Help: "Total audio chunks read from the capture device",
	})

	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingd_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "captured" or "persisted"

	// ASR metrics
	asrRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingd_asr_requests_total",
		Help: "Total number of ASR requests",
	}, []string{"status"})

	asrLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetingd_asr_latency_seconds",
		Help:    "ASR request latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Analysis stage metrics
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meetingd_stage_duration_seconds",
		Help:    "Duration of analysis stages in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
	}, []string{"stage"})

	stageOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingd_stage_outcomes_total",
		Help: "Analysis stage outcomes",
	}, []string{"stage", "status"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingd_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "meetingd_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetingd_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// Metrics tracks metrics for a single session
type Metrics struct {
	sessionID    string
	startTime    time.Time
	asrStartTime time.Time
	mu           sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	duration := time.Since(m.startTime).Seconds()
	sessionDuration.Observe(duration)
}

// RecordChunkCaptured records one chunk read from the capture device
func (m *Metrics) RecordChunkCaptured(bytes int64) {
	chunksCaptured.Inc()
	audioBytesProcessed.WithLabelValues("captured").Add(float64(bytes))
}

// RecordAudioPersisted records audio bytes written to the session WAV file
func (m *Metrics) RecordAudioPersisted(bytes int64) {
	audioBytesProcessed.WithLabelValues("persisted").Add(float64(bytes))
}

// RecordASRStart records the start of an ASR request
func (m *Metrics) RecordASRStart() {
	m.mu.Lock()
	m.asrStartTime = time.Now()
	m.mu.Unlock()
}

// RecordASREnd records the end of an ASR request
func (m *Metrics) RecordASREnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.asrStartTime.IsZero() {
		latency := time.Since(m.asrStartTime).Seconds()
		asrLatency.Observe(latency)
	}

	status := "success"
	if !success {
		status = "error"
	}
	asrRequests.WithLabelValues(status).Inc()
}

// RecordStage records the outcome and duration of one analysis stage
func (m *Metrics) RecordStage(stage string, start time.Time, success bool) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	stageOutcomes.WithLabelValues(stage, status).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
