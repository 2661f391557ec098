// Package metrics exposes Prometheus counters and histograms for codec
// operations, plus the runtime gauges the bundled admin server publishes.
// Uses the standard promauto factory and registration pattern, with
// codec-shaped instruments.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultRegistry = prometheus.DefaultRegisterer

// Recorder holds every metric instrument the codec publishes.
type Recorder struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	payloadBytes      *prometheus.CounterVec
	goroutines        prometheus.Gauge
	memoryAllocBytes  prometheus.Gauge
	memorySysBytes    prometheus.Gauge
}

// NewRecorder registers every instrument against the default Prometheus
// registry.
func NewRecorder() *Recorder {
	return newRecorderWithRegistry(defaultRegistry)
}

// newRecorderWithRegistry registers against reg, so tests can use a private
// registry and avoid collisions with other tests in the same process.
func newRecorderWithRegistry(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uid2_codec_operations_total",
				Help: "Total number of DecryptToken/EncryptData/DecryptData calls",
			},
			[]string{"operation", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uid2_codec_operation_duration_seconds",
				Help:    "Codec operation duration in seconds",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"operation"},
		),
		operationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uid2_codec_errors_total",
				Help: "Total number of non-Success codec statuses",
			},
			[]string{"operation", "status"},
		),
		payloadBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uid2_codec_payload_bytes_total",
				Help: "Total bytes encrypted or decrypted by EncryptData/DecryptData",
			},
			[]string{"operation"},
		),
		goroutines: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "uid2_goroutines",
				Help: "Number of goroutines in the admin server process",
			},
		),
		memoryAllocBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "uid2_memory_alloc_bytes",
				Help: "Number of bytes allocated and not yet freed",
			},
		),
		memorySysBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "uid2_memory_sys_bytes",
				Help: "Total bytes of memory obtained from the OS",
			},
		),
	}
}

// RecordOperation records one codec call's status and latency.
func (r *Recorder) RecordOperation(operation, status string, duration time.Duration) {
	r.operationsTotal.WithLabelValues(operation, status).Inc()
	r.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if status != "Success" {
		r.operationErrors.WithLabelValues(operation, status).Inc()
	}
}

// RecordPayloadBytes adds n to the running total for operation.
func (r *Recorder) RecordPayloadBytes(operation string, n int) {
	r.payloadBytes.WithLabelValues(operation).Add(float64(n))
}

// UpdateSystemMetrics refreshes the runtime gauges.
func (r *Recorder) UpdateSystemMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	r.goroutines.Set(float64(runtime.NumGoroutine()))
	r.memoryAllocBytes.Set(float64(memStats.Alloc))
	r.memorySysBytes.Set(float64(memStats.Sys))
}

// StartSystemMetricsCollector runs UpdateSystemMetrics every interval until
// ctx-free process exit; the admin server owns its lifetime.
func (r *Recorder) StartSystemMetricsCollector(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			r.UpdateSystemMetrics()
		}
	}()
}

// Handler returns the HTTP handler the admin server mounts at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.Handler()
}
