package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons recorded on frames_dropped_total.
const (
	DropMalformed = "malformed"
	DropAssemble  = "assemble"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blefrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blefrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blefrag",
			Subsystem: "frames",
			Name:      "sent_total",
			Help:      "Frames handed to the transport on read.",
		},
		[]string{"node"},
	)
	framesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blefrag",
			Subsystem: "frames",
			Name:      "received_total",
			Help:      "Valid frames accepted on write.",
		},
		[]string{"node"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blefrag",
			Subsystem: "frames",
			Name:      "dropped_total",
			Help:      "Frames rejected before or during reassembly.",
		},
		[]string{"node", "reason"},
	)
	streamsAssembled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blefrag",
			Subsystem: "streams",
			Name:      "assembled_total",
			Help:      "Streams fully reassembled.",
		},
		[]string{"node"},
	)
	streamsEvicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blefrag",
			Subsystem: "streams",
			Name:      "evicted_total",
			Help:      "Idle streams removed by the janitor.",
		},
		[]string{"node"},
	)
	cursorsEvicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blefrag",
			Subsystem: "cursors",
			Name:      "evicted_total",
			Help:      "Idle outbound cursors removed by the janitor.",
		},
		[]string{"node"},
	)
	streamsResident = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "blefrag",
			Subsystem: "streams",
			Name:      "resident",
			Help:      "Reassembly entries currently held.",
		},
		[]string{"node"},
	)
	payloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blefrag",
			Subsystem: "streams",
			Name:      "payload_bytes",
			Help:      "Size of reassembled payloads.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 9),
		},
		[]string{"node"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			framesSent, framesReceived, framesDropped,
			streamsAssembled, streamsEvicted, cursorsEvicted, streamsResident, payloadBytes,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrameSent(node string) {
	RegisterMetrics()
	framesSent.WithLabelValues(node).Inc()
}

func RecordFrameReceived(node string) {
	RegisterMetrics()
	framesReceived.WithLabelValues(node).Inc()
}

func RecordFrameDropped(node, reason string) {
	RegisterMetrics()
	framesDropped.WithLabelValues(node, reason).Inc()
}

func RecordStreamAssembled(node string, size int) {
	RegisterMetrics()
	streamsAssembled.WithLabelValues(node).Inc()
	payloadBytes.WithLabelValues(node).Observe(float64(size))
}

func RecordStreamsEvicted(node string, n int) {
	RegisterMetrics()
	streamsEvicted.WithLabelValues(node).Add(float64(n))
}

func RecordCursorsEvicted(node string, n int) {
	RegisterMetrics()
	cursorsEvicted.WithLabelValues(node).Add(float64(n))
}

func SetStreamsResident(node string, n int) {
	RegisterMetrics()
	streamsResident.WithLabelValues(node).Set(float64(n))
}
