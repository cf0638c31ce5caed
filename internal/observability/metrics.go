package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	TransportPS  = "ps"
	TransportTDM = "tdm"

	DropOverflow   = "overflow"
	DropUnhandled  = "unhandled"
	DropUndecoded  = "undecoded"
	DropDisabled   = "disabled"
	DropUnroutable = "unroutable"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridmp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hybridmp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	packetsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridmp",
			Subsystem: "transport",
			Name:      "packets_sent_total",
			Help:      "Packets written to a transmit queue.",
		},
		[]string{"transport", "tile"},
	)
	packetsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridmp",
			Subsystem: "transport",
			Name:      "packets_received_total",
			Help:      "Packets handed to a registered handler.",
		},
		[]string{"transport", "tile"},
	)
	packetsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridmp",
			Subsystem: "transport",
			Name:      "packets_dropped_total",
			Help:      "Packets consumed from hardware without reaching a handler.",
		},
		[]string{"transport", "tile", "reason"},
	)
	readinessProbes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hybridmp",
			Subsystem: "transport",
			Name:      "readiness_probes_total",
			Help:      "Readiness probes transmitted.",
		},
		[]string{"tile"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, packetsSent, packetsReceived, packetsDropped, readinessProbes)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// Recorder receives transport events from the engines.
type Recorder interface {
	PacketSent(transport string, tile int)
	PacketReceived(transport string, tile int)
	PacketDropped(transport string, tile int, reason string)
	ProbeSent(tile int)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) PacketSent(string, int)            {}
func (NopRecorder) PacketReceived(string, int)        {}
func (NopRecorder) PacketDropped(string, int, string) {}
func (NopRecorder) ProbeSent(int)                     {}

type promRecorder struct{}

// Prometheus returns a Recorder backed by the process-wide transport counters.
func Prometheus() Recorder {
	RegisterMetrics()
	return promRecorder{}
}

func (promRecorder) PacketSent(transport string, tile int) {
	packetsSent.WithLabelValues(transport, strconv.Itoa(tile)).Inc()
}

func (promRecorder) PacketReceived(transport string, tile int) {
	packetsReceived.WithLabelValues(transport, strconv.Itoa(tile)).Inc()
}

func (promRecorder) PacketDropped(transport string, tile int, reason string) {
	packetsDropped.WithLabelValues(transport, strconv.Itoa(tile), reason).Inc()
}

func (promRecorder) ProbeSent(tile int) {
	readinessProbes.WithLabelValues(strconv.Itoa(tile)).Inc()
}
