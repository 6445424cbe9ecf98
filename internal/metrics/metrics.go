// Package metrics exposes Prometheus collectors for fan-out and storage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tsn"

// Result labels.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultDelivered = "delivered"
	ResultOffline   = "offline"
	ResultDropped   = "dropped"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide.
type Metrics struct {
	reg *prometheus.Registry

	postsAccepted prometheus.Counter
	fanoutAppends *prometheus.CounterVec
	livePushes    *prometheus.CounterVec
	trimmed       prometheus.Counter

	storageWrite *prometheus.HistogramVec
	storageRead  prometheus.Histogram
	storageBytes *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		postsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_accepted_total",
			Help:      "Posts durably appended to their author's timeline.",
		}),
		fanoutAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_appends_total",
			Help:      "Appends of posts to follower timelines by result.",
		}, []string{"result"}),
		livePushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_pushes_total",
			Help:      "Live deliveries to follower sessions by result.",
		}, []string{"result"}),
		trimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_trimmed_total",
			Help:      "Timeline entries removed by retention.",
		}),
		storageWrite: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "write_seconds",
			Help:      "Pebble write and batch commit latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
		storageRead: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "read_seconds",
			Help:      "Pebble point read latency.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		storageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "bytes_total",
			Help:      "Bytes moved through Pebble by operation.",
		}, []string{"op"}),
	}
	m.reg.MustRegister(
		m.postsAccepted, m.fanoutAppends, m.livePushes, m.trimmed,
		m.storageWrite, m.storageRead, m.storageBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterSessions exposes fn as the tsn_sessions_online gauge.
func (m *Metrics) RegisterSessions(fn func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_online",
		Help:      "Users holding a live timeline session.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) PostAccepted()              { m.postsAccepted.Inc() }
func (m *Metrics) FanoutAppend(result string) { m.fanoutAppends.WithLabelValues(result).Inc() }
func (m *Metrics) LivePush(result string)     { m.livePushes.WithLabelValues(result).Inc() }
func (m *Metrics) Trimmed(n int)              { m.trimmed.Add(float64(n)) }

// ObserveWrite, ObserveRead and ObserveBatchCommit implement pebblestore.MetricsHook.
func (m *Metrics) ObserveWrite(d time.Duration, bytes int) {
	m.storageWrite.WithLabelValues("set").Observe(d.Seconds())
	m.storageBytes.WithLabelValues("set").Add(float64(bytes))
}

func (m *Metrics) ObserveRead(d time.Duration, bytes int) {
	m.storageRead.Observe(d.Seconds())
	m.storageBytes.WithLabelValues("read").Add(float64(bytes))
}

func (m *Metrics) ObserveBatchCommit(d time.Duration, _ int, bytes int) {
	m.storageWrite.WithLabelValues("commit").Observe(d.Seconds())
	m.storageBytes.WithLabelValues("commit").Add(float64(bytes))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
