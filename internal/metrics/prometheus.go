package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector wraps the Collector and mirrors its metrics into
// Prometheus format. Counters and latencies are fed through ObserveOp at
// call sites; gauges are refreshed from the wrapped Collector on scrape.
type PrometheusCollector struct {
	collector *Collector
	registry  *prometheus.Registry

	// Prometheus metrics
	opCount    *prometheus.CounterVec
	opErrors   *prometheus.CounterVec
	opDuration *prometheus.HistogramVec

	requestCount   prometheus.Gauge
	populationSize prometheus.Gauge
	uptimeSeconds  prometheus.Gauge

	startTime time.Time
}

// NewPrometheusCollector creates a PrometheusCollector that wraps an
// existing Collector. Metrics are registered in a dedicated registry so they
// do not interfere with the default global registry.
func NewPrometheusCollector(c *Collector) *PrometheusCollector {
	reg := prometheus.NewRegistry()

	opCount := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridgeboard",
		Name:      "op_count",
		Help:      "Total number of board operations by name.",
	}, []string{"op"})

	opErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridgeboard",
		Name:      "op_errors",
		Help:      "Total number of failed board operations by name.",
	}, []string{"op"})

	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bridgeboard",
		Name:      "op_duration_seconds",
		Help:      "Board operation latency histogram by name.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"op"})

	requestCount := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridgeboard",
		Name:      "request_count",
		Help:      "Number of data requests ever posted.",
	})

	populationSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridgeboard",
		Name:      "population_size",
		Help:      "Number of active reporter identities.",
	})

	uptimeSec := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bridgeboard",
		Name:      "uptime_seconds",
		Help:      "Time since the daemon started in seconds.",
	})

	reg.MustRegister(opCount)
	reg.MustRegister(opErrors)
	reg.MustRegister(opDuration)
	reg.MustRegister(requestCount)
	reg.MustRegister(populationSize)
	reg.MustRegister(uptimeSec)

	return &PrometheusCollector{
		collector:      c,
		registry:       reg,
		opCount:        opCount,
		opErrors:       opErrors,
		opDuration:     opDuration,
		requestCount:   requestCount,
		populationSize: populationSize,
		uptimeSeconds:  uptimeSec,
		startTime:      time.Now(),
	}
}

// ObserveOp records one board operation in both the wrapped Collector and
// the Prometheus mirror.
func (pc *PrometheusCollector) ObserveOp(op string, duration time.Duration, failed bool) {
	pc.collector.RecordOp(op)
	pc.collector.RecordLatency(op, duration)
	if failed {
		pc.collector.RecordError(op)
	}

	pc.opCount.WithLabelValues(op).Inc()
	pc.opDuration.WithLabelValues(op).Observe(duration.Seconds())
	if failed {
		pc.opErrors.WithLabelValues(op).Inc()
	}
}

// Handler returns the Prometheus exposition handler, refreshing the gauges
// from the wrapped Collector on every scrape.
func (pc *PrometheusCollector) Handler() http.Handler {
	inner := promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pc.requestCount.Set(float64(pc.collector.RequestCount()))
		pc.populationSize.Set(float64(pc.collector.PopulationSize()))
		pc.uptimeSeconds.Set(time.Since(pc.startTime).Seconds())
		inner.ServeHTTP(w, r)
	})
}
