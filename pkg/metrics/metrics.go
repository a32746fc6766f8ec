// Package metrics exports health-check observations as Prometheus
// metrics. Recording is strictly best-effort: nothing in this package
// may influence check results or probe responses.
package metrics

import (
	"bytes"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/LookoutProject/lookout/pkg/health"
	"github.com/LookoutProject/lookout/pkg/recovery"
)

// Prometheus implements health.Sink backed by a dedicated Prometheus
// registry.
type Prometheus struct {
	registry *prometheus.Registry

	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	recoveryTotal *prometheus.CounterVec

	// Gauges fed from the details of well-known checks.
	queueDepth    prometheus.Gauge
	backlogCount  prometheus.Gauge
	memoryPercent prometheus.Gauge
	diskFreeGB    *prometheus.GaugeVec
	connLatencyMS *prometheus.GaugeVec
}

// NewPrometheus creates a Prometheus sink with its own registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "health_checks_total",
				Help: "Total number of health checks performed",
			},
			[]string{"level", "status"},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "health_check_duration_seconds",
				Help:    "Health check duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"check"},
		),
		recoveryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recovery_actions_total",
				Help: "Total number of recovery actions dispatched",
			},
			[]string{"action", "outcome"},
		),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of pending items in the work queue",
		}),
		backlogCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backlog_count",
			Help: "Number of stale sessions awaiting processing",
		}),
		memoryPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memory_percent",
			Help: "System memory usage percentage",
		}),
		diskFreeGB: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "disk_free_gb",
				Help: "Free disk space in GB",
			},
			[]string{"mount"},
		),
		connLatencyMS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "connection_latency_ms",
				Help: "Database connection latency in milliseconds",
			},
			[]string{"type"},
		),
	}

	p.registry.MustRegister(
		p.checksTotal,
		p.checkDuration,
		p.recoveryTotal,
		p.queueDepth,
		p.backlogCount,
		p.memoryPercent,
		p.diskFreeGB,
		p.connLatencyMS,
	)

	return p
}

// Observe records one executed check. Faults are swallowed.
func (p *Prometheus) Observe(result health.CheckResult, duration time.Duration) {
	defer func() { _ = recover() }()

	p.checksTotal.WithLabelValues(string(result.Level), string(result.Status)).Inc()
	p.checkDuration.WithLabelValues(result.Name).Observe(duration.Seconds())

	// A small fixed set of checks carries gauge-worthy detail values.
	switch result.Name {
	case "queue_depth":
		if depth, ok := result.Details.Float("depth"); ok {
			p.queueDepth.Set(depth)
		}
	case "backlog":
		if count, ok := result.Details.Float("count"); ok {
			p.backlogCount.Set(count)
		}
	case "memory_pressure":
		if percent, ok := result.Details.Float("percent"); ok {
			p.memoryPercent.Set(percent)
		}
	case "disk_space":
		if free, ok := result.Details.Float("free_gb"); ok {
			mount, _ := result.Details.String("mount")
			if mount == "" {
				mount = "/"
			}
			p.diskFreeGB.WithLabelValues(mount).Set(free)
		}
	case "database":
		if latency, ok := result.Details.Float("latency_ms"); ok {
			connType, _ := result.Details.String("type")
			if connType == "" {
				connType = "unknown"
			}
			p.connLatencyMS.WithLabelValues(connType).Set(latency)
		}
	}
}

// RecordRecovery counts one recovery dispatch. Faults are swallowed.
func (p *Prometheus) RecordRecovery(action recovery.Action, outcome recovery.Outcome) {
	defer func() { _ = recover() }()
	p.recoveryTotal.WithLabelValues(string(action), string(outcome)).Inc()
}

// Handler returns the Prometheus exposition handler for this sink.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Gather exposes the raw metric families, used by the CLI metrics dump.
func (p *Prometheus) Gather() (string, error) {
	families, err := p.registry.Gather()
	if err != nil {
		return "", err
	}
	return encodeText(families)
}

func encodeText(families []*dto.MetricFamily) (string, error) {
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
