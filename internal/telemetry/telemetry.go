package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"crudbench/internal/runner"
	"crudbench/internal/stats"
)

const namespace = "crudbench"

// Collector exports harness-side counters. It observes every request outcome
// and every scenario boundary.
type Collector struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	scenarios *prometheus.CounterVec
	running   *prometheus.GaugeVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests dispatched against a target, by outcome.",
		}, []string{"variant", "operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of successful requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"variant", "operation"}),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_total",
			Help:      "Finished scenarios, by status.",
		}, []string{"variant", "operation", "status"}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scenario_running",
			Help:      "1 while a scenario is running.",
		}, []string{"variant", "operation"}),
	}
	reg.MustRegister(c.requests, c.latency, c.scenarios, c.running)
	return c
}

func (c *Collector) ObserveOutcome(spec runner.ScenarioSpec, o runner.Outcome) {
	op := spec.Operation.String()
	if !o.Success() {
		c.requests.WithLabelValues(spec.Variant, op, "error").Inc()
		return
	}
	c.requests.WithLabelValues(spec.Variant, op, "success").Inc()
	c.latency.WithLabelValues(spec.Variant, op).Observe(o.Latency.Seconds())
}

func (c *Collector) ScenarioStarted(_, _ int, spec runner.ScenarioSpec) {
	c.running.WithLabelValues(spec.Variant, spec.Operation.String()).Set(1)
}

func (c *Collector) ScenarioFinished(_, _ int, spec runner.ScenarioSpec, _ *stats.BenchmarkResult, err error) {
	op := spec.Operation.String()
	c.running.WithLabelValues(spec.Variant, op).Set(0)
	status := "ok"
	if err != nil {
		status = "skipped"
	}
	c.scenarios.WithLabelValues(spec.Variant, op, status).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logrus.Infof("metrics listening on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("metrics server failed")
		}
	}()
}
