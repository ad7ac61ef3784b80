// Package metric provides Prometheus metrics for tsxlock tools.
//
// It exposes transaction outcomes, abort causes and benchmark throughput
// in Prometheus format.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/tsxlock-go/pkg/transact"
)

const namespace = "tsxlock"

// Registry holds all application metrics on a private prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	// Transaction metrics
	TxOutcomes *prometheus.CounterVec
	TxAborts   *prometheus.CounterVec

	// Benchmark metrics
	BenchOps      *prometheus.CounterVec
	BenchDuration *prometheus.HistogramVec
}

// NewRegistry creates the metrics and registers them together with the Go
// runtime collector.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		TxOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tx",
				Name:      "outcomes_total",
				Help:      "Transacted sections by workload and final outcome.",
			}, []string{"workload", "outcome"}),
		TxAborts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tx",
				Name:      "aborts_total",
				Help:      "Hardware transaction aborts by workload and cause.",
			}, []string{"workload", "cause"}),
		BenchOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bench",
				Name:      "operations_total",
				Help:      "Operations completed by workload and execution mode.",
			}, []string{"workload", "mode"}),
		BenchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "bench",
				Name:      "pass_duration_seconds",
				Help:      "Wall time of one benchmark pass.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			}, []string{"workload", "mode"}),
	}

	r.reg.MustRegister(
		r.TxOutcomes,
		r.TxAborts,
		r.BenchOps,
		r.BenchDuration,
		collectors.NewGoCollector(),
	)
	return r
}

// Register adds an extra collector, such as a MapCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Observer returns a transact.Observer that counts outcomes for workload.
func (r *Registry) Observer(workload string) transact.Observer {
	return &txObserver{
		commits:   r.TxOutcomes.WithLabelValues(workload, "commit"),
		fallbacks: r.TxOutcomes.WithLabelValues(workload, "fallback"),
		aborts:    r.TxAborts.MustCurryWith(prometheus.Labels{"workload": workload}),
	}
}

type txObserver struct {
	commits   prometheus.Counter
	fallbacks prometheus.Counter
	aborts    *prometheus.CounterVec
}

func (o *txObserver) Committed() { o.commits.Inc() }
func (o *txObserver) FellBack()  { o.fallbacks.Inc() }

// Aborted counts one abort under each cause bit that is set.
func (o *txObserver) Aborted(cause transact.AbortCause) {
	for _, label := range cause.Labels() {
		o.aborts.WithLabelValues(label).Inc()
	}
}
