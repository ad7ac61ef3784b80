// Package metric provides Prometheus metrics for tsxlock tools.
//
//   - prometheus.go: private registry, transaction and benchmark metrics,
//     and a transact.Observer that feeds them
//   - collector.go: scrape-time gauges for tracked cmap.Map instances
//
// Metrics are exposed at /metrics by tsxbench run --metrics-addr.
package metric
