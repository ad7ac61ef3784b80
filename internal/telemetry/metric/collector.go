package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/tsxlock-go/pkg/cmap"
)

// StatsSource is anything that reports cmap statistics; every *cmap.Map
// satisfies it regardless of its type parameters.
type StatsSource interface {
	Stats() cmap.Stats
}

var (
	mapEntriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "map", "entries"),
		"Entries stored in a tracked map.",
		[]string{"map", "layout"}, nil)
	mapBucketsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "map", "buckets"),
		"Bucket count of a tracked map's storage.",
		[]string{"map", "layout"}, nil)
	mapLoadDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "map", "load_factor"),
		"Entries per bucket of a tracked map.",
		[]string{"map", "layout"}, nil)
)

// MapCollector reports storage gauges for a set of named maps at scrape
// time.
type MapCollector struct {
	mu   sync.Mutex
	maps map[string]StatsSource
}

// NewMapCollector creates an empty collector.
func NewMapCollector() *MapCollector {
	return &MapCollector{maps: make(map[string]StatsSource)}
}

// Track starts reporting m under name, replacing any map tracked under the
// same name.
func (c *MapCollector) Track(name string, m StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maps[name] = m
}

// Untrack stops reporting name.
func (c *MapCollector) Untrack(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.maps, name)
}

// Describe implements prometheus.Collector.
func (c *MapCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- mapEntriesDesc
	ch <- mapBucketsDesc
	ch <- mapLoadDesc
}

// Collect implements prometheus.Collector.
func (c *MapCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, m := range c.maps {
		s := m.Stats()
		ch <- prometheus.MustNewConstMetric(mapEntriesDesc, prometheus.GaugeValue, float64(s.Len), name, s.Layout)
		ch <- prometheus.MustNewConstMetric(mapBucketsDesc, prometheus.GaugeValue, float64(s.Buckets), name, s.Layout)
		ch <- prometheus.MustNewConstMetric(mapLoadDesc, prometheus.GaugeValue, s.LoadFactor, name, s.Layout)
	}
}
