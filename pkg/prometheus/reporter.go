package prometheus

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcrowley/go-metrics"
)

// Syncer copies metrics from a go-metrics registry into the Prometheus
// registry as gauges, so the request timers recorded through go-metrics show
// up on /metrics alongside the native collectors.
type Syncer struct {
	registry     metrics.Registry
	subsystem    string
	promRegistry prometheus.Registerer
	gauges       map[string]prometheus.Gauge
}

func NewSyncer(r metrics.Registry, subsystem string, promRegistry prometheus.Registerer) *Syncer {
	return &Syncer{
		registry:     r,
		subsystem:    subsystem,
		promRegistry: promRegistry,
		gauges:       make(map[string]prometheus.Gauge),
	}
}

var (
	prometheusKey = regexp.MustCompile(`\W+`)
)

func (c *Syncer) flattenKey(key string) string {
	return prometheusKey.ReplaceAllString(strings.ToLower(key), "_")
}

func (c *Syncer) gaugeFromNameAndValue(name string, val float64) {
	key := fmt.Sprintf("credcache_%s_%s", c.subsystem, name)
	g, ok := c.gauges[key]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "credcache",
			Subsystem: c.flattenKey(c.subsystem),
			Name:      c.flattenKey(name),
			Help:      name,
		})
		c.promRegistry.MustRegister(g)
		c.gauges[key] = g
	}
	g.Set(val)
}

// Sync copies the current snapshot of every metric.
func (c *Syncer) Sync() {
	c.registry.Each(func(name string, i interface{}) {
		switch metric := i.(type) {
		case metrics.Counter:
			c.gaugeFromNameAndValue(name, float64(metric.Count()))
		case metrics.Gauge:
			c.gaugeFromNameAndValue(name, float64(metric.Value()))
		case metrics.GaugeFloat64:
			c.gaugeFromNameAndValue(name, metric.Value())
		case metrics.Histogram:
			samples := metric.Snapshot().Sample().Values()
			if len(samples) > 0 {
				c.gaugeFromNameAndValue(name, float64(samples[len(samples)-1]))
			}
		case metrics.Meter:
			c.gaugeFromNameAndValue(name, metric.Snapshot().Rate1())
		case metrics.Timer:
			c.gaugeFromNameAndValue(name, metric.Snapshot().Rate1())
		}
	})
}
