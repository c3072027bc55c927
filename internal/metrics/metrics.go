// Package metrics exposes a coverage result as Prometheus gauges, for
// scraping or for the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/dusk-indust/spectrace/internal/trace"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spectrace"

// Collector holds the gauges for one coverage result. Each Collector owns
// its registry so repeated runs never collide with the default one.
type Collector struct {
	registry *prometheus.Registry

	total       prometheus.Gauge
	covered     prometheus.Gauge
	percentage  prometheus.Gauge
	results     *prometheus.GaugeVec
	requirement *prometheus.GaugeVec
}

// New creates a Collector with all gauges registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		total: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requirements_total",
			Help:      "Number of requirements extracted.",
		}),
		covered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requirements_covered",
			Help:      "Number of requirements with at least one covering test.",
		}),
		percentage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coverage_percentage",
			Help:      "Covered requirements as a percentage of all requirements.",
		}),
		results: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "test_results",
			Help:      "Test results matched to requirements, by status.",
		}, []string{"status"}),
		requirement: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requirement_covered",
			Help:      "1 when the requirement is covered, 0 otherwise.",
		}, []string{"id", "source"}),
	}
	c.registry.MustRegister(c.total, c.covered, c.percentage, c.results, c.requirement)
	return c
}

// Registry returns the registry the gauges live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe replaces the gauge values with those of res. Matched results are
// counted once per distinct test key.
func (c *Collector) Observe(res *trace.CoverageResult) {
	c.total.Set(float64(res.Summary.TotalRequirements))
	c.covered.Set(float64(res.Summary.CoveredRequirements))
	c.percentage.Set(res.Summary.CoveragePercentage)

	c.results.Reset()
	for _, s := range []trace.Status{trace.StatusPassed, trace.StatusFailed, trace.StatusSkipped, trace.StatusPending} {
		c.results.WithLabelValues(string(s)).Set(0)
	}
	seen := make(map[string]bool)
	for _, rc := range res.Requirements {
		for _, tr := range rc.TestResults {
			if seen[tr.Key()] {
				continue
			}
			seen[tr.Key()] = true
			c.results.WithLabelValues(string(tr.Status)).Inc()
		}
	}

	c.requirement.Reset()
	for _, rc := range res.Requirements {
		// Duplicate ids within one source share a series; any covered copy wins.
		g := c.requirement.WithLabelValues(rc.ID, rc.Source)
		if rc.Covered {
			g.Set(1)
		}
	}
}

// WriteTextfile writes res in the Prometheus text format to path, replacing
// the file atomically.
func WriteTextfile(path string, res *trace.CoverageResult) error {
	c := New()
	c.Observe(res)
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
