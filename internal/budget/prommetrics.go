package budget

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics publishes named gauges to a Prometheus registry, creating
// each one lazily on first use so the reaper never needs to pre-register
// every gauge name it might ever publish.
type PromMetrics struct {
	mu     sync.Mutex
	gauges map[string]prometheus.Gauge
	reg    prometheus.Registerer
}

// NewPromMetrics creates a gauge publisher backed by reg. Pass
// prometheus.DefaultRegisterer to expose gauges on the default /metrics
// handler.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	return &PromMetrics{gauges: make(map[string]prometheus.Gauge), reg: reg}
}

func (p *PromMetrics) Gauge(name string, value float64) {
	p.mu.Lock()
	g, ok := p.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: promSafeName(name),
			Help: "thread budget gauge: " + name,
		})
		p.reg.MustRegister(g)
		p.gauges[name] = g
	}
	p.mu.Unlock()
	g.Set(value)
}

// promSafeName converts a dotted port name ("thread_budget.live") into a
// Prometheus-legal metric name ("thread_budget_live").
func promSafeName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '.' || c == '-' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return string(out)
}
