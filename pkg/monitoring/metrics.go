package monitoring

import (
	"net/http"
	"time"

	"knowhow-editor/pkg/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so that every server instance (and every
// test) starts from zero.
type Metrics struct {
	registry  *prometheus.Registry
	syncs     *prometheus.CounterVec
	treeBuild prometheus.Histogram
	visits    prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "knowhow_editor_git_syncs_total",
			Help: "Git sync runs by outcome",
		}, []string{"outcome"}),
		treeBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "knowhow_editor_tree_build_seconds",
			Help:    "Time spent building the content tree",
			Buckets: prometheus.DefBuckets,
		}),
		visits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "knowhow_editor_counter_total",
			Help: "Increments of the demo counter endpoint",
		}),
	}
	m.registry.MustRegister(m.syncs, m.treeBuild, m.visits)
	return m
}

func (m *Metrics) ObserveSync(ev models.SyncEvent) {
	m.syncs.WithLabelValues(string(ev.Outcome)).Inc()
}

func (m *Metrics) ObserveTreeBuild(d time.Duration) {
	m.treeBuild.Observe(d.Seconds())
}

func (m *Metrics) IncCounter() {
	m.visits.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
