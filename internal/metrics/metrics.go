// Package metrics holds the Prometheus instruments for the rendering
// pipeline. HTTP request metrics live in the middleware package; these
// cover the work that happens behind the API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the render and tile instruments. A nil *Metrics is
// valid and records nothing, so wiring stays optional in tests and the
// CLI.
type Metrics struct {
	framesRendered prometheus.Counter
	renderJobs     *prometheus.CounterVec
	renderDuration prometheus.Histogram
	tileFetches    *prometheus.CounterVec
}

// Tile fetch sources.
const (
	TileSourceCache   = "cache"
	TileSourceOrigin  = "origin"
	TileSourceMissing = "missing"
)

// New creates and registers the instruments on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		framesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "snitchvis_frames_rendered_total",
			Help: "Total number of frames rendered.",
		}),
		renderJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snitchvis_render_jobs_total",
			Help: "Render jobs finished, by outcome.",
		}, []string{"status"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "snitchvis_render_duration_seconds",
			Help:    "Wall time of video render jobs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		tileFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snitchvis_tile_fetches_total",
			Help: "Map tile lookups, by where the tile came from.",
		}, []string{"source"}),
	}

	collectors := []prometheus.Collector{
		m.framesRendered, m.renderJobs, m.renderDuration, m.tileFetches,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddFramesRendered records n rendered frames.
func (m *Metrics) AddFramesRendered(n int) {
	if m == nil {
		return
	}
	m.framesRendered.Add(float64(n))
}

// ObserveRenderJob records a finished render job and its duration.
func (m *Metrics) ObserveRenderJob(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderJobs.WithLabelValues(status).Inc()
	m.renderDuration.Observe(d.Seconds())
}

// IncTileFetch records one tile lookup from the given source.
func (m *Metrics) IncTileFetch(source string) {
	if m == nil {
		return
	}
	m.tileFetches.WithLabelValues(source).Inc()
}
