// Package hazardmetrics exposes Prometheus instrumentation for the hazard
// engine, grounded on the teacher's internal/metrics package (referenced
// from cmd/query/main.go as metrics.NewMetrics/NewGinMiddleware/
// NewGinHandler) and re-purposed from per-HTTP-request timing to
// per-source/per-group engine timing (the monitor/timing hooks
// supplemented from contexts.py: ctx_mon, poe_mon, pne_mon; the gmf
// monitor has no counterpart since this engine computes no ground-motion
// fields).
package hazardmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and histograms the hazard engine reports.
type Metrics struct {
	FilterSeconds prometheus.Histogram
	PoeSeconds    prometheus.Histogram
	PneSeconds    prometheus.Histogram
	SourceSeconds prometheus.Histogram

	RupturesProcessed prometheus.Counter
	SitesProcessed    prometheus.Counter
	FarAwaySkips      prometheus.Counter
	ZeroWeightMasks   prometheus.Counter
	RequiredDistances prometheus.Gauge
}

// NewMetrics registers and returns the engine's metric set against the
// default Prometheus registry, mirroring the teacher's NewMetrics
// constructor shape.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilterSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "hazard_filter_seconds",
			Help: "Time spent filtering sites against ruptures by distance.",
		}),
		PoeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "hazard_poe_seconds",
			Help: "Time spent evaluating GSIM mean/std and probabilities of exceedance.",
		}),
		PneSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "hazard_pne_seconds",
			Help: "Time spent folding exceedance probabilities into non-exceedance.",
		}),
		SourceSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "hazard_source_seconds",
			Help: "Wall-clock time spent processing one source end to end.",
		}),
		RupturesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hazard_ruptures_processed_total",
			Help: "Number of ruptures in rupture groups where at least one rupture survived the distance filter.",
		}),
		SitesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hazard_sites_processed_total",
			Help: "Number of surviving (rupture, sid) pairs folded into a ProbabilityMap; a sid reached by several ruptures counts once per rupture.",
		}),
		FarAwaySkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hazard_far_away_skips_total",
			Help: "Number of ruptures skipped because every site was beyond the maximum distance.",
		}),
		ZeroWeightMasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hazard_zero_weight_masks_total",
			Help: "Number of GSIM/IMT columns forced to the regime identity by zero-weight masking.",
		}),
		RequiredDistances: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hazard_required_distances",
			Help: "Number of distinct distance metrics required by the current GSIM set.",
		}),
	}

	prometheus.MustRegister(
		m.FilterSeconds, m.PoeSeconds, m.PneSeconds, m.SourceSeconds,
		m.RupturesProcessed, m.SitesProcessed, m.FarAwaySkips,
		m.ZeroWeightMasks, m.RequiredDistances,
	)
	return m
}

// ObserveCalcTimes records one source's (nrups, nsites, seconds)
// accumulation from GetPmapByGrp (§4.4) against the counters above.
func (m *Metrics) ObserveCalcTimes(nrups, nsites int, seconds float64) {
	m.RupturesProcessed.Add(float64(nrups))
	m.SitesProcessed.Add(float64(nsites))
	m.SourceSeconds.Observe(seconds)
}
