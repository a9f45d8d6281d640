// Package metrics exposes evolution progress as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baldhumanity/artlife-go/artlife"
)

// Reporter updates gauges and counters after every evolution cycle.
type Reporter struct {
	Registry *prometheus.Registry

	generation  prometheus.Gauge
	maxFitness  prometheus.Gauge
	meanFitness prometheus.Gauge
	bestFitness prometheus.Gauge
	stagnation  prometheus.Gauge
	diversity   prometheus.Gauge
	cycles      *prometheus.CounterVec
	winners     prometheus.Counter
	epochTime   prometheus.Histogram
}

var _ artlife.Reporter = (*Reporter)(nil)

// NewReporter creates the metrics on a private registry.
func NewReporter() *Reporter {
	r := &Reporter{
		Registry:    prometheus.NewRegistry(),
		generation:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "artlife_generation", Help: "Accepted evolution cycles."}),
		maxFitness:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "artlife_epoch_max_fitness", Help: "Best reward of the last epoch."}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{Name: "artlife_epoch_mean_fitness", Help: "Mean reward of the last epoch."}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{Name: "artlife_best_fitness", Help: "Best-known reward."}),
		stagnation:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "artlife_stagnation_cycles", Help: "Cycles since the best-known reward improved."}),
		diversity:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "artlife_diversity", Help: "Mean share of genes differing from the elite."}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "artlife_cycles_total",
			Help: "Evolution cycles by operator and outcome.",
		}, []string{"phase", "outcome"}),
		winners: prometheus.NewCounter(prometheus.CounterOpts{Name: "artlife_winners_total", Help: "Agents that reached the goal."}),
		epochTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "artlife_epoch_seconds",
			Help:    "Wall time of one epoch and its evolution cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	r.Registry.MustRegister(r.generation, r.maxFitness, r.meanFitness, r.bestFitness,
		r.stagnation, r.diversity, r.cycles, r.winners, r.epochTime)
	return r
}

// CycleCompleted updates every metric from one cycle report.
func (r *Reporter) CycleCompleted(report artlife.CycleReport) {
	r.generation.Set(float64(report.Generation))
	r.maxFitness.Set(report.MaxFitness)
	r.meanFitness.Set(report.MeanFitness)
	r.bestFitness.Set(report.BestFitness)
	r.stagnation.Set(float64(report.Stagnation))
	r.diversity.Set(report.Diversity)
	r.winners.Add(float64(report.Winners))
	r.epochTime.Observe(report.Duration.Seconds())

	outcome := "accepted"
	switch {
	case report.Finished:
		outcome = "finished"
	case report.RolledBack:
		outcome = "rolled_back"
	}
	r.cycles.WithLabelValues(report.Phase.String(), outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
