package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ModuleLabel    = "module"
	TypeLabel      = "type"
	DirectionLabel = "direction"
	OutcomeLabel   = "outcome"

	Mapped  = "mapped"
	Skipped = "skipped"
	Failed  = "failed"
)

// Recorder collects mapping statistics in a private registry
type Recorder struct {
	registry *prometheus.Registry

	cells      *prometheus.CounterVec
	signals    *prometheus.CounterVec
	loopBreaks *prometheus.CounterVec
	domains    *prometheus.GaugeVec
	units      *prometheus.CounterVec
	optimizer  prometheus.Histogram
}

// NewRecorder creates a recorder with all metrics registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		cells: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logicmap_cells_total",
				Help: "Cells created by reintegration, by optimizer cell type",
			},
			[]string{ModuleLabel, TypeLabel},
		),

		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logicmap_signals_total",
				Help: "Signals of reintegrated networks, by direction",
			},
			[]string{ModuleLabel, DirectionLabel},
		),

		loopBreaks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logicmap_loop_breaks_total",
				Help: "Feedback loops cut before export",
			},
			[]string{ModuleLabel},
		),

		domains: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "logicmap_clock_domains",
				Help: "Clock domains found in a module",
			},
			[]string{ModuleLabel},
		),

		units: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logicmap_units_total",
				Help: "Module or clock domain units processed, by outcome",
			},
			[]string{OutcomeLabel},
		),

		optimizer: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "logicmap_optimizer_duration_seconds",
				Help:    "Wall time of optimizer runs",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
		),
	}

	r.registry.MustRegister(r.cells, r.signals, r.loopBreaks, r.domains, r.units, r.optimizer)
	return r
}

// Registry returns the registry holding the metrics
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveCells adds reintegrated cell counts
func (r *Recorder) ObserveCells(module string, cells map[string]int) {
	for typ, n := range cells {
		r.cells.WithLabelValues(module, typ).Add(float64(n))
	}
}

// ObserveSignals adds reintegrated signal counts
func (r *Recorder) ObserveSignals(module string, internal, inputs, outputs int) {
	r.signals.WithLabelValues(module, "internal").Add(float64(internal))
	r.signals.WithLabelValues(module, "input").Add(float64(inputs))
	r.signals.WithLabelValues(module, "output").Add(float64(outputs))
}

// ObserveLoopBreaks adds cut feedback loops
func (r *Recorder) ObserveLoopBreaks(module string, n int) {
	r.loopBreaks.WithLabelValues(module).Add(float64(n))
}

// SetDomains records the number of clock domains of a module
func (r *Recorder) SetDomains(module string, n int) {
	r.domains.WithLabelValues(module).Set(float64(n))
}

// UnitDone counts a finished unit
func (r *Recorder) UnitDone(outcome string) {
	r.units.WithLabelValues(outcome).Inc()
}

// ObserveOptimizer records the duration of one optimizer run
func (r *Recorder) ObserveOptimizer(d time.Duration) {
	r.optimizer.Observe(d.Seconds())
}

// WriteFile writes all metrics in the text exposition format
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "writing metrics to %s", path)
	}
	return nil
}
