package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample returns the value of the series of name carrying labels. Counters
// and gauges report their value, histograms their sample count.
func sample(t *testing.T, r *Recorder, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("no series %s%v", name, labels)
	return 0
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.ObserveCells("top", map[string]int{"NAND": 3, "NOT": 1})
	r.ObserveCells("top", map[string]int{"NAND": 2})
	r.ObserveSignals("top", 4, 2, 1)
	r.ObserveLoopBreaks("top", 1)
	r.SetDomains("top", 2)
	r.UnitDone(Mapped)
	r.UnitDone(Mapped)
	r.UnitDone(Skipped)
	r.ObserveOptimizer(30 * time.Millisecond)

	top := func(kv ...string) map[string]string {
		labels := map[string]string{ModuleLabel: "top"}
		for i := 0; i+1 < len(kv); i += 2 {
			labels[kv[i]] = kv[i+1]
		}
		return labels
	}
	assert.Equal(t, 5.0, sample(t, r, "logicmap_cells_total", top(TypeLabel, "NAND")))
	assert.Equal(t, 1.0, sample(t, r, "logicmap_cells_total", top(TypeLabel, "NOT")))
	assert.Equal(t, 2.0, sample(t, r, "logicmap_signals_total", top(DirectionLabel, "input")))
	assert.Equal(t, 4.0, sample(t, r, "logicmap_signals_total", top(DirectionLabel, "internal")))
	assert.Equal(t, 1.0, sample(t, r, "logicmap_loop_breaks_total", top()))
	assert.Equal(t, 2.0, sample(t, r, "logicmap_clock_domains", top()))
	assert.Equal(t, 2.0, sample(t, r, "logicmap_units_total", map[string]string{OutcomeLabel: Mapped}))
	assert.Equal(t, 1.0, sample(t, r, "logicmap_units_total", map[string]string{OutcomeLabel: Skipped}))
	assert.Equal(t, 1.0, sample(t, r, "logicmap_optimizer_duration_seconds", nil))
}

func TestWriteFile(t *testing.T) {
	r := NewRecorder()
	r.UnitDone(Failed)
	path := filepath.Join(t.TempDir(), "logicmap.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `logicmap_units_total{outcome="failed"} 1`)
	assert.Contains(t, string(data), "# HELP logicmap_optimizer_duration_seconds")
}
