// Package flow drives mapping runs over a design. Each module, or each of
// its clock domains, is extracted into a gate network, handed to the
// optimizer through a work directory and replaced by the optimized result.
package flow

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/abc"
	"github.com/fyerfyer/logicmap/pkg/blif"
	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/config"
	"github.com/fyerfyer/logicmap/pkg/equiv"
	"github.com/fyerfyer/logicmap/pkg/metrics"
	"github.com/fyerfyer/logicmap/pkg/netlist"
	"github.com/fyerfyer/logicmap/pkg/reintegrate"
	"github.com/fyerfyer/logicmap/pkg/utils"
)

// commandLiner is implemented by runners that can show their invocation
type commandLiner interface {
	CommandLine(scriptPath string) string
}

// Mapper runs the optimizer over every module of a design
type Mapper struct {
	opts    config.Options
	logger  *utils.Logger
	runner  abc.Runner
	metrics *metrics.Recorder

	workArea string
	display  *abc.OutputFilter
}

// NewMapper creates a mapper. opts must have been resolved. A nil runner
// executes opts.Exe and a nil recorder gets a fresh one.
func NewMapper(opts config.Options, logger *utils.Logger, runner abc.Runner, recorder *metrics.Recorder) *Mapper {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	if runner == nil {
		runner = abc.NewExec(opts.Exe)
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	return &Mapper{opts: opts, logger: logger, runner: runner, metrics: recorder}
}

// Metrics returns the recorder of the mapper
func (mp *Mapper) Metrics() *metrics.Recorder {
	return mp.metrics
}

// Run maps every module of d. With extract-only the exchange files are
// written from a copy of the design, d is left untouched and the work area
// is kept for a later Reintegrate. The work area is published under
// ScratchpadDir whenever it survives the run.
func (mp *Mapper) Run(d *netlist.Design) (err error) {
	workArea, err := newWorkArea(mp.opts.TopDir)
	if err != nil {
		return err
	}
	mp.setWorkArea(workArea)
	defer func() {
		kept, rerr := mp.release(workArea, mp.opts.ExtractOnly)
		if err == nil {
			err = rerr
		}
		if kept {
			d.Scratchpad[ScratchpadDir] = workArea
		} else {
			delete(d.Scratchpad, ScratchpadDir)
		}
	}()

	target := d
	if mp.opts.ExtractOnly {
		if target, err = cloneDesign(d); err != nil {
			return err
		}
	}

	for _, m := range mp.modules(target) {
		units, err := mp.plan(m)
		if err != nil {
			return err
		}
		for _, u := range units {
			cp := m.Checkpoint()
			outcome, err := mp.mapUnit(target, m, u)
			if err := mp.done(m, u, cp, outcome, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// Reintegrate completes a split run: the optimizer results left in the work
// area by an extract-only run are read back into d. The work area comes from
// the abc-dir option or the design scratchpad.
//
// All units of a module are extracted before the first one is reintegrated,
// which reproduces the module states seen by the extract-only run and thus
// its node numbering.
func (mp *Mapper) Reintegrate(d *netlist.Design) (err error) {
	workArea := mp.opts.Dir
	if workArea == "" {
		workArea = d.Scratchpad[ScratchpadDir]
	}
	if workArea == "" {
		return errors.Wrap(config.ErrInvalidOptions, "no work directory given and none recorded in the design")
	}
	if _, err := os.Stat(workArea); err != nil {
		return errors.Wrapf(config.ErrInvalidOptions, "work directory %s: %v", workArea, err)
	}
	mp.setWorkArea(workArea)
	defer func() {
		if err != nil {
			return
		}
		kept, rerr := mp.release(workArea, false)
		err = rerr
		if !kept {
			delete(d.Scratchpad, ScratchpadDir)
		}
	}()

	for _, m := range mp.modules(d) {
		units, err := mp.plan(m)
		if err != nil {
			return err
		}

		sessions := make([]*circuit.Session, len(units))
		for i, u := range units {
			mp.logger.Header("Extracting gate netlist of module `%s' for unit %d", m.Name, u.index)
			mp.logger.Info("%s", describeDomain(u.domain, mp.opts.Clk != ""))
			cp := m.Checkpoint()
			s, err := mp.extract(d, m, u)
			if err != nil {
				if err := mp.done(m, u, cp, "", err); err != nil {
					return err
				}
				continue
			}
			sessions[i] = s
		}

		for i, u := range units {
			if sessions[i] == nil {
				continue
			}
			cp := m.Checkpoint()
			outcome, err := mp.integrate(sessions[i], UnitDir(workArea, m.Name, u.index))
			if err := mp.done(m, u, cp, outcome, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (mp *Mapper) setWorkArea(dir string) {
	mp.workArea = dir
	mp.display = abc.NewOutputFilter(mp.logger, dir, mp.opts.ShowTmp, blif.Ports{})
}

// modules returns the modules that can be mapped. Modules with processes
// are skipped.
func (mp *Mapper) modules(d *netlist.Design) []*netlist.Module {
	var mods []*netlist.Module
	for _, m := range d.Modules() {
		if m.Processes > 0 {
			mp.logger.Warning("Skipping module %s as it contains processes.", m.Name)
			mp.metrics.UnitDone(metrics.Skipped)
			continue
		}
		mods = append(mods, m)
	}
	return mods
}

// done records the outcome of a unit. A failure is returned unless the run
// continues on errors, in which case the module is rolled back to cp and
// the extracted cells of the unit go back in.
func (mp *Mapper) done(m *netlist.Module, u unit, cp netlist.Checkpoint, outcome string, err error) error {
	if err == nil {
		mp.metrics.UnitDone(outcome)
		return nil
	}
	mp.metrics.UnitDone(metrics.Failed)
	err = errors.Wrapf(err, "module %s, unit %d", m.Name, u.index)
	if !mp.opts.ContinueOnError {
		return err
	}
	mp.logger.Error("%v", err)

	m.Rollback(cp)
	for _, c := range u.cells {
		if rerr := m.RestoreCell(c); rerr != nil {
			return errors.Wrapf(rerr, "restoring cells after: %v", err)
		}
	}
	mp.logger.Warning("Left %d cells of module %s unmapped.", len(u.cells), m.Name)
	return nil
}

// extract builds the gate network of a unit. It is run identically by the
// map and reint flows, so both see the same node numbering.
func (mp *Mapper) extract(d *netlist.Design, m *netlist.Module, u unit) (*circuit.Session, error) {
	s := circuit.NewSession(d, m, u.domain, mp.logger)
	s.KeepFF = mp.opts.KeepFF

	n, err := circuit.NewBuilder(s).Extract(u.cells)
	if err != nil {
		return nil, err
	}
	ports := circuit.NewMarker(s).Mark()
	breaks, err := circuit.NewCycleBreaker(s).Break()
	if err != nil {
		return nil, err
	}
	mp.metrics.ObserveLoopBreaks(m.Name, breaks)

	topo := circuit.NewTopology(s.Graph)
	topo.Analyze()
	mp.logger.Debug("Extracted %d cells, %d boundary nodes, %d loop breaks, depth %d.", n, ports, breaks, topo.MaxLevel)
	for _, brk := range s.Breaks {
		if path := topo.FindPathBetween(brk.Signal, brk.Broken); path != nil {
			mp.logger.Debug("Loop cut by %s: %s", brk.Wire.Name, loopPath(s.Graph, path))
		}
	}
	if mp.logger.Level >= utils.TraceLevel {
		mp.logger.Indent()
		for _, gate := range s.Graph.Gates {
			mp.logger.Trace("%s level %d", gate, topo.Levels[gate.ID])
		}
		mp.logger.Outdent()
	}
	return s, nil
}

func (mp *Mapper) mapUnit(d *netlist.Design, m *netlist.Module, u unit) (string, error) {
	dir := UnitDir(mp.workArea, m.Name, u.index)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}

	mp.logger.Header("Extracting gate netlist of module `%s' to `%s/%s'..", m.Name, mp.display.ReplaceTempDir(dir), abc.InputFile)
	mp.logger.Info("%s", describeDomain(u.domain, mp.opts.Clk != ""))
	s, err := mp.extract(d, m, u)
	if err != nil {
		return "", err
	}

	info, err := blif.WriteNetworkFile(filepath.Join(dir, abc.InputFile), s.Graph)
	if err != nil {
		return "", err
	}
	mp.logger.Info("Extracted %d gates and %d wires to a netlist network with %d inputs and %d outputs.",
		info.Gates, info.Signals, len(info.Inputs), len(info.Outputs))

	if len(info.Outputs) == 0 {
		mp.logger.Info("Don't call ABC as there is nothing to map.")
		return metrics.Skipped, nil
	}

	mp.logger.Header("Executing ABC")
	scriptPath, err := mp.writeScript(dir)
	if err != nil {
		return "", err
	}
	if mp.opts.ExtractOnly {
		mp.logger.Info("Not calling ABC, the work area is kept for reintegration.")
		return metrics.Skipped, nil
	}

	filter := abc.NewOutputFilter(mp.logger, mp.workArea, mp.opts.ShowTmp, info.Ports)
	if cl, ok := mp.runner.(commandLiner); ok {
		mp.logger.Info("Running ABC command: %s", filter.ReplaceTempDir(cl.CommandLine(scriptPath)))
	}
	start := time.Now()
	err = mp.runner.Run(scriptPath, filter)
	filter.Flush()
	mp.metrics.ObserveOptimizer(time.Since(start))
	if err != nil {
		return "", err
	}

	return mp.integrate(s, dir)
}

// writeScript writes the gate library, LUT costs and optimizer script
func (mp *Mapper) writeScript(dir string) (string, error) {
	var lib bytes.Buffer
	if err := blif.WriteLibrary(&lib, mp.opts.Library()); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, abc.GenlibFile), lib.Bytes(), 0644); err != nil {
		return "", errors.Wrapf(err, "writing %s", abc.GenlibFile)
	}

	if len(mp.opts.LutCosts) > 0 {
		var defs bytes.Buffer
		if err := blif.WriteLutDefs(&defs, mp.opts.LutCosts); err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(dir, abc.LutDefsFile), defs.Bytes(), 0644); err != nil {
			return "", errors.Wrapf(err, "writing %s", abc.LutDefsFile)
		}
	}

	script := &abc.Script{
		Dir:         dir,
		Liberty:     mp.opts.Liberty,
		Genlib:      mp.opts.Genlib,
		Constr:      mp.opts.Constr,
		LutCosts:    mp.opts.LutCosts,
		SOP:         mp.opts.SOP,
		Custom:      mp.opts.Script,
		Fast:        mp.opts.Fast,
		DelayTarget: mp.opts.DelayTarget,
		SopInputs:   mp.opts.SopInputs,
		SopProducts: mp.opts.SopProducts,
		LutShared:   mp.opts.LutShared,
		Dress:       mp.opts.Dress,
	}
	return script.WriteFile()
}

// integrate optionally verifies the optimizer result and reads it back
func (mp *Mapper) integrate(s *circuit.Session, dir string) (string, error) {
	if mp.opts.Verify {
		if err := mp.verify(dir); err != nil {
			return "", err
		}
	}

	stats, err := reintegrate.New(s, reintegrate.Options{
		BuiltinLib: mp.opts.BuiltinLib(),
		SOP:        mp.opts.SOP,
		MarkGroups: mp.opts.MarkGroups,
	}).Run(dir)
	if err != nil {
		return "", err
	}
	if stats.Skipped {
		return metrics.Skipped, nil
	}

	name := s.Module.Name
	mp.metrics.ObserveCells(name, stats.Cells)
	mp.metrics.ObserveSignals(name, stats.Internal, stats.Inputs, stats.Outputs)
	return metrics.Mapped, nil
}

func (mp *Mapper) verify(dir string) error {
	output := filepath.Join(dir, reintegrate.OutputFile)
	if _, err := os.Stat(output); err != nil {
		return nil
	}

	latchType := "_dff_"
	if mp.opts.BuiltinLib() {
		latchType = "DFF"
	}
	res, err := equiv.CheckFiles(filepath.Join(dir, abc.InputFile), output,
		blif.Options{LatchType: latchType, SOP: mp.opts.SOP}, equiv.EngineAuto)
	switch {
	case errors.Is(err, equiv.ErrUnsupported):
		mp.logger.Warning("Skipping equivalence check: %v", err)
		return nil
	case err != nil:
		return err
	}
	mp.logger.Info("Equivalence check passed (%s engine, %d inputs, %d outputs).", res.Engine, res.Inputs, res.Outputs)
	return nil
}

// loopPath renders the signals along a path of graph nodes
func loopPath(g *circuit.Graph, path []int) string {
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = g.Node(id).Bit.String()
	}
	return strings.Join(names, " -> ")
}

// cloneDesign returns an independent copy of d
func cloneDesign(d *netlist.Design) (*netlist.Design, error) {
	var buf bytes.Buffer
	if err := netlist.WriteJSON(&buf, d); err != nil {
		return nil, errors.Wrap(err, "copying design")
	}
	return netlist.ReadJSON(&buf)
}
