package reintegrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/blif"
	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/netlist"
)

var (
	// ErrUnmappedName is returned when a name has no host wire
	ErrUnmappedName = errors.New("name has no host wire")
	// ErrNoNetlist is returned when the optimizer output lacks model "netlist"
	ErrNoNetlist = errors.New("optimizer output does not contain a module `netlist'")
	// ErrInitConflict is returned when a new wire already carries an init value
	ErrInitConflict = errors.New("wire already has an init value")
)

// OutputFile is the optimizer result inside a work directory
const OutputFile = "output.blif"

// Options control how optimizer cells are translated
type Options struct {
	BuiltinLib bool // Cells come from the generated gate library
	SOP        bool // .names become $sop instead of $lut
	MarkGroups bool // Tag created objects with the reintegration index
}

// Stats summarizes one reintegration
type Stats struct {
	Cells    map[string]int // Optimizer cells by type
	Internal int
	Inputs   int
	Outputs  int
	Skipped  bool // No optimizer output was found
}

// Reintegrator replaces an extracted network with the optimizer's version
type Reintegrator struct {
	s     *circuit.Session
	opts  Options
	names *NameMap
}

// New creates a reintegrator for a session that went through extraction,
// boundary marking and loop breaking
func New(s *circuit.Session, opts Options) *Reintegrator {
	return &Reintegrator{s: s, opts: opts}
}

// Run reads the optimizer output from dir and integrates it
func (r *Reintegrator) Run(dir string) (*Stats, error) {
	path := filepath.Join(dir, OutputFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			r.s.Logger.Warning("ABC file %s doesn't exist, nothing to map", path)
			return &Stats{Skipped: true, Cells: map[string]int{}}, nil
		}
		return nil, errors.Wrapf(err, "checking %s", path)
	}

	latchType := "_dff_"
	if r.opts.BuiltinLib {
		latchType = "DFF"
	}
	models, err := blif.ReadFile(path, blif.Options{LatchType: latchType, SOP: r.opts.SOP})
	if err != nil {
		return nil, err
	}

	mapped := blif.FindModel(models, "netlist")
	if mapped == nil {
		return nil, errors.Wrap(ErrNoNetlist, path)
	}
	return r.Integrate(mapped)
}

// Integrate adds the cells and nets of the mapped model to the host module
// and reconnects the boundary signals
func (r *Reintegrator) Integrate(mapped *blif.Model) (*Stats, error) {
	s := r.s
	s.Logger.Header("Re-integrating ABC results")

	r.names = NewNameMap(s.Design.NextAutoIdx(), s.Graph)
	stats := &Stats{Cells: make(map[string]int)}

	for _, net := range mapped.Nets {
		name, orig := r.names.Remap(net)
		w, err := s.Module.AddWire(name, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "creating wire for %s", net)
		}
		if orig != nil {
			if src, ok := orig.Attributes[netlist.AttrSrc]; ok {
				w.SetAttribute(netlist.AttrSrc, src)
			}
		}
		if r.opts.MarkGroups {
			w.SetAttribute(netlist.AttrAbcGroup, netlist.ConstInt(r.names.Idx()))
		}
	}

	for _, c := range mapped.Cells {
		stats.Cells[c.Type]++
		if err := r.addCell(c); err != nil {
			return nil, errors.Wrapf(err, "cell %s (%s)", c.Name, c.Type)
		}
	}

	for _, a := range mapped.Assigns {
		lhs, err := r.bit(a.Lhs)
		if err != nil {
			return nil, err
		}
		rhs := netlist.Const(a.Value)
		if a.Rhs != "" {
			if rhs, err = r.bit(a.Rhs); err != nil {
				return nil, err
			}
		}
		s.Module.ConnectBit(lhs, rhs)
	}

	if s.Graph.HasInit() {
		if err := r.recoverInit(mapped); err != nil {
			return nil, err
		}
	}

	types := make([]string, 0, len(stats.Cells))
	for t := range stats.Cells {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		s.Logger.Info("ABC RESULTS:   %15s cells: %8d", t, stats.Cells[t])
	}

	for _, gate := range s.Graph.Gates {
		if !gate.IsPort {
			continue
		}
		bit, err := r.bit(blif.NodeName(gate.ID))
		if err != nil {
			return nil, errors.Wrapf(err, "boundary node %s", gate)
		}
		if gate.Type != circuit.None {
			s.Module.ConnectBit(gate.Bit, bit)
			stats.Outputs++
		} else {
			s.Module.ConnectBit(bit, gate.Bit)
			stats.Inputs++
		}
	}
	stats.Internal = s.Graph.Len() - stats.Inputs - stats.Outputs

	s.Logger.Info("ABC RESULTS:        internal signals: %8d", stats.Internal)
	s.Logger.Info("ABC RESULTS:           input signals: %8d", stats.Inputs)
	s.Logger.Info("ABC RESULTS:          output signals: %8d", stats.Outputs)
	return stats, nil
}

// bit returns the host wire bit for an optimizer net
func (r *Reintegrator) bit(net string) (netlist.SigBit, error) {
	name, _ := r.names.Remap(net)
	w := r.s.Module.Wire(name)
	if w == nil {
		return netlist.SigBit{}, errors.Wrapf(ErrUnmappedName, "%s (%s)", net, name)
	}
	return w.Bit(0), nil
}

func (r *Reintegrator) newCell(name, cellType string) (*netlist.Cell, error) {
	host, _ := r.names.Remap(name)
	cell, err := r.s.Module.AddCell(host, cellType)
	if err != nil {
		return nil, err
	}
	if r.opts.MarkGroups {
		cell.SetAttribute(netlist.AttrAbcGroup, netlist.ConstInt(r.names.Idx()))
	}
	return cell, nil
}

// connect copies single-net ports of c to the host cell
func (r *Reintegrator) connect(cell *netlist.Cell, c *blif.Cell, ports []string) error {
	for _, p := range ports {
		net := c.Net(p)
		if net == "" {
			return errors.Errorf("port %s is missing", p)
		}
		bit, err := r.bit(net)
		if err != nil {
			return err
		}
		cell.SetPort(p, netlist.SigSpec{bit})
	}
	return nil
}

func (r *Reintegrator) addCell(c *blif.Cell) error {
	m := r.s.Module

	if r.opts.BuiltinLib {
		switch c.Type {
		case "ZERO", "ONE":
			y, err := r.bit(c.Net("Y"))
			if err != nil {
				return err
			}
			value := netlist.S0
			if c.Type == "ONE" {
				value = netlist.S1
			}
			m.ConnectBit(y, netlist.Const(value))
			return nil
		case "BUF":
			return r.alias(c.Net("Y"), c.Net("A"))
		case "DFF":
			return r.addRegister(c)
		}

		if kind := circuit.KindByName(c.Type); kind != nil && kind.CellType != "" {
			cell, err := r.newCell(c.Name, kind.CellType)
			if err != nil {
				return err
			}
			return r.connect(cell, c, append(append([]string{}, kind.Pins...), kind.Output))
		}
	}

	switch {
	case c.Type == "_const0_" || c.Type == "_const1_":
		if len(c.Ports) == 0 || len(c.Ports[0].Nets) != 1 {
			return errors.New("constant cell without output")
		}
		y, err := r.bit(c.Ports[0].Nets[0])
		if err != nil {
			return err
		}
		value := netlist.S0
		if c.Type == "_const1_" {
			value = netlist.S1
		}
		m.ConnectBit(y, netlist.Const(value))
		return nil
	case c.Type == "_dff_":
		return r.addRegister(c)
	case c.Type == netlist.TypeLut && isBufferLut(c):
		return r.alias(c.Net("Y"), c.Net("A"))
	}

	cell, err := r.newCell(c.Name, c.Type)
	if err != nil {
		return err
	}
	for name, value := range c.Params {
		cell.SetParam(name, value)
	}
	for _, p := range c.Ports {
		sig := make(netlist.SigSpec, 0, len(p.Nets))
		for _, net := range p.Nets {
			bit, err := r.bit(net)
			if err != nil {
				return err
			}
			sig = append(sig, bit)
		}
		cell.SetPort(p.Name, sig)
	}
	return nil
}

// alias connects y to a
func (r *Reintegrator) alias(y, a string) error {
	yb, err := r.bit(y)
	if err != nil {
		return err
	}
	ab, err := r.bit(a)
	if err != nil {
		return err
	}
	r.s.Module.ConnectBit(yb, ab)
	return nil
}

// addRegister rebuilds a register of the session's clock domain
func (r *Reintegrator) addRegister(c *blif.Cell) error {
	domain := r.s.Domain
	if len(domain.Clk) != 1 || len(domain.En) > 1 {
		return errors.Errorf("register outside of a single-bit clock domain (%s)", domain)
	}

	cellType := netlist.TypeDffN
	if domain.ClkPolarity {
		cellType = netlist.TypeDffP
	}
	if len(domain.En) == 1 {
		cellType = fmt.Sprintf("$_DFFE_%c%c_", polarityChar(domain.ClkPolarity), polarityChar(domain.EnPolarity))
	}

	cell, err := r.newCell(c.Name, cellType)
	if err != nil {
		return err
	}
	cell.SetPort("C", domain.Clk)
	if err := r.connect(cell, c, []string{"D"}); err != nil {
		return err
	}
	if len(domain.En) == 1 {
		cell.SetPort("E", domain.En)
	}
	return r.connect(cell, c, []string{"Q"})
}

func (r *Reintegrator) recoverInit(mapped *blif.Model) error {
	nets := make([]string, 0, len(mapped.Init))
	for net := range mapped.Init {
		nets = append(nets, net)
	}
	sort.Strings(nets)

	for _, net := range nets {
		name, _ := r.names.Remap(net)
		w := r.s.Module.Wire(name)
		if w == nil {
			return errors.Wrapf(ErrUnmappedName, "%s (%s)", net, name)
		}
		if _, ok := w.Attributes[netlist.AttrInit]; ok {
			return errors.Wrapf(ErrInitConflict, "wire %s", name)
		}
		w.SetAttribute(netlist.AttrInit, mapped.Init[net].String())
	}
	return nil
}

func isBufferLut(c *blif.Cell) bool {
	nets, ok := c.Port("A")
	if !ok || len(nets) != 1 {
		return false
	}
	v, err := netlist.ParseConstInt(c.Params["LUT"])
	return err == nil && v == 2
}

func polarityChar(p bool) byte {
	if p {
		return 'P'
	}
	return 'N'
}
