package flow

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/config"
	"github.com/fyerfyer/logicmap/pkg/netlist"
	"github.com/fyerfyer/logicmap/pkg/partition"
)

// unit is one optimizer run: a whole module or one of its clock domains
type unit struct {
	index  int
	domain circuit.DomainKey
	cells  []*netlist.Cell
}

// plan splits a module into units. Without dff, or with an explicit clock,
// the module is a single unit. Otherwise every clock domain found by the
// partitioner becomes its own unit.
func (mp *Mapper) plan(m *netlist.Module) ([]unit, error) {
	if !mp.opts.DFF || mp.opts.Clk != "" {
		domain, err := ParseClock(m, mp.opts.Clk)
		if err != nil {
			return nil, err
		}
		if !mp.opts.DFF {
			domain = circuit.NoClock
		}
		mp.metrics.SetDomains(m.Name, 1)
		return []unit{{index: 0, domain: domain, cells: m.Cells()}}, nil
	}

	parts := partition.NewPartitioner(netlist.NewSigMap(m), mp.logger).Partition(m.Cells())

	units := make([]unit, len(parts))
	for i, p := range parts {
		units[i] = unit{index: i, domain: p.Key, cells: p.Cells}
	}
	mp.metrics.SetDomains(m.Name, len(parts))
	return units, nil
}

// ParseClock resolves a "[!]clk[,[!]en]" spec against the wires of m. An
// empty spec yields NoClock.
func ParseClock(m *netlist.Module, spec string) (circuit.DomainKey, error) {
	key := circuit.NoClock
	if spec == "" {
		return key, nil
	}

	clk, en := spec, ""
	if i := strings.IndexByte(spec, ','); i >= 0 {
		clk, en = spec[:i], spec[i+1:]
	}

	sigmap := netlist.NewSigMap(m)
	lookup := func(name string) (bool, netlist.SigSpec, error) {
		polarity := true
		if strings.HasPrefix(name, "!") {
			polarity = false
			name = name[1:]
		}
		w := m.Wire(name)
		if w == nil {
			return false, nil, errors.Wrapf(config.ErrInvalidOptions, "Clock domain %s not found", spec)
		}
		return polarity, sigmap.ApplySpec(w.Bits()), nil
	}

	var err error
	if key.ClkPolarity, key.Clk, err = lookup(clk); err != nil {
		return circuit.DomainKey{}, err
	}
	if en != "" {
		if key.EnPolarity, key.En, err = lookup(en); err != nil {
			return circuit.DomainKey{}, err
		}
	}
	return key, nil
}

// describeDomain renders the clock domain log line
func describeDomain(key circuit.DomainKey, matching bool) string {
	match := ""
	if matching {
		match = " matching"
	}
	if key.IsNoClock() {
		return fmt.Sprintf("No%s clock domain found. Not extracting any FF cells.", match)
	}

	edge := "posedge"
	if !key.ClkPolarity {
		edge = "negedge"
	}
	line := fmt.Sprintf("Found%s %s clock domain: %s", match, edge, key.Clk)
	if len(key.En) > 0 {
		enPol := ""
		if !key.EnPolarity {
			enPol = "!"
		}
		line += fmt.Sprintf(", enabled by %s%s", enPol, key.En)
	}
	return line
}
