package circuit

import (
	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// ErrMalformedCell is returned for a recognized cell with a missing or
// multi-bit port
var ErrMalformedCell = errors.New("malformed cell")

// Builder extracts primitive cells of a module into the session's gate graph
type Builder struct {
	s *Session
}

// NewBuilder creates a builder for the session
func NewBuilder(s *Session) *Builder {
	return &Builder{s: s}
}

// Extract maps every recognized cell into the graph and removes it from the
// module. Registers outside the session's domain and unsupported cell types
// are left in place. It returns the number of extracted cells.
func (b *Builder) Extract(cells []*netlist.Cell) (int, error) {
	s := b.s
	if s.Domain.IsNoClock() {
		s.Logger.Debug("No clock domain, registers are not extracted")
	}

	count := 0
	for _, c := range cells {
		ok, err := b.extractCell(c)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

func (b *Builder) extractCell(c *netlist.Cell) (bool, error) {
	s := b.s

	if _, isReg := RegisterKey(s.SigMap, c); isReg {
		return b.extractRegister(c)
	}

	kind := KindByCellType(c.Type)
	if kind == nil || !kind.Type.IsLogic() {
		return false, nil
	}

	ports := make([]string, 0, len(kind.Pins)+1)
	ports = append(ports, kind.Pins...)
	ports = append(ports, kind.Output)
	pins, err := singleBits(c, ports...)
	if err != nil {
		return false, err
	}

	inputs := make([]int, len(kind.Pins))
	for i := range kind.Pins {
		inputs[i] = s.MapSignal(pins[i], None)
	}
	s.MapSignal(pins[len(pins)-1], kind.Type, inputs...)

	s.Module.RemoveCell(c)
	return true, nil
}

func (b *Builder) extractRegister(c *netlist.Cell) (bool, error) {
	s := b.s

	key, _ := RegisterKey(s.SigMap, c)
	if s.Domain.IsNoClock() || !key.Equal(s.Domain) {
		return false, nil
	}

	ports := []string{"C", "D", "Q"}
	if len(key.En) > 0 {
		ports = append(ports, "E")
	}
	pins, err := singleBits(c, ports...)
	if err != nil {
		return false, err
	}

	d, q := pins[1], pins[2]
	if s.KeepFF && !q.IsConst() {
		q.Wire.SetAttribute(netlist.AttrKeep, "1")
	}

	s.MapSignal(q, FF, s.MapSignal(d, None))
	s.Module.RemoveCell(c)
	return true, nil
}

// singleBits returns bit 0 of each port, failing if a port is missing or
// wider than one bit
func singleBits(c *netlist.Cell, ports ...string) ([]netlist.SigBit, error) {
	bits := make([]netlist.SigBit, len(ports))
	for i, port := range ports {
		sig, ok := c.Port(port)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedCell, "cell %s (%s) has no port %s", c.Name, c.Type, port)
		}
		if len(sig) != 1 {
			return nil, errors.Wrapf(ErrMalformedCell, "cell %s (%s) port %s is %d bits wide", c.Name, c.Type, port, len(sig))
		}
		bits[i] = sig[0]
	}
	return bits, nil
}
