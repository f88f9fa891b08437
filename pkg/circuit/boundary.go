package circuit

import "github.com/fyerfyer/logicmap/pkg/netlist"

// Marker flags graph nodes that must stay visible outside the exported
// network
type Marker struct {
	s *Session
}

// NewMarker creates a boundary marker for the session
func NewMarker(s *Session) *Marker {
	return &Marker{s: s}
}

// Mark runs once after extraction. A node is boundary if its signal is a
// module port, a kept wire, still used by a cell left in the module, or the
// active clock or enable. It returns the number of boundary nodes.
func (mk *Marker) Mark() int {
	s := mk.s

	for _, w := range s.Module.Wires() {
		if w.PortID > 0 || w.GetBoolAttribute(netlist.AttrKeep) {
			s.MarkPort(w.Bits())
		}
	}

	for _, c := range s.Module.Cells() {
		for _, conn := range c.Connections() {
			s.MarkPort(conn.Sig)
		}
	}

	if len(s.Domain.Clk) > 0 {
		s.MarkPort(s.Domain.Clk)
	}
	if len(s.Domain.En) > 0 {
		s.MarkPort(s.Domain.En)
	}

	count := 0
	for _, g := range s.Graph.Gates {
		if g.IsPort {
			count++
		}
	}
	return count
}
