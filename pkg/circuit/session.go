package circuit

import (
	"fmt"

	"github.com/fyerfyer/logicmap/pkg/netlist"
	"github.com/fyerfyer/logicmap/pkg/utils"
)

// DomainKey identifies a clock domain: registers sharing clock and enable
// signals with the same polarities
type DomainKey struct {
	ClkPolarity bool
	Clk         netlist.SigSpec
	EnPolarity  bool
	En          netlist.SigSpec
}

// NoClock is the domain of purely combinational logic
var NoClock = DomainKey{ClkPolarity: true, EnPolarity: true}

// IsNoClock returns true if the key has no clock signal
func (k DomainKey) IsNoClock() bool {
	return len(k.Clk) == 0
}

// String returns the canonical form of the key, used for ordering and lookup
func (k DomainKey) String() string {
	return fmt.Sprintf("clk=%s%s, en=%s%s", polarity(k.ClkPolarity), k.Clk, polarity(k.EnPolarity), k.En)
}

// Equal compares two keys
func (k DomainKey) Equal(o DomainKey) bool {
	return k.ClkPolarity == o.ClkPolarity && k.EnPolarity == o.EnPolarity &&
		k.Clk.Equal(o.Clk) && k.En.Equal(o.En)
}

func polarity(p bool) string {
	if p {
		return ""
	}
	return "!"
}

// RegisterKey returns the domain key of a register cell. ok is false for
// cells that are not single-bit registers.
func RegisterKey(sigmap *netlist.SigMap, c *netlist.Cell) (DomainKey, bool) {
	clk, _ := c.Port("C")
	switch c.Type {
	case netlist.TypeDffP, netlist.TypeDffN:
		return DomainKey{
			ClkPolarity: c.Type == netlist.TypeDffP,
			Clk:         sigmap.ApplySpec(clk),
			EnPolarity:  true,
		}, true
	case netlist.TypeDffePP, netlist.TypeDffePN, netlist.TypeDffeNP, netlist.TypeDffeNN:
		en, _ := c.Port("E")
		return DomainKey{
			ClkPolarity: c.Type == netlist.TypeDffePP || c.Type == netlist.TypeDffePN,
			Clk:         sigmap.ApplySpec(clk),
			EnPolarity:  c.Type == netlist.TypeDffePP || c.Type == netlist.TypeDffeNP,
			En:          sigmap.ApplySpec(en),
		}, true
	}
	return DomainKey{}, false
}

// LoopBreak records one feedback cut
type LoopBreak struct {
	Wire   *netlist.Wire // New $abcloop$ signal
	Broken int           // Node promoted to boundary output
	Signal int           // Node created for Wire
}

// Session is the state of mapping one module or clock domain. It is built
// fresh for every unit and discarded after reintegration.
type Session struct {
	Design   *netlist.Design
	Module   *netlist.Module
	SigMap   *netlist.SigMap
	InitVals *netlist.InitVals
	Domain   DomainKey
	KeepFF   bool
	Graph    *Graph
	Breaks   []LoopBreak
	Logger   *utils.Logger
}

// NewSession creates a session for module m restricted to the given domain
func NewSession(d *netlist.Design, m *netlist.Module, domain DomainKey, logger *utils.Logger) *Session {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	sigmap := netlist.NewSigMap(m)

	// Earlier units may have re-driven the clock or enable net, so the key
	// is resolved against the current connections
	domain.Clk = sigmap.ApplySpec(domain.Clk)
	domain.En = sigmap.ApplySpec(domain.En)
	return &Session{
		Design:   d,
		Module:   m,
		SigMap:   sigmap,
		InitVals: netlist.NewInitVals(sigmap, m),
		Domain:   domain,
		Graph:    NewGraph(),
		Logger:   logger,
	}
}

// MapSignal resolves bit to its canonical signal and maps it into the graph
func (s *Session) MapSignal(bit netlist.SigBit, typ GateType, inputs ...int) int {
	bit = s.SigMap.Apply(bit)
	return s.Graph.MapSignal(bit, s.InitVals.Get(bit), typ, inputs...)
}

// MarkPort flags the nodes of sig as boundary. Constants and signals not in
// the graph are ignored.
func (s *Session) MarkPort(sig netlist.SigSpec) {
	for _, bit := range s.SigMap.ApplySpec(sig) {
		if bit.IsConst() {
			continue
		}
		if id, ok := s.Graph.Lookup(bit); ok {
			s.Graph.Gates[id].IsPort = true
		}
	}
}
