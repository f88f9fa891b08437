package circuit

import (
	"fmt"

	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// Gate is one node of the gate graph: a canonical signal and the function
// that drives it
type Gate struct {
	ID     int
	Type   GateType
	Inputs [4]int // Node ids, -1 when unused
	IsPort bool   // Visible outside the exported network
	Bit    netlist.SigBit
	Init   netlist.State
}

// InputIDs returns the connected inputs in order
func (g *Gate) InputIDs() []int {
	ids := make([]int, 0, 4)
	for _, in := range g.Inputs {
		if in >= 0 {
			ids = append(ids, in)
		}
	}
	return ids
}

// uniqueInputs returns the connected inputs with duplicates removed
func (g *Gate) uniqueInputs() []int {
	var ids []int
	for _, in := range g.Inputs {
		if in < 0 {
			continue
		}
		dup := false
		for _, seen := range ids {
			if seen == in {
				dup = true
				break
			}
		}
		if !dup {
			ids = append(ids, in)
		}
	}
	return ids
}

// String returns a string representation of the node
func (g *Gate) String() string {
	return fmt.Sprintf("ys__n%d(%s %s)", g.ID, g.Type, g.Bit)
}

// Graph holds gate nodes indexed by dense id and by canonical signal
type Graph struct {
	Gates []*Gate
	index map[netlist.SigBit]int
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{index: make(map[netlist.SigBit]int)}
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.Gates)
}

// Node returns the node with the given id
func (g *Graph) Node(id int) *Gate {
	return g.Gates[id]
}

// Lookup returns the node id of an already canonical bit
func (g *Graph) Lookup(bit netlist.SigBit) (int, bool) {
	id, ok := g.index[bit]
	return id, ok
}

// MapSignal returns the node of a canonical bit, creating a terminal node on
// first use. A non-None type and non-negative inputs overwrite the node's
// function, so repeated calls with the same arguments are idempotent.
func (g *Graph) MapSignal(bit netlist.SigBit, init netlist.State, typ GateType, inputs ...int) int {
	id, ok := g.index[bit]
	if !ok {
		id = len(g.Gates)
		g.Gates = append(g.Gates, &Gate{
			ID:     id,
			Type:   None,
			Inputs: [4]int{-1, -1, -1, -1},
			Bit:    bit,
			Init:   init,
		})
		g.index[bit] = id
	}

	gate := g.Gates[id]
	if typ != None {
		gate.Type = typ
	}
	for i, in := range inputs {
		if i < len(gate.Inputs) && in >= 0 {
			gate.Inputs[i] = in
		}
	}
	return id
}

// Counts returns the number of terminal, register and logic nodes
func (g *Graph) Counts() (terminals, registers, logic int) {
	for _, gate := range g.Gates {
		switch gate.Type {
		case None:
			terminals++
		case FF:
			registers++
		default:
			logic++
		}
	}
	return
}

// HasInit returns true if any register has a definite initial value
func (g *Graph) HasInit() bool {
	for _, gate := range g.Gates {
		if gate.Type == FF && gate.Init.IsDefined() {
			return true
		}
	}
	return false
}
