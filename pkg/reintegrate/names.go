package reintegrate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// NameMap translates names found in the optimizer output into host names.
// Node names ys__n<id> become $abc$<idx>$<wire>[<offset>] after the signal
// they were exported from; anything else keeps its own name under the same
// $abc$<idx>$ prefix.
type NameMap struct {
	idx   int
	graph *circuit.Graph
}

// NewNameMap creates a name map for one reintegration
func NewNameMap(idx int, g *circuit.Graph) *NameMap {
	return &NameMap{idx: idx, graph: g}
}

// Idx returns the index shared by all names of this reintegration
func (nm *NameMap) Idx() int {
	return nm.idx
}

// Remap returns the host name for an exchange name, plus the wire the node
// was exported from when the name refers to a graph node
func (nm *NameMap) Remap(name string) (string, *netlist.Wire) {
	s := name
	isNew := false
	if strings.HasPrefix(s, "new_") {
		s = s[len("new_"):]
		isNew = true
	}

	if strings.HasPrefix(s, "ys__n") {
		s = s[len("ys__n"):]
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end > 0 {
			id, err := strconv.Atoi(s[:end])
			if err == nil && id < nm.graph.Len() {
				bit := nm.graph.Gates[id].Bit
				if bit.Wire != nil {
					out := fmt.Sprintf("$abc$%d$%s", nm.idx, strings.TrimPrefix(bit.Wire.Name, "$"))
					if bit.Wire.Width != 1 {
						out += fmt.Sprintf("[%d]", bit.Offset)
					}
					if isNew {
						out += "_new"
					}
					return out + s[end:], bit.Wire
				}
			}
		}
	}

	return fmt.Sprintf("$abc$%d$%s", nm.idx, strings.TrimPrefix(name, "$")), nil
}
