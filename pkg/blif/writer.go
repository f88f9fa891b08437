package blif

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// ErrUnknownGate is returned when a graph node has no BLIF representation
var ErrUnknownGate = errors.New("unknown gate type")

// DummyInput is declared when the network has no boundary inputs
const DummyInput = "dummy_input"

// NodeName returns the exchange name of graph node id
func NodeName(id int) string {
	return fmt.Sprintf("ys__n%d", id)
}

// Ports maps positional boundary indices to signal names. The optimizer
// reports timing paths as piN/poM.
type Ports struct {
	Inputs  map[int]string
	Outputs map[int]string
}

// NetworkInfo summarizes an exported network
type NetworkInfo struct {
	Ports
	Gates       int  // Register and logic nodes
	Signals     int  // All nodes
	RecoverInit bool // A register was written with a definite initial value
}

// WriteNetworkFile writes the graph to path
func WriteNetworkFile(path string, g *circuit.Graph) (*NetworkInfo, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s for writing", path)
	}
	defer f.Close()

	info, err := WriteNetwork(f, g)
	if err != nil {
		return nil, errors.Wrapf(err, "writing %s", path)
	}
	return info, f.Close()
}

// WriteNetwork writes the graph as model "netlist". Boundary terminals are
// the model inputs and boundary gates and registers the outputs.
func WriteNetwork(w io.Writer, g *circuit.Graph) (*NetworkInfo, error) {
	bw := bufio.NewWriter(w)
	info := &NetworkInfo{
		Ports:   Ports{Inputs: make(map[int]string), Outputs: make(map[int]string)},
		Signals: g.Len(),
	}

	fmt.Fprintln(bw, ".model netlist")

	fmt.Fprint(bw, ".inputs")
	for _, gate := range g.Gates {
		if !gate.IsPort || gate.Type != circuit.None {
			continue
		}
		fmt.Fprintf(bw, " %s", NodeName(gate.ID))
		info.Inputs[len(info.Inputs)] = gate.Bit.String()
	}
	if len(info.Inputs) == 0 {
		fmt.Fprintf(bw, " %s", DummyInput)
	}
	fmt.Fprintln(bw)

	fmt.Fprint(bw, ".outputs")
	for _, gate := range g.Gates {
		if !gate.IsPort || gate.Type == circuit.None {
			continue
		}
		fmt.Fprintf(bw, " %s", NodeName(gate.ID))
		info.Outputs[len(info.Outputs)] = gate.Bit.String()
	}
	fmt.Fprintln(bw)

	for _, gate := range g.Gates {
		fmt.Fprintf(bw, "# ys__n%-5d %s\n", gate.ID, gate.Bit)
	}

	for _, gate := range g.Gates {
		if !gate.Bit.IsConst() {
			continue
		}
		fmt.Fprintf(bw, ".names %s\n", NodeName(gate.ID))
		if gate.Bit.Data == netlist.S1 {
			fmt.Fprintln(bw, "1")
		}
	}

	for _, gate := range g.Gates {
		switch {
		case gate.Type == circuit.None:
			continue
		case gate.Type == circuit.FF:
			if err := writeLatch(bw, g, gate); err != nil {
				return nil, err
			}
			if gate.Init.IsDefined() {
				info.RecoverInit = true
			}
		case gate.Type.IsLogic():
			if err := writeCover(bw, g, gate); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(ErrUnknownGate, "node %s", gate)
		}
		info.Gates++
	}

	fmt.Fprintln(bw, ".end")
	return info, bw.Flush()
}

func writeCover(w io.Writer, g *circuit.Graph, gate *circuit.Gate) error {
	kind := circuit.KindOf(gate.Type)
	if kind == nil || len(kind.Cover) == 0 {
		return errors.Wrapf(ErrUnknownGate, "node %s", gate)
	}

	fmt.Fprint(w, ".names")
	for i := 0; i < kind.Arity(); i++ {
		in := gate.Inputs[i]
		if in < 0 || in >= g.Len() {
			return errors.Errorf("node %s: input %s is not connected", gate, kind.Pins[i])
		}
		fmt.Fprintf(w, " %s", NodeName(in))
	}
	fmt.Fprintf(w, " %s\n", NodeName(gate.ID))

	for _, row := range kind.Cover {
		fmt.Fprintln(w, row)
	}
	return nil
}

func writeLatch(w io.Writer, g *circuit.Graph, gate *circuit.Gate) error {
	in := gate.Inputs[0]
	if in < 0 || in >= g.Len() {
		return errors.Errorf("register %s has no data input", gate)
	}

	init := 2
	switch gate.Init {
	case netlist.S0:
		init = 0
	case netlist.S1:
		init = 1
	}
	fmt.Fprintf(w, ".latch %s %s %d\n", NodeName(in), NodeName(gate.ID), init)
	return nil
}
