package blif

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fyerfyer/logicmap/pkg/circuit"
)

// Library selects the gates written to the generated cell library. BUF and
// NOT are always present.
type Library struct {
	Gates map[circuit.GateType]bool
	CMOS  bool // Use transistor-count costs
	Mux4  bool
	Mux8  bool
	Mux16 bool
}

// Area cost per gate in the generic cost model
var defaultCost = map[circuit.GateType]int{
	circuit.BUF:    1,
	circuit.NOT:    2,
	circuit.AND:    4,
	circuit.NAND:   4,
	circuit.OR:     4,
	circuit.NOR:    4,
	circuit.ANDNOT: 4,
	circuit.ORNOT:  4,
	circuit.XOR:    5,
	circuit.XNOR:   5,
	circuit.AOI3:   6,
	circuit.OAI3:   6,
	circuit.AOI4:   7,
	circuit.OAI4:   7,
	circuit.MUX:    4,
	circuit.NMUX:   4,
}

// Area cost per gate in the CMOS transistor model
var cmosCost = map[circuit.GateType]int{
	circuit.BUF:    1,
	circuit.NOT:    2,
	circuit.AND:    6,
	circuit.NAND:   4,
	circuit.OR:     6,
	circuit.NOR:    4,
	circuit.ANDNOT: 6,
	circuit.ORNOT:  6,
	circuit.XOR:    12,
	circuit.XNOR:   12,
	circuit.AOI3:   6,
	circuit.OAI3:   6,
	circuit.AOI4:   8,
	circuit.OAI4:   8,
	circuit.MUX:    12,
	circuit.NMUX:   10,
}

// GateCost returns the area cost of a gate. Wide multiplexers are priced as
// trees of MUX cells.
func GateCost(t circuit.GateType, cmos bool) int {
	table := defaultCost
	if cmos {
		table = cmosCost
	}
	switch t {
	case circuit.ZERO, circuit.ONE:
		return 1
	case circuit.MUX4:
		return 2 * table[circuit.MUX]
	case circuit.MUX8:
		return 4 * table[circuit.MUX]
	case circuit.MUX16:
		return 8 * table[circuit.MUX]
	}
	return table[t]
}

// Optional gates in library order
var libraryOrder = []circuit.GateType{
	circuit.AND, circuit.NAND, circuit.OR, circuit.NOR,
	circuit.XOR, circuit.XNOR, circuit.ANDNOT, circuit.ORNOT,
	circuit.AOI3, circuit.OAI3, circuit.AOI4, circuit.OAI4,
	circuit.MUX, circuit.NMUX,
}

// WriteLibrary writes the gate library in genlib format
func WriteLibrary(w io.Writer, lib Library) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "GATE ZERO    1 Y=CONST0;")
	fmt.Fprintln(bw, "GATE ONE     1 Y=CONST1;")

	types := []circuit.GateType{circuit.BUF, circuit.NOT}
	for _, t := range libraryOrder {
		if lib.Gates[t] {
			types = append(types, t)
		}
	}
	if lib.Mux4 {
		types = append(types, circuit.MUX4)
	}
	if lib.Mux8 {
		types = append(types, circuit.MUX8)
	}
	if lib.Mux16 {
		types = append(types, circuit.MUX16)
	}

	for _, t := range types {
		k := circuit.KindOf(t)
		fmt.Fprintf(bw, "GATE %-7s%d %-21s PIN * %-7s 1 999 1 0 1 0\n",
			k.Name, GateCost(t, lib.CMOS), "Y="+k.Expr+";", k.Phase)
	}
	return bw.Flush()
}

// WriteLutDefs writes the LUT cost table, one line per input count
func WriteLutDefs(w io.Writer, costs []int) error {
	bw := bufio.NewWriter(w)
	for i, cost := range costs {
		fmt.Fprintf(bw, "%d %d.00 1.00\n", i+1, cost)
	}
	return bw.Flush()
}
