package equiv

import (
	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/blif"
	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// ops builds boolean functions in one engine's representation
type ops[L any] interface {
	Input(i int) L
	Const(v bool) L
	Not(a L) L
	And(a, b L) L
	Or(a, b L) L
	Xor(a, b L) L
	Ite(s, t, e L) L
}

// network evaluates the nets of a model symbolically
type network[L any] struct {
	o       ops[L]
	model   *blif.Model
	vars    map[string]int
	drivers map[string]driver
	done    map[string]L
	active  map[string]bool
}

type driver struct {
	cell   *blif.Cell
	assign *blif.Assign
}

// supported checks that every cell of m has a known combinational function
func supported(m *blif.Model) error {
	for _, c := range m.Cells {
		switch c.Type {
		case netlist.TypeLut, netlist.TypeSop:
			continue
		}
		kind := circuit.KindByName(c.Type)
		if kind == nil {
			return errors.Wrapf(ErrUnsupported, "cell %s has unknown type %s", c.Name, c.Type)
		}
	}
	return nil
}

func newNetwork[L any](o ops[L], m *blif.Model, vars map[string]int) (*network[L], error) {
	if err := supported(m); err != nil {
		return nil, err
	}
	n := &network[L]{
		o:       o,
		model:   m,
		vars:    vars,
		drivers: make(map[string]driver),
		done:    make(map[string]L),
		active:  make(map[string]bool),
	}
	for _, c := range m.Cells {
		out := c.Net("Y")
		if out == "" {
			return nil, errors.Wrapf(ErrUnsupported, "cell %s has no single-bit output", c.Name)
		}
		if _, dup := n.drivers[out]; dup {
			return nil, errors.Wrapf(ErrUnsupported, "net %s has multiple drivers", out)
		}
		n.drivers[out] = driver{cell: c}
	}
	for i := range m.Assigns {
		a := &m.Assigns[i]
		if _, dup := n.drivers[a.Lhs]; dup {
			return nil, errors.Wrapf(ErrUnsupported, "net %s has multiple drivers", a.Lhs)
		}
		n.drivers[a.Lhs] = driver{assign: a}
	}
	return n, nil
}

// Net returns the function of a net over the primary inputs
func (n *network[L]) Net(name string) (L, error) {
	if f, ok := n.done[name]; ok {
		return f, nil
	}
	var zero L
	if n.active[name] {
		return zero, errors.Wrapf(ErrUnsupported, "combinational loop through %s", name)
	}

	if idx, ok := n.vars[name]; ok && n.isInput(name) {
		f := n.o.Input(idx)
		n.done[name] = f
		return f, nil
	}

	d, ok := n.drivers[name]
	if !ok {
		return zero, errors.Wrapf(ErrUnsupported, "net %s is undriven", name)
	}

	n.active[name] = true
	defer delete(n.active, name)

	var f L
	var err error
	switch {
	case d.assign != nil && d.assign.Rhs == "":
		f = n.o.Const(d.assign.Value == netlist.S1)
	case d.assign != nil:
		f, err = n.Net(d.assign.Rhs)
	default:
		f, err = n.cell(d.cell)
	}
	if err != nil {
		return zero, err
	}
	n.done[name] = f
	return f, nil
}

func (n *network[L]) isInput(name string) bool {
	for _, in := range n.model.Inputs {
		if in == name {
			return true
		}
	}
	return false
}

func (n *network[L]) nets(names []string) ([]L, error) {
	fs := make([]L, len(names))
	for i, name := range names {
		f, err := n.Net(name)
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	return fs, nil
}

func (n *network[L]) cell(c *blif.Cell) (L, error) {
	var zero L
	switch c.Type {
	case netlist.TypeLut:
		nets, _ := c.Port("A")
		ins, err := n.nets(nets)
		if err != nil {
			return zero, err
		}
		table := netlist.ParseConstBits(c.Params["LUT"], 1<<len(ins))
		return lut(n.o, table, ins), nil

	case netlist.TypeSop:
		nets, _ := c.Port("A")
		ins, err := n.nets(nets)
		if err != nil {
			return zero, err
		}
		depth, err := netlist.ParseConstInt(c.Params["DEPTH"])
		if err != nil {
			return zero, errors.Wrapf(ErrUnsupported, "cell %s: bad DEPTH", c.Name)
		}
		table := netlist.ParseConstBits(c.Params["TABLE"], 2*len(ins)*depth)
		return sop(n.o, table, ins, depth), nil
	}

	kind := circuit.KindByName(c.Type)
	ins := make([]L, len(kind.Pins))
	for i, pin := range kind.Pins {
		net := c.Net(pin)
		if net == "" {
			return zero, errors.Wrapf(ErrUnsupported, "cell %s: pin %s is not connected", c.Name, pin)
		}
		f, err := n.Net(net)
		if err != nil {
			return zero, err
		}
		ins[i] = f
	}
	return gate(n.o, kind, ins), nil
}

// lut builds a truth table where bit i of the index is input i
func lut[L any](o ops[L], table []netlist.State, ins []L) L {
	if len(ins) == 0 {
		return o.Const(len(table) > 0 && table[0] == netlist.S1)
	}
	last := len(ins) - 1
	half := len(table) / 2
	lo := lut(o, table[:half], ins[:last])
	hi := lut(o, table[half:], ins[:last])
	return o.Ite(ins[last], hi, lo)
}

// sop builds an OR of product terms, two table bits per input and term
func sop[L any](o ops[L], table []netlist.State, ins []L, depth int) L {
	f := o.Const(false)
	width := len(ins)
	for t := 0; t < depth; t++ {
		term := o.Const(true)
		for i := 0; i < width; i++ {
			base := 2 * (t*width + i)
			if table[base] == netlist.S1 {
				term = o.And(term, o.Not(ins[i]))
			}
			if table[base+1] == netlist.S1 {
				term = o.And(term, ins[i])
			}
		}
		f = o.Or(f, term)
	}
	return f
}

// gate builds the function of a library kind, inputs in Pins order
func gate[L any](o ops[L], kind *circuit.Kind, in []L) L {
	switch kind.Type {
	case circuit.ZERO:
		return o.Const(false)
	case circuit.ONE:
		return o.Const(true)
	case circuit.BUF:
		return in[0]
	case circuit.NOT:
		return o.Not(in[0])
	case circuit.AND:
		return o.And(in[0], in[1])
	case circuit.NAND:
		return o.Not(o.And(in[0], in[1]))
	case circuit.OR:
		return o.Or(in[0], in[1])
	case circuit.NOR:
		return o.Not(o.Or(in[0], in[1]))
	case circuit.XOR:
		return o.Xor(in[0], in[1])
	case circuit.XNOR:
		return o.Not(o.Xor(in[0], in[1]))
	case circuit.ANDNOT:
		return o.And(in[0], o.Not(in[1]))
	case circuit.ORNOT:
		return o.Or(in[0], o.Not(in[1]))
	case circuit.MUX:
		return o.Ite(in[2], in[1], in[0])
	case circuit.NMUX:
		return o.Not(o.Ite(in[2], in[1], in[0]))
	case circuit.AOI3:
		return o.Not(o.Or(o.And(in[0], in[1]), in[2]))
	case circuit.OAI3:
		return o.Not(o.And(o.Or(in[0], in[1]), in[2]))
	case circuit.AOI4:
		return o.Not(o.Or(o.And(in[0], in[1]), o.And(in[2], in[3])))
	case circuit.OAI4:
		return o.Not(o.And(o.Or(in[0], in[1]), o.Or(in[2], in[3])))
	}

	// wide muxes: data pins first, then selects LSB first
	data := 0
	for data < len(kind.Pins) && kind.Pins[data] < "S" {
		data++
	}
	return muxTree(o, in[:data], in[data:])
}

func muxTree[L any](o ops[L], data, sel []L) L {
	if len(sel) == 0 {
		return data[0]
	}
	last := len(sel) - 1
	half := len(data) / 2
	lo := muxTree(o, data[:half], sel[:last])
	hi := muxTree(o, data[half:], sel[:last])
	return o.Ite(sel[last], hi, lo)
}
