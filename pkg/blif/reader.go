package blif

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// ErrSyntax is returned for malformed BLIF input
var ErrSyntax = errors.New("BLIF syntax error")

// Port is a named cell port and its nets, LSB first
type Port struct {
	Name string
	Nets []string
}

// Cell is one instance read from a model
type Cell struct {
	Name   string
	Type   string
	Ports  []Port
	Params map[string]string
	Attrs  map[string]string
}

// Port returns the nets connected to a port
func (c *Cell) Port(name string) ([]string, bool) {
	for _, p := range c.Ports {
		if p.Name == name {
			return p.Nets, true
		}
	}
	return nil, false
}

// Net returns the single net connected to a port, or "" when the port is
// missing or wider than one bit
func (c *Cell) Net(name string) string {
	nets, ok := c.Port(name)
	if !ok || len(nets) != 1 {
		return ""
	}
	return nets[0]
}

// Assign drives Lhs from net Rhs, or from Value when Rhs is empty
type Assign struct {
	Lhs   string
	Rhs   string
	Value netlist.State
}

// Model is one .model block
type Model struct {
	Name    string
	Inputs  []string
	Outputs []string
	Nets    []string // Every net, in order of first appearance
	Cells   []*Cell
	Assigns []Assign
	Init    map[string]netlist.State // Latch initial values by output net

	seen map[string]bool
}

func newModel(name string) *Model {
	return &Model{
		Name: name,
		Init: make(map[string]netlist.State),
		seen: make(map[string]bool),
	}
}

func (m *Model) net(name string) string {
	if !m.seen[name] {
		m.seen[name] = true
		m.Nets = append(m.Nets, name)
	}
	return name
}

// Cell returns the cell with the given name
func (m *Model) Cell(name string) *Cell {
	for _, c := range m.Cells {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Options control how models are built
type Options struct {
	LatchType string // Cell type for unclocked .latch lines
	SOP       bool   // Build $sop cells instead of $lut for .names
}

// ReadFile parses a BLIF file
func ReadFile(path string, opts Options) ([]*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	models, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return models, nil
}

// FindModel returns the model with the given name, or nil
func FindModel(models []*Model, name string) *Model {
	for _, m := range models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

type reader struct {
	opts   Options
	models []*Model
	model  *Model
	last   *Cell    // Target of .attr, .param and .cname
	names  []string // Pending .names signals
	rows   [][2]string
	lineno int
	autoid int
}

// Read parses every model in r
func Read(r io.Reader, opts Options) ([]*Model, error) {
	if opts.LatchType == "" {
		opts.LatchType = "DFF"
	}
	rd := &reader{opts: opts}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var pending string
	for scanner.Scan() {
		rd.lineno++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimRight(line, " \t\r")
		if strings.HasSuffix(line, "\\") {
			pending += line[:len(line)-1] + " "
			continue
		}
		line = pending + line
		pending = ""

		if err := rd.line(strings.Fields(line)); err != nil {
			return nil, errors.Wrapf(err, "line %d", rd.lineno)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading BLIF")
	}
	if err := rd.line(strings.Fields(pending)); err != nil {
		return nil, errors.Wrapf(err, "line %d", rd.lineno)
	}
	if rd.model != nil {
		if err := rd.endModel(); err != nil {
			return nil, err
		}
	}
	return rd.models, nil
}

func (rd *reader) line(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	if !strings.HasPrefix(tokens[0], ".") {
		if rd.names == nil {
			return errors.Wrapf(ErrSyntax, "unexpected %q", tokens[0])
		}
		switch len(tokens) {
		case 1:
			rd.rows = append(rd.rows, [2]string{"", tokens[0]})
		case 2:
			rd.rows = append(rd.rows, [2]string{tokens[0], tokens[1]})
		default:
			return errors.Wrapf(ErrSyntax, "bad cover row %q", strings.Join(tokens, " "))
		}
		return nil
	}

	if err := rd.flushNames(); err != nil {
		return err
	}

	cmd, args := tokens[0], tokens[1:]
	if cmd != ".model" && rd.model == nil {
		return errors.Wrapf(ErrSyntax, "%s outside of .model", cmd)
	}

	switch cmd {
	case ".model":
		if rd.model != nil {
			if err := rd.endModel(); err != nil {
				return err
			}
		}
		name := "netlist"
		if len(args) > 0 {
			name = args[0]
		}
		rd.model = newModel(name)
	case ".end":
		return rd.endModel()
	case ".inputs":
		for _, a := range args {
			rd.model.Inputs = append(rd.model.Inputs, rd.model.net(a))
		}
	case ".outputs":
		for _, a := range args {
			rd.model.Outputs = append(rd.model.Outputs, rd.model.net(a))
		}
	case ".names":
		if len(args) == 0 {
			return errors.Wrap(ErrSyntax, ".names without signals")
		}
		for _, a := range args {
			rd.model.net(a)
		}
		rd.names = args
		rd.rows = nil
	case ".latch":
		return rd.latch(args)
	case ".gate", ".subckt":
		return rd.gate(args)
	case ".attr", ".param":
		if rd.last == nil || len(args) < 2 {
			return errors.Wrapf(ErrSyntax, "%s without a cell", cmd)
		}
		value := strings.Trim(strings.Join(args[1:], " "), "\"")
		if cmd == ".attr" {
			rd.last.Attrs[args[0]] = value
		} else {
			rd.last.Params[args[0]] = value
		}
	case ".cname":
		if rd.last == nil || len(args) != 1 {
			return errors.Wrap(ErrSyntax, ".cname without a cell")
		}
		rd.last.Name = args[0]
	default:
		if strings.HasPrefix(cmd, ".default_") {
			return nil
		}
		return errors.Wrapf(ErrSyntax, "unsupported directive %s", cmd)
	}
	return nil
}

func (rd *reader) endModel() error {
	if err := rd.flushNames(); err != nil {
		return err
	}
	if rd.model != nil {
		rd.models = append(rd.models, rd.model)
	}
	rd.model = nil
	rd.last = nil
	return nil
}

func (rd *reader) newCell(cellType string) *Cell {
	rd.autoid++
	c := &Cell{
		Name:   fmt.Sprintf("$blif$%d", rd.autoid),
		Type:   cellType,
		Params: make(map[string]string),
		Attrs:  make(map[string]string),
	}
	rd.model.Cells = append(rd.model.Cells, c)
	rd.last = c
	return c
}

func (rd *reader) latch(args []string) error {
	if len(args) < 2 {
		return errors.Wrap(ErrSyntax, ".latch needs input and output")
	}
	if len(args) > 3 {
		return errors.Wrapf(ErrSyntax, "clocked latch %s is not supported", args[1])
	}

	in, out := rd.model.net(args[0]), rd.model.net(args[1])
	c := rd.newCell(rd.opts.LatchType)
	c.Ports = []Port{{Name: "D", Nets: []string{in}}, {Name: "Q", Nets: []string{out}}}

	if len(args) == 3 {
		switch args[2] {
		case "0":
			rd.model.Init[out] = netlist.S0
		case "1":
			rd.model.Init[out] = netlist.S1
		case "2", "3":
		default:
			return errors.Wrapf(ErrSyntax, "bad latch init value %q", args[2])
		}
	}
	return nil
}

func (rd *reader) gate(args []string) error {
	if len(args) < 1 {
		return errors.Wrap(ErrSyntax, ".gate without a type")
	}
	c := rd.newCell(args[0])
	for _, a := range args[1:] {
		eq := strings.IndexByte(a, '=')
		if eq <= 0 || eq == len(a)-1 {
			return errors.Wrapf(ErrSyntax, "bad pin assignment %q", a)
		}
		c.Ports = append(c.Ports, Port{Name: a[:eq], Nets: []string{rd.model.net(a[eq+1:])}})
	}
	return nil
}

// flushNames turns the pending .names block into a cell or an assignment
func (rd *reader) flushNames() error {
	if rd.names == nil {
		return nil
	}
	names, rows := rd.names, rd.rows
	rd.names, rd.rows = nil, nil

	inputs, out := names[:len(names)-1], names[len(names)-1]

	onset := true
	for i, row := range rows {
		if len(row[0]) != len(inputs) {
			return errors.Wrapf(ErrSyntax, "cover row %q for %s has wrong width", row[0], out)
		}
		if row[1] != "0" && row[1] != "1" {
			return errors.Wrapf(ErrSyntax, "bad cover output %q for %s", row[1], out)
		}
		if i == 0 {
			onset = row[1] == "1"
		} else if onset != (row[1] == "1") {
			return errors.Wrapf(ErrSyntax, "mixed on-set and off-set cover for %s", out)
		}
	}

	if len(inputs) == 0 {
		value := netlist.S0
		if len(rows) > 0 && onset {
			value = netlist.S1
		}
		rd.model.Assigns = append(rd.model.Assigns, Assign{Lhs: out, Value: value})
		rd.last = nil
		return nil
	}

	if rd.opts.SOP {
		if !onset {
			return errors.Wrapf(ErrSyntax, "off-set cover for %s in SOP mode", out)
		}
		c := rd.newCell(netlist.TypeSop)
		c.Ports = []Port{{Name: "A", Nets: inputs}, {Name: "Y", Nets: []string{out}}}
		c.Params["WIDTH"] = netlist.ConstInt(len(inputs))
		c.Params["DEPTH"] = netlist.ConstInt(len(rows))
		c.Params["TABLE"] = sopTable(rows, len(inputs))
		return nil
	}

	c := rd.newCell(netlist.TypeLut)
	c.Ports = []Port{{Name: "A", Nets: inputs}, {Name: "Y", Nets: []string{out}}}
	c.Params["WIDTH"] = netlist.ConstInt(len(inputs))
	c.Params["LUT"] = lutTable(rows, len(inputs), onset)
	return nil
}

// lutTable computes the truth table of a cover. Input i of the cover is
// bit i of the table index.
func lutTable(rows [][2]string, width int, onset bool) string {
	bits := make([]netlist.State, 1<<width)
	for idx := range bits {
		hit := false
		for _, row := range rows {
			if coverMatch(row[0], idx) {
				hit = true
				break
			}
		}
		if hit == onset {
			bits[idx] = netlist.S1
		}
	}
	return netlist.ConstBits(bits)
}

func coverMatch(plane string, idx int) bool {
	for i := 0; i < len(plane); i++ {
		v := idx>>i&1 == 1
		switch plane[i] {
		case '0':
			if v {
				return false
			}
		case '1':
			if !v {
				return false
			}
		}
	}
	return true
}

// sopTable encodes cover rows two bits per input: the low bit requires the
// input to be 0, the high bit requires it to be 1
func sopTable(rows [][2]string, width int) string {
	bits := make([]netlist.State, 0, 2*width*len(rows))
	for _, row := range rows {
		for i := 0; i < width; i++ {
			switch row[0][i] {
			case '0':
				bits = append(bits, netlist.S1, netlist.S0)
			case '1':
				bits = append(bits, netlist.S0, netlist.S1)
			default:
				bits = append(bits, netlist.S0, netlist.S0)
			}
		}
	}
	return netlist.ConstBits(bits)
}
