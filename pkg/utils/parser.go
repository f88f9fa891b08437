package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// Regular expressions for parsing BENCH format
var (
	inputRegex  = regexp.MustCompile(`^INPUT\((\w+)\)$`)
	outputRegex = regexp.MustCompile(`^OUTPUT\((\w+)\)$`)
	gateRegex   = regexp.MustCompile(`^(\w+)\s*=\s*(\w+)\((.+)\)$`)
)

// BenchClock is the clock port added to modules that contain DFFs
const BenchClock = "clk"

// ParseBenchFile reads a circuit description in BENCH format and returns a
// design holding one module named after the file
func ParseBenchFile(filename string) (*netlist.Design, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	name := strings.TrimSuffix(filepath.Base(filename), ".bench")
	return ParseBench(name, file)
}

// ParseBench reads BENCH text. Gates with more than two inputs become chains
// of two-input cells; DFF(d) becomes a positive-edge register clocked by an
// implicit clk input.
func ParseBench(name string, r io.Reader) (*netlist.Design, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	m := netlist.NewModule(name)
	d := netlist.NewDesign()
	if err := d.AddModule(m); err != nil {
		return nil, err
	}

	portID := 0
	wire := func(name string) *netlist.Wire {
		if w := m.Wire(name); w != nil {
			return w
		}
		w, _ := m.AddWire(name, 1)
		return w
	}

	// First pass: identify all lines (inputs, outputs, and internal wires)
	hasDFF := false
	for _, line := range lines {
		if matches := inputRegex.FindStringSubmatch(line); matches != nil {
			w := wire(matches[1])
			if w.PortID == 0 {
				portID++
				w.PortID = portID
			}
			w.PortInput = true
			continue
		}
		if matches := outputRegex.FindStringSubmatch(line); matches != nil {
			w := wire(matches[1])
			if w.PortID == 0 {
				portID++
				w.PortID = portID
			}
			w.PortOutput = true
			continue
		}
		matches := gateRegex.FindStringSubmatch(line)
		if matches == nil {
			return nil, errors.Errorf("invalid BENCH line: %s", line)
		}
		wire(matches[1])
		for _, in := range strings.Split(matches[3], ",") {
			wire(strings.TrimSpace(in))
		}
		if strings.ToUpper(matches[2]) == "DFF" {
			hasDFF = true
		}
	}

	var clk *netlist.Wire
	if hasDFF {
		clk = m.Wire(BenchClock)
		if clk == nil {
			clk = wire(BenchClock)
			portID++
			clk.PortID = portID
			clk.PortInput = true
		}
	}

	// Second pass: create cells and connect them
	for _, line := range lines {
		matches := gateRegex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		out := matches[1]
		gateType := strings.ToUpper(matches[2])
		var inputs []netlist.SigBit
		for _, in := range strings.Split(matches[3], ",") {
			inputs = append(inputs, m.Wire(strings.TrimSpace(in)).Bit(0))
		}
		if err := addBenchGate(m, out, gateType, inputs, clk); err != nil {
			return nil, errors.Wrapf(err, "gate %s", out)
		}
	}
	return d, nil
}

func addBenchGate(m *netlist.Module, out, gateType string, inputs []netlist.SigBit, clk *netlist.Wire) error {
	y := m.Wire(out).Bit(0)

	switch gateType {
	case "DFF":
		if len(inputs) != 1 {
			return errors.Errorf("DFF takes 1 input, got %d", len(inputs))
		}
		c, err := m.AddCell(out+"_reg", netlist.TypeDffP)
		if err != nil {
			return err
		}
		c.SetPort("C", netlist.SigSpec{clk.Bit(0)})
		c.SetPort("D", netlist.SigSpec{inputs[0]})
		c.SetPort("Q", netlist.SigSpec{y})
		return nil
	case "NOT", "INV", "BUF", "BUFF":
		if len(inputs) != 1 {
			return errors.Errorf("%s takes 1 input, got %d", gateType, len(inputs))
		}
		cellType := "$_NOT_"
		if strings.HasPrefix(gateType, "BUF") {
			cellType = "$_BUF_"
		}
		c, err := m.AddCell(out+"_g", cellType)
		if err != nil {
			return err
		}
		c.SetPort("A", netlist.SigSpec{inputs[0]})
		c.SetPort("Y", netlist.SigSpec{y})
		return nil
	}

	// chain is the associative part, last is the gate driving the output
	var chain, last string
	switch gateType {
	case "AND":
		chain, last = "$_AND_", "$_AND_"
	case "NAND":
		chain, last = "$_AND_", "$_NAND_"
	case "OR":
		chain, last = "$_OR_", "$_OR_"
	case "NOR":
		chain, last = "$_OR_", "$_NOR_"
	case "XOR":
		chain, last = "$_XOR_", "$_XOR_"
	case "XNOR":
		chain, last = "$_XOR_", "$_XNOR_"
	default:
		return errors.Errorf("unsupported gate type %s", gateType)
	}

	switch len(inputs) {
	case 0:
		return errors.Errorf("%s has no inputs", gateType)
	case 1:
		// Degenerate single-input gate
		cellType := "$_BUF_"
		if last != chain {
			cellType = "$_NOT_"
		}
		c, err := m.AddCell(out+"_g", cellType)
		if err != nil {
			return err
		}
		c.SetPort("A", netlist.SigSpec{inputs[0]})
		c.SetPort("Y", netlist.SigSpec{y})
		return nil
	}

	acc := inputs[0]
	for i := 1; i < len(inputs); i++ {
		cellType, target := chain, y
		name := fmt.Sprintf("%s_g%d", out, i)
		if i == len(inputs)-1 {
			cellType = last
			name = out + "_g"
		} else {
			w, err := m.AddWire(fmt.Sprintf("$bench$%s$%d", out, i), 1)
			if err != nil {
				return err
			}
			target = w.Bit(0)
		}
		c, err := m.AddCell(name, cellType)
		if err != nil {
			return err
		}
		c.SetPort("A", netlist.SigSpec{acc})
		c.SetPort("B", netlist.SigSpec{inputs[i]})
		c.SetPort("Y", netlist.SigSpec{target})
		acc = target
	}
	return nil
}
