package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// TestParseBenchFile tests parsing a BENCH format circuit description
func TestParseBenchFile(t *testing.T) {
	// Create a temporary BENCH file
	tempDir := t.TempDir()
	benchFile := filepath.Join(tempDir, "test_circuit.bench")

	benchContent := `# Simple test circuit
INPUT(a)
INPUT(b)
OUTPUT(f)
d = AND(a, b)
e = NOT(b)
f = OR(d, e)
`
	err := os.WriteFile(benchFile, []byte(benchContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test BENCH file: %v", err)
	}

	d, err := ParseBenchFile(benchFile)
	if err != nil {
		t.Fatalf("Failed to parse BENCH file: %v", err)
	}

	m := d.Module("test_circuit")
	if m == nil {
		t.Fatalf("Expected module 'test_circuit'")
	}
	if len(m.Cells()) != 3 {
		t.Errorf("Expected 3 cells, got %d", len(m.Cells()))
	}
	if len(m.Wires()) != 5 {
		t.Errorf("Expected 5 wires, got %d", len(m.Wires()))
	}

	ports := m.Ports()
	if len(ports) != 3 {
		t.Fatalf("Expected 3 ports, got %d", len(ports))
	}
	if ports[0].Name != "a" || !ports[0].PortInput {
		t.Errorf("Expected first port to be input a, got %s", ports[0].Name)
	}
	if ports[2].Name != "f" || !ports[2].PortOutput {
		t.Errorf("Expected last port to be output f, got %s", ports[2].Name)
	}

	g := m.Cell("e_g")
	if g == nil || g.Type != "$_NOT_" {
		t.Fatalf("Expected NOT cell e_g, got %v", g)
	}
	a, _ := g.Port("A")
	if a[0].Wire.Name != "b" {
		t.Errorf("Expected e_g input b, got %s", a[0])
	}
}

// TestParseBenchChains checks wide gates and registers
func TestParseBenchChains(t *testing.T) {
	src := `INPUT(a)
INPUT(b)
INPUT(c)
OUTPUT(q)
n = NAND(a, b, c)
q = DFF(n)
`
	d, err := ParseBench("seq", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	m := d.Module("seq")

	first := m.Cell("n_g1")
	last := m.Cell("n_g")
	if first == nil || first.Type != "$_AND_" {
		t.Fatalf("Expected AND chain cell n_g1, got %v", first)
	}
	if last == nil || last.Type != "$_NAND_" {
		t.Fatalf("Expected final NAND cell n_g, got %v", last)
	}
	y, _ := first.Port("Y")
	b, _ := last.Port("A")
	if !y.Equal(b) {
		t.Errorf("Chain is not connected: %s vs %s", y, b)
	}

	reg := m.Cell("q_reg")
	if reg == nil || reg.Type != netlist.TypeDffP {
		t.Fatalf("Expected register q_reg, got %v", reg)
	}
	clk := m.Wire(BenchClock)
	if clk == nil || !clk.PortInput {
		t.Fatalf("Expected implicit clock input")
	}
	cp, _ := reg.Port("C")
	if cp[0].Wire != clk {
		t.Errorf("Register not clocked by %s", BenchClock)
	}
}

// TestParseBenchErrors checks that unsupported lines are reported
func TestParseBenchErrors(t *testing.T) {
	if _, err := ParseBench("bad", strings.NewReader("x = FOO(a, b)\n")); err == nil {
		t.Errorf("Expected error for unsupported gate")
	}
	if _, err := ParseBench("bad", strings.NewReader("this is not bench\n")); err == nil {
		t.Errorf("Expected error for malformed line")
	}
}

// TestLogger checks level filtering, prefix and indentation
func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel)
	logger.SetOutput(&buf)
	logger.SetPrefix("map")

	logger.Debug("hidden")
	logger.Indent()
	logger.Info("visible %d", 42)
	logger.Outdent()
	logger.ABC("line")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug message should be filtered: %s", out)
	}
	if !strings.Contains(out, "map:   visible 42") {
		t.Errorf("Expected prefixed, indented message, got: %s", out)
	}
	if !strings.Contains(out, "ABC: line") {
		t.Errorf("Expected optimizer line, got: %s", out)
	}

	buf.Reset()
	logger.SetLevel(DebugLevel)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("Expected debug message after SetLevel, got: %s", buf.String())
	}
}
