package blif

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/netlist"
)

func newBit(t *testing.T, m *netlist.Module, name string) netlist.SigBit {
	t.Helper()
	w, err := m.AddWire(name, 1)
	require.NoError(t, err)
	return w.Bit(0)
}

// sampleGraph: y = a & b, q <= y (init 1), z = q | 1
func sampleGraph(t *testing.T) *circuit.Graph {
	m := netlist.NewModule("top")
	g := circuit.NewGraph()
	a := g.MapSignal(newBit(t, m, "a"), netlist.Sx, circuit.None)
	b := g.MapSignal(newBit(t, m, "b"), netlist.Sx, circuit.None)
	y := g.MapSignal(newBit(t, m, "y"), netlist.Sx, circuit.AND, a, b)
	q := g.MapSignal(newBit(t, m, "q"), netlist.S1, circuit.FF, y)
	one := g.MapSignal(netlist.Const(netlist.S1), netlist.Sx, circuit.None)
	z := g.MapSignal(newBit(t, m, "z"), netlist.Sx, circuit.OR, q, one)
	for _, id := range []int{a, b, q, z} {
		g.Gates[id].IsPort = true
	}
	return g
}

func TestWriteNetwork(t *testing.T) {
	var buf bytes.Buffer
	info, err := WriteNetwork(&buf, sampleGraph(t))
	require.NoError(t, err)

	expected := `.model netlist
.inputs ys__n0 ys__n1
.outputs ys__n3 ys__n5
# ys__n0     a
# ys__n1     b
# ys__n2     y
# ys__n3     q
# ys__n4     1'1
# ys__n5     z
.names ys__n4
1
.names ys__n0 ys__n1 ys__n2
11 1
.latch ys__n2 ys__n3 1
.names ys__n3 ys__n4 ys__n5
-1 1
1- 1
.end
`
	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("network mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, info.Gates)
	assert.Equal(t, 6, info.Signals)
	assert.True(t, info.RecoverInit)
	assert.Equal(t, map[int]string{0: "a", 1: "b"}, info.Inputs)
	assert.Equal(t, map[int]string{0: "q", 1: "z"}, info.Outputs)
}

func TestWriteNetworkDummyInput(t *testing.T) {
	m := netlist.NewModule("top")
	g := circuit.NewGraph()
	zero := g.MapSignal(netlist.Const(netlist.S0), netlist.Sx, circuit.None)
	y := g.MapSignal(newBit(t, m, "y"), netlist.Sx, circuit.NOT, zero)
	g.Gates[y].IsPort = true

	var buf bytes.Buffer
	info, err := WriteNetwork(&buf, g)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), ".inputs dummy_input\n")
	assert.Contains(t, buf.String(), ".names ys__n0\n.names ys__n0 ys__n1\n0 1\n")
	assert.Empty(t, info.Inputs)
	assert.False(t, info.RecoverInit)
}

func TestWriteNetworkUnknownGate(t *testing.T) {
	m := netlist.NewModule("top")
	g := circuit.NewGraph()
	a := g.MapSignal(newBit(t, m, "a"), netlist.Sx, circuit.None)
	g.MapSignal(newBit(t, m, "y"), netlist.Sx, circuit.MUX4, a, a, a, a)

	_, err := WriteNetwork(&bytes.Buffer{}, g)
	assert.ErrorIs(t, err, ErrUnknownGate)
}

// TestKindRoundTrip writes one gate of every kind, reads it back as a LUT
// and compares the truth tables
func TestKindRoundTrip(t *testing.T) {
	for _, kind := range circuit.Kinds() {
		if !kind.Type.IsLogic() {
			continue
		}
		t.Run(kind.Name, func(t *testing.T) {
			m := netlist.NewModule("top")
			g := circuit.NewGraph()
			ins := make([]int, kind.Arity())
			for i, pin := range kind.Pins {
				ins[i] = g.MapSignal(newBit(t, m, pin), netlist.Sx, circuit.None)
				g.Gates[ins[i]].IsPort = true
			}
			out := g.MapSignal(newBit(t, m, "Y"), netlist.Sx, kind.Type, ins...)
			g.Gates[out].IsPort = true

			var buf bytes.Buffer
			_, err := WriteNetwork(&buf, g)
			require.NoError(t, err)

			models, err := Read(&buf, Options{})
			require.NoError(t, err)
			model := FindModel(models, "netlist")
			require.NotNil(t, model)
			require.Len(t, model.Cells, 1)

			lut := model.Cells[0]
			assert.Equal(t, netlist.TypeLut, lut.Type)
			assert.Equal(t, NodeName(out), lut.Net("Y"))
			nets, _ := lut.Port("A")
			require.Len(t, nets, kind.Arity())

			n := kind.Arity()
			bits := netlist.ParseConstBits(lut.Params["LUT"], 1<<n)
			for idx := 0; idx < 1<<n; idx++ {
				in := make([]bool, n)
				for i := range in {
					in[i] = idx>>i&1 == 1
				}
				want := kind.Eval(in)
				got := bits[idx] == netlist.S1
				if want != got {
					t.Errorf("%s%v: got %v, want %v", kind.Name, in, got, want)
				}
			}
		})
	}
}

const mappedOutput = `# optimizer output
.model netlist
.inputs ys__n0 ys__n1 \
  ys__n2
.outputs ys__n5 ys__n7
.gate NAND A=ys__n0 B=ys__n1 Y=new_n4_
.cname g4
.attr src "top.v:3"
.gate MUX A=new_n4_ B=ys__n2 S=ys__n1 Y=ys__n5
.latch ys__n5 ys__n7 0
.names ys__n6
1
.names ys__n2 ys__n8
1 1
.end
`

func TestReadMappedOutput(t *testing.T) {
	models, err := Read(strings.NewReader(mappedOutput), Options{LatchType: "DFF"})
	require.NoError(t, err)
	require.Len(t, models, 1)
	m := models[0]

	assert.Equal(t, "netlist", m.Name)
	assert.Equal(t, []string{"ys__n0", "ys__n1", "ys__n2"}, m.Inputs)
	assert.Equal(t, []string{"ys__n5", "ys__n7"}, m.Outputs)
	assert.Equal(t, []string{"ys__n0", "ys__n1", "ys__n2", "ys__n5", "ys__n7", "new_n4_", "ys__n6", "ys__n8"}, m.Nets)

	require.Len(t, m.Cells, 4)
	nand := m.Cell("g4")
	require.NotNil(t, nand)
	assert.Equal(t, "NAND", nand.Type)
	assert.Equal(t, "new_n4_", nand.Net("Y"))
	assert.Equal(t, "top.v:3", nand.Attrs["src"])

	latch := m.Cells[2]
	assert.Equal(t, "DFF", latch.Type)
	assert.Equal(t, "ys__n5", latch.Net("D"))
	assert.Equal(t, "ys__n7", latch.Net("Q"))
	assert.Equal(t, map[string]netlist.State{"ys__n7": netlist.S0}, m.Init)

	assert.Equal(t, []Assign{{Lhs: "ys__n6", Value: netlist.S1}}, m.Assigns)

	buf := m.Cells[3]
	assert.Equal(t, netlist.TypeLut, buf.Type)
	assert.Equal(t, "10", buf.Params["LUT"])
	assert.Equal(t, netlist.ConstInt(1), buf.Params["WIDTH"])
}

func TestReadCovers(t *testing.T) {
	src := `.model netlist
.inputs a b c
.outputs y z w
.names a b c y
1-0 1
-11 1
.names a b z
11 0
.names w
.end
`
	models, err := Read(strings.NewReader(src), Options{})
	require.NoError(t, err)
	m := models[0]
	require.Len(t, m.Cells, 2)

	// MUX: index bit i is input i
	assert.Equal(t, "11001010", m.Cells[0].Params["LUT"])
	// Off-set cover: NAND
	assert.Equal(t, "0111", m.Cells[1].Params["LUT"])
	assert.Equal(t, []Assign{{Lhs: "w", Value: netlist.S0}}, m.Assigns)
}

func TestReadSOP(t *testing.T) {
	src := `.model netlist
.inputs a b
.outputs y
.names a b y
1- 1
-0 1
.end
`
	models, err := Read(strings.NewReader(src), Options{SOP: true})
	require.NoError(t, err)
	c := models[0].Cells[0]
	assert.Equal(t, netlist.TypeSop, c.Type)
	assert.Equal(t, netlist.ConstInt(2), c.Params["WIDTH"])
	assert.Equal(t, netlist.ConstInt(2), c.Params["DEPTH"])
	// Two bits per input and term, MSB first: term 1 requires b=0, term 0 a=1
	assert.Equal(t, "01000010", c.Params["TABLE"])
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"row outside names", ".model m\n11 1\n.end\n"},
		{"directive outside model", ".inputs a\n"},
		{"wrong row width", ".model m\n.names a b y\n1 1\n.end\n"},
		{"mixed cover", ".model m\n.names a y\n1 1\n0 0\n.end\n"},
		{"bad pin", ".model m\n.gate AND A\n.end\n"},
		{"clocked latch", ".model m\n.latch d q re clk 0\n.end\n"},
		{"bad init", ".model m\n.latch d q 7\n.end\n"},
		{"unknown directive", ".model m\n.frobnicate\n.end\n"},
		{"sop off-set", ".model m\n.names a y\n1 0\n.end\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{SOP: tt.name == "sop off-set"}
			_, err := Read(strings.NewReader(tt.src), opts)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestWriteLibrary(t *testing.T) {
	var buf bytes.Buffer
	lib := Library{
		Gates: map[circuit.GateType]bool{circuit.AND: true, circuit.NMUX: true, circuit.MUX: true},
		Mux4:  true,
	}
	require.NoError(t, WriteLibrary(&buf, lib))

	expected := []string{
		"GATE ZERO    1 Y=CONST0;",
		"GATE ONE     1 Y=CONST1;",
		"GATE BUF    1 Y=A;                  PIN * NONINV  1 999 1 0 1 0",
		"GATE NOT    2 Y=!A;                 PIN * INV     1 999 1 0 1 0",
		"GATE AND    4 Y=A*B;                PIN * NONINV  1 999 1 0 1 0",
		"GATE MUX    4 Y=(A*B)+(S*B)+(!S*A); PIN * UNKNOWN 1 999 1 0 1 0",
		"GATE NMUX   4 Y=!((A*B)+(S*B)+(!S*A)); PIN * UNKNOWN 1 999 1 0 1 0",
		"GATE MUX4   8 Y=(!S*!T*A)+(S*!T*B)+(!S*T*C)+(S*T*D); PIN * UNKNOWN 1 999 1 0 1 0",
	}
	if diff := cmp.Diff(expected, strings.Split(strings.TrimSpace(buf.String()), "\n")); diff != "" {
		t.Errorf("library mismatch (-want +got):\n%s", diff)
	}
}

func TestGateCost(t *testing.T) {
	assert.Equal(t, 5, GateCost(circuit.XOR, false))
	assert.Equal(t, 12, GateCost(circuit.XOR, true))
	assert.Equal(t, 8, GateCost(circuit.AOI4, true))
	assert.Equal(t, 16, GateCost(circuit.MUX8, false))
	assert.Equal(t, 96, GateCost(circuit.MUX16, true))
}

func TestWriteLutDefs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLutDefs(&buf, []int{1, 2, 4}))
	assert.Equal(t, "1 1.00 1.00\n2 2.00 1.00\n3 4.00 1.00\n", buf.String())
}
