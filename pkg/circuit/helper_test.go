package circuit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logicmap/pkg/netlist"
	"github.com/fyerfyer/logicmap/pkg/utils"
)

// testModule wraps a module with shorthands for building small circuits
type testModule struct {
	t *testing.T
	d *netlist.Design
	m *netlist.Module
}

func newTestModule(t *testing.T) *testModule {
	t.Helper()
	d := netlist.NewDesign()
	m := netlist.NewModule("top")
	require.NoError(t, d.AddModule(m))
	return &testModule{t: t, d: d, m: m}
}

func (tm *testModule) input(name string) netlist.SigBit {
	w := tm.wire(name)
	w.PortID = len(tm.m.Ports()) + 1
	w.PortInput = true
	return w.Bit(0)
}

func (tm *testModule) output(name string) netlist.SigBit {
	w := tm.wire(name)
	w.PortID = len(tm.m.Ports()) + 1
	w.PortOutput = true
	return w.Bit(0)
}

func (tm *testModule) wire(name string) *netlist.Wire {
	if w := tm.m.Wire(name); w != nil {
		return w
	}
	w, err := tm.m.AddWire(name, 1)
	require.NoError(tm.t, err)
	return w
}

func (tm *testModule) bit(name string) netlist.SigBit {
	return tm.wire(name).Bit(0)
}

func (tm *testModule) cell(name, cellType string, ports map[string]netlist.SigBit) *netlist.Cell {
	c, err := tm.m.AddCell(name, cellType)
	require.NoError(tm.t, err)
	for _, p := range []string{"A", "B", "C", "D", "E", "S", "Q", "Y"} {
		if b, ok := ports[p]; ok {
			c.SetPort(p, netlist.SigSpec{b})
		}
	}
	return c
}

func quietLogger() (*utils.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := utils.NewLogger(utils.InfoLevel)
	logger.SetOutput(&buf)
	return logger, &buf
}

// run extracts, marks and breaks loops for the given domain
func (tm *testModule) run(domain DomainKey) (*Session, int) {
	tm.t.Helper()
	logger, _ := quietLogger()
	s := NewSession(tm.d, tm.m, domain, logger)
	_, err := NewBuilder(s).Extract(tm.m.Cells())
	require.NoError(tm.t, err)
	NewMarker(s).Mark()
	breaks, err := NewCycleBreaker(s).Break()
	require.NoError(tm.t, err)
	return s, breaks
}

func posedge(clk netlist.SigBit) DomainKey {
	return DomainKey{ClkPolarity: true, Clk: netlist.SigSpec{clk}, EnPolarity: true}
}
