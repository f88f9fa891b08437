package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollback(t *testing.T) {
	m := newTestModule(t)
	a := mustWire(t, m, "a", 1)
	y := mustWire(t, m, "y", 1)
	g1, err := m.AddCell("g1", "$_NOT_")
	require.NoError(t, err)
	g2, err := m.AddCell("g2", "$_BUF_")
	require.NoError(t, err)
	m.ConnectBit(y.Bit(0), a.Bit(0))

	cp := m.Checkpoint()

	m.RemoveCell(g1)
	w, err := m.AddWire("$abc$1$y", 1)
	require.NoError(t, err)
	_, err = m.AddCell("$abc$1$lut", TypeLut)
	require.NoError(t, err)
	m.ConnectBit(y.Bit(0), w.Bit(0))

	m.Rollback(cp)
	assert.Equal(t, []*Cell{g1, g2}, m.Cells())
	assert.Equal(t, []*Wire{a, y}, m.Wires())
	assert.Nil(t, m.Wire("$abc$1$y"))
	assert.Nil(t, m.Cell("$abc$1$lut"))
	assert.Len(t, m.Connections(), 1)

	// Names freed by the rollback can be taken again
	_, err = m.AddWire("$abc$1$y", 1)
	assert.NoError(t, err)
	assert.NoError(t, m.RestoreCell(g1))
}
