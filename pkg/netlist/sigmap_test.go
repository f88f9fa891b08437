package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModule(t *testing.T) *Module {
	t.Helper()
	m := NewModule("top")
	require.NoError(t, NewDesign().AddModule(m))
	return m
}

func mustWire(t *testing.T, m *Module, name string, width int) *Wire {
	t.Helper()
	w, err := m.AddWire(name, width)
	require.NoError(t, err)
	return w
}

// TestSigMapPrefersPorts checks that a port bit represents its alias class
func TestSigMapPrefersPorts(t *testing.T) {
	m := newTestModule(t)
	internal := mustWire(t, m, "$auto$1", 1)
	named := mustWire(t, m, "n", 1)
	out := mustWire(t, m, "y", 1)
	out.PortID = 1
	out.PortOutput = true

	m.ConnectBit(internal.Bit(0), named.Bit(0))
	m.ConnectBit(out.Bit(0), internal.Bit(0))

	sm := NewSigMap(m)
	for _, b := range []SigBit{internal.Bit(0), named.Bit(0), out.Bit(0)} {
		assert.Equal(t, out.Bit(0), sm.Apply(b), "canonical bit of %s", b)
	}
}

// TestSigMapPrefersConstants checks that constants win over any wire
func TestSigMapPrefersConstants(t *testing.T) {
	m := newTestModule(t)
	a := mustWire(t, m, "a", 2)
	a.PortID = 1
	a.PortInput = true
	m.ConnectBit(a.Bit(1), Const(S1))

	sm := NewSigMap(m)
	assert.Equal(t, Const(S1), sm.Apply(a.Bit(1)))
	assert.Equal(t, a.Bit(0), sm.Apply(a.Bit(0)))
}

// TestSigMapPublicNames checks the tie-break between public and generated names
func TestSigMapPublicNames(t *testing.T) {
	m := newTestModule(t)
	gen := mustWire(t, m, "$abc$3$n", 1)
	zed := mustWire(t, m, "zed", 1)
	alpha := mustWire(t, m, "alpha", 1)

	m.ConnectBit(gen.Bit(0), zed.Bit(0))
	m.ConnectBit(zed.Bit(0), alpha.Bit(0))

	sm := NewSigMap(m)
	assert.Equal(t, alpha.Bit(0), sm.Apply(gen.Bit(0)))

	spec := sm.ApplySpec(SigSpec{gen.Bit(0), zed.Bit(0)})
	assert.True(t, spec.Equal(SigSpec{alpha.Bit(0), alpha.Bit(0)}))

	sm.Set(nil)
	assert.Equal(t, gen.Bit(0), sm.Apply(gen.Bit(0)))
}

// TestInitVals checks init attribute decoding through aliases
func TestInitVals(t *testing.T) {
	m := newTestModule(t)
	q := mustWire(t, m, "q", 3)
	q.SetAttribute(AttrInit, "x10")
	alias := mustWire(t, m, "$q", 1)
	m.ConnectBit(alias.Bit(0), q.Bit(1))

	sm := NewSigMap(m)
	iv := NewInitVals(sm, m)
	assert.Equal(t, S0, iv.Get(q.Bit(0)))
	assert.Equal(t, S1, iv.Get(alias.Bit(0)))
	assert.Equal(t, Sx, iv.Get(q.Bit(2)))

	var empty *InitVals
	assert.Equal(t, Sx, empty.Get(q.Bit(0)))
}

// TestConstHelpers covers the attribute value encoders
func TestConstHelpers(t *testing.T) {
	assert.True(t, BoolAttr("1"))
	assert.True(t, BoolAttr("00000000000000000000000000000001"))
	assert.False(t, BoolAttr("0"))
	assert.False(t, BoolAttr(""))
	assert.True(t, BoolAttr("true"))

	v, err := ParseConstInt(ConstInt(5))
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = ParseConstInt("42")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = ParseConstInt("abc")
	assert.Error(t, err)

	assert.Equal(t, "x01", ConstBits([]State{S1, S0, Sx}))
	assert.Equal(t, []State{S1, S0, Sx, Sx}, ParseConstBits("01", 4))
}

// TestRemoveCell checks that removed cells disappear from iteration
func TestRemoveCell(t *testing.T) {
	m := newTestModule(t)
	var cells []*Cell
	for _, name := range []string{"c1", "c2", "c3"} {
		c, err := m.AddCell(name, "$_NOT_")
		require.NoError(t, err)
		cells = append(cells, c)
	}
	_, err := m.AddCell("c1", "$_NOT_")
	assert.ErrorIs(t, err, ErrDuplicateName)

	m.RemoveCell(cells[1])
	got := m.Cells()
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].Name)
	assert.Equal(t, "c3", got[1].Name)
	assert.Nil(t, m.Cell("c2"))
}
