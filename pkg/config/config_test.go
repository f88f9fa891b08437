package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logicmap/pkg/circuit"
)

func gateSet(types ...circuit.GateType) map[circuit.GateType]bool {
	m := make(map[circuit.GateType]bool)
	for _, t := range types {
		m[t] = true
	}
	return m
}

func TestParseGates(t *testing.T) {
	tests := []struct {
		spec string
		want map[circuit.GateType]bool
		cmos bool
	}{
		{"", gateSet(DefaultGates...), false},
		{"AND,OR", gateSet(circuit.AND, circuit.OR), false},
		{"simple", gateSet(circuit.AND, circuit.OR, circuit.XOR, circuit.MUX), false},
		{"cmos2", gateSet(circuit.NAND, circuit.NOR), true},
		{"cmos3,-AOI3", gateSet(circuit.NAND, circuit.NOR, circuit.OAI3), true},
		{"all,-cmos4", gateSet(circuit.AND, circuit.OR, circuit.XOR, circuit.XNOR, circuit.ANDNOT, circuit.ORNOT, circuit.MUX, circuit.NMUX), false},
		{"aig,-aig", gateSet(DefaultGates...), false},
	}
	for _, tt := range tests {
		got, cmos, err := ParseGates(tt.spec)
		require.NoError(t, err, tt.spec)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseGates(%q) mismatch (-want +got):\n%s", tt.spec, diff)
		}
		assert.Equal(t, tt.cmos, cmos, tt.spec)
	}

	_, _, err := ParseGates("AND,FOO")
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Contains(t, err.Error(), "unsupported gate type: FOO")
}

func TestParseLut(t *testing.T) {
	costs, err := ParseLut("4")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, costs)

	costs, err = ParseLut("2:5")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2, 4, 8}, costs)

	_, err = ParseLut("x")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestParseLuts(t *testing.T) {
	costs, err := ParseLuts("1,2,,4:7")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 7}, costs)

	costs, err = ParseLuts("3,6:5")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 5, 5, 5, 5}, costs)

	for _, bad := range []string{",1", "1:2:3", "a"} {
		_, err := ParseLuts(bad)
		assert.ErrorIs(t, err, ErrInvalidOptions, bad)
	}
}

func TestResolveValidation(t *testing.T) {
	o := Default()
	o.Lut = "4"
	o.Genlib = []string{"cells.genlib"}
	assert.ErrorIs(t, o.Resolve("/work"), ErrInvalidOptions)

	o = Default()
	o.Constr = "c.constr"
	assert.ErrorIs(t, o.Resolve("/work"), ErrInvalidOptions)

	o = Default()
	o.Gates = "NOPE"
	assert.ErrorIs(t, o.Resolve("/work"), ErrInvalidOptions)
}

func TestResolve(t *testing.T) {
	o := Default()
	o.DefaultLiberty = "lib/cells.lib"
	o.Constr = "/abs/c.constr"
	o.Script = "+strash;map"
	o.Clk = "!clk"
	o.Gates = "cmos2"
	require.NoError(t, o.Resolve("/work"))

	assert.Equal(t, []string{"/work/lib/cells.lib"}, o.Liberty)
	assert.Equal(t, "/abs/c.constr", o.Constr)
	assert.Equal(t, "+strash;map", o.Script)
	assert.True(t, o.DFF)
	assert.True(t, o.CMOS)
	assert.False(t, o.BuiltinLib())
	assert.Equal(t, "/tmp", o.TopDir)

	lib := o.Library()
	assert.True(t, lib.CMOS)
	assert.Equal(t, gateSet(circuit.NAND, circuit.NOR), lib.Gates)
}

func TestSources(t *testing.T) {
	o := Default()
	o.ApplyScratchpad(map[string]string{
		"abc.exe":   "abc-from-pad",
		"abc.D":     "100",
		"abc.clk":   "clk",
		"abc.sop":   "1",
		"abc.debug": "true",
		"abc.fast":  "maybe",
	})
	assert.Equal(t, "abc-from-pad", o.Exe)
	assert.Equal(t, "100", o.DelayTarget)
	assert.True(t, o.DFF)
	assert.True(t, o.SOP)
	assert.True(t, o.NoCleanup)
	assert.True(t, o.ShowTmp)
	assert.False(t, o.Fast)

	path := filepath.Join(t.TempDir(), "logicmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exe: abc-from-file\nlut: \"6\"\nverify: true\n"), 0644))
	require.NoError(t, o.LoadFile(path))
	assert.Equal(t, "abc-from-file", o.Exe)
	assert.Equal(t, "100", o.DelayTarget, "keys missing from the file are kept")
	assert.True(t, o.Verify)

	fs := pflag.NewFlagSet("map", pflag.ContinueOnError)
	BindFlags(fs, Default())
	require.NoError(t, fs.Parse([]string{"--exe", "abc-from-flag", "-D", "250", "--liberty", "a.lib", "--liberty", "b.lib"}))
	require.NoError(t, o.ApplyFlags(fs))
	assert.Equal(t, "abc-from-flag", o.Exe)
	assert.Equal(t, "250", o.DelayTarget)
	assert.Equal(t, []string{"a.lib", "b.lib"}, o.Liberty)
	assert.Equal(t, "6", o.Lut, "unset flags do not override")
	assert.True(t, o.Verify)
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("no-such-option: 1\n"), 0644))
	o := Default()
	assert.ErrorIs(t, o.LoadFile(path), ErrInvalidOptions)
}
