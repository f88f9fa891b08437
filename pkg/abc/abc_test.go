package abc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logicmap/pkg/blif"
	"github.com/fyerfyer/logicmap/pkg/utils"
)

func TestScriptDefault(t *testing.T) {
	s := &Script{Dir: "/w"}
	want := []string{
		"read_blif /w/input.blif",
		"read_library /w/stdcells.genlib",
		"strash", "ifraig", "scorr", "dc2", "dretime", "strash",
		"&get -n", "&dch -f", "&nf", "&put",
		"write_blif /w/output.blif",
	}
	if diff := cmp.Diff(want, s.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestScriptTargets(t *testing.T) {
	tests := []struct {
		name   string
		script Script
		target Target
		want   []string
	}{
		{
			name:   "constrained library",
			script: Script{Dir: "/w", Liberty: []string{"a.lib"}, Constr: "c.constr", DelayTarget: "500"},
			target: TargetConstrained,
			want: []string{
				"read_blif /w/input.blif",
				"read_lib -w a.lib",
				"read_constr -v c.constr",
				"strash", "ifraig", "scorr", "dc2", "dretime", "retime -o -D 500", "strash",
				"&get -n", "&dch -f", "&nf -D 500", "&put",
				"buffer", "upsize -D 500", "dnsize -D 500", "stime -p",
				"write_blif /w/output.blif",
			},
		},
		{
			name:   "lut with lutpack",
			script: Script{Dir: "/w", LutCosts: []int{1, 1, 1, 1}, LutShared: "2"},
			target: TargetLUT,
			want: []string{
				"read_blif /w/input.blif",
				"read_lut /w/lutdefs.txt",
				"strash", "ifraig", "scorr", "dc2", "dretime", "strash",
				"dch -f", "if", "mfs2", "lutpack -S 2",
				"write_blif /w/output.blif",
			},
		},
		{
			name:   "lut with unequal costs",
			script: Script{Dir: "/w", LutCosts: []int{1, 2}, Fast: true},
			target: TargetLUT,
			want: []string{
				"read_blif /w/input.blif",
				"read_lut /w/lutdefs.txt",
				"strash", "dretime", "if",
				"write_blif /w/output.blif",
			},
		},
		{
			name:   "sop",
			script: Script{Dir: "/w", SOP: true, SopInputs: "8", SopProducts: "32"},
			target: TargetSOP,
			want: []string{
				"read_blif /w/input.blif",
				"read_library /w/stdcells.genlib",
				"strash", "ifraig", "scorr", "dc2", "dretime", "strash",
				"dch -f", "cover -I 8 -P 32",
				"write_blif /w/output.blif",
			},
		},
		{
			name:   "genlib fast with dress",
			script: Script{Dir: "/w", Genlib: []string{"x.genlib"}, Fast: true, Dress: true},
			target: TargetLibrary,
			want: []string{
				"read_blif /w/input.blif",
				"read_library x.genlib",
				"strash", "dretime", "map",
				"dress",
				"write_blif /w/output.blif",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.target, tt.script.Target())
			if diff := cmp.Diff(tt.want, tt.script.Commands()); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScriptCustom(t *testing.T) {
	inline := &Script{Dir: "/w", Custom: "+strash;if,-K,4;print_stats"}
	assert.Equal(t, []string{
		"read_blif /w/input.blif",
		"read_library /w/stdcells.genlib",
		"strash", "if -K 4", "print_stats",
		"write_blif /w/output.blif",
	}, inline.Commands())

	file := &Script{Dir: "/w", Custom: "my.abc"}
	cmds := file.Commands()
	assert.Equal(t, "source my.abc", cmds[2])
	assert.Len(t, cmds, 4)
}

func TestScriptRender(t *testing.T) {
	s := &Script{Dir: t.TempDir(), Custom: "+strash"}
	path, err := s.WriteFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir, ScriptFile), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "echo + read_blif "+filepath.Join(s.Dir, InputFile)+";", lines[0])
	assert.Equal(t, "read_blif "+filepath.Join(s.Dir, InputFile)+";", lines[1])
	assert.Equal(t, "echo + strash;", lines[4])
	assert.Equal(t, "strash;", lines[5])
	assert.Equal(t, "write_blif "+filepath.Join(s.Dir, OutputFile), lines[7])
}

func newFilter(showTmp bool) (*OutputFilter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := utils.NewLogger(utils.InfoLevel)
	logger.SetOutput(&buf)
	ports := blif.Ports{
		Inputs:  map[int]string{0: "a"},
		Outputs: map[int]string{0: "y", 1: "q"},
	}
	return NewOutputFilter(logger, "/tmp/logicmap-abc-x1", showTmp, ports), &buf
}

func TestOutputFilterEscapes(t *testing.T) {
	f, buf := newFilter(false)
	_, err := f.Write([]byte("\033[1;32mgreen\033[0m text\n"))
	require.NoError(t, err)
	_, err = f.Write([]byte("10%\r50%\r100% done\n"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ABC: green text")
	assert.Contains(t, out, "ABC: 100% done")
	assert.NotContains(t, out, "50%")
}

func TestOutputFilterPartialWrites(t *testing.T) {
	f, buf := newFilter(false)
	f.Write([]byte("read_blif /tmp/logicmap-abc-x1/"))
	assert.Empty(t, buf.String())
	f.Write([]byte("input.blif\nrest"))
	assert.Contains(t, buf.String(), "ABC: read_blif <abc-temp-dir>/input.blif")
	assert.NotContains(t, buf.String(), "rest")
	f.Flush()
	assert.Contains(t, buf.String(), "ABC: rest")
}

func TestOutputFilterShowTmp(t *testing.T) {
	f, buf := newFilter(true)
	f.Write([]byte("read_blif /tmp/logicmap-abc-x1/input.blif\n"))
	assert.Contains(t, buf.String(), "/tmp/logicmap-abc-x1/input.blif")
}

func TestOutputFilterTimingPath(t *testing.T) {
	f, buf := newFilter(false)
	f.Write([]byte("Start-point = pi0.  End-point = po1.\n"))
	f.Write([]byte("Start-point = pi4.  End-point = po0.\n"))
	out := buf.String()
	assert.Contains(t, out, "Start-point = pi0 (a).  End-point = po1 (q).")
	assert.Contains(t, out, "Start-point = pi4 (???).  End-point = po0 (y).")
}

func TestExecFailure(t *testing.T) {
	e := NewExec(filepath.Join(t.TempDir(), "no-such-abc"))
	err := e.Run("abc.script", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrToolFailed)

	assert.Equal(t, DefaultExe, NewExec("").Exe)
	assert.Equal(t, "abc -s -f /w/abc.script", NewExec("abc").CommandLine("/w/abc.script"))
}
