package abc

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// File names inside a work directory
const (
	ScriptFile  = "abc.script"
	InputFile   = "input.blif"
	OutputFile  = "output.blif"
	GenlibFile  = "stdcells.genlib"
	LutDefsFile = "lutdefs.txt"
)

// Target selects the default command sequence
type Target int

const (
	TargetDefault     Target = iota // Built-in gate library
	TargetLibrary                   // User liberty/genlib library
	TargetConstrained               // User library with timing constraints
	TargetLUT
	TargetSOP
)

var defaultCommands = map[Target][]string{
	TargetDefault:     {"strash", "ifraig", "scorr", "dc2", "dretime", "strash", "&get -n", "&dch -f", "&nf {D}", "&put"},
	TargetLibrary:     {"strash", "ifraig", "scorr", "dc2", "dretime", "strash", "&get -n", "&dch -f", "&nf {D}", "&put"},
	TargetConstrained: {"strash", "ifraig", "scorr", "dc2", "dretime", "strash", "&get -n", "&dch -f", "&nf {D}", "&put", "buffer", "upsize {D}", "dnsize {D}", "stime -p"},
	TargetLUT:         {"strash", "ifraig", "scorr", "dc2", "dretime", "strash", "dch -f", "if", "mfs2"},
	TargetSOP:         {"strash", "ifraig", "scorr", "dc2", "dretime", "strash", "dch -f", "cover {I} {P}"},
}

var fastCommands = map[Target][]string{
	TargetDefault:     {"strash", "dretime", "map"},
	TargetLibrary:     {"strash", "dretime", "map {D}"},
	TargetConstrained: {"strash", "dretime", "map {D}", "buffer", "upsize {D}", "dnsize {D}", "stime -p"},
	TargetLUT:         {"strash", "dretime", "if"},
	TargetSOP:         {"strash", "dretime", "cover {I} {P}"},
}

// DefaultCommands returns the built-in command sequence for a target, with
// placeholders {D}, {I}, {P} and {S} left in place
func DefaultCommands(target Target, fast bool) []string {
	table := defaultCommands
	if fast {
		table = fastCommands
	}
	return append([]string(nil), table[target]...)
}

// Script describes one optimizer invocation
type Script struct {
	Dir         string // Work directory holding the exchange files
	Liberty     []string
	Genlib      []string
	Constr      string
	LutCosts    []int
	SOP         bool
	Custom      string // Script file, or "+cmd,arg;cmd" inline commands
	Fast        bool
	DelayTarget string // Value for -D
	SopInputs   string // Value for -I
	SopProducts string // Value for -P
	LutShared   string // Value for -S, "1" when empty
	Dress       bool
}

// Target returns the command sequence family selected by the options
func (s *Script) Target() Target {
	switch {
	case len(s.LutCosts) > 0:
		return TargetLUT
	case len(s.Liberty) > 0 || len(s.Genlib) > 0:
		if s.Constr != "" {
			return TargetConstrained
		}
		return TargetLibrary
	case s.SOP:
		return TargetSOP
	}
	return TargetDefault
}

func (s *Script) hasLibrary() bool {
	return len(s.Liberty) > 0 || len(s.Genlib) > 0
}

// Commands returns the full command list, one command per entry
func (s *Script) Commands() []string {
	cmds := []string{"read_blif " + filepath.Join(s.Dir, InputFile)}

	switch {
	case s.hasLibrary():
		for _, lib := range s.Liberty {
			cmds = append(cmds, "read_lib -w "+lib)
		}
		for _, lib := range s.Genlib {
			cmds = append(cmds, "read_library "+lib)
		}
		if s.Constr != "" {
			cmds = append(cmds, "read_constr -v "+s.Constr)
		}
	case len(s.LutCosts) > 0:
		cmds = append(cmds, "read_lut "+filepath.Join(s.Dir, LutDefsFile))
	default:
		cmds = append(cmds, "read_library "+filepath.Join(s.Dir, GenlibFile))
	}

	switch {
	case strings.HasPrefix(s.Custom, "+"):
		inline := strings.NewReplacer(",", " ", "'", `'\''`).Replace(s.Custom[1:])
		for _, cmd := range strings.Split(inline, ";") {
			if cmd = strings.TrimSpace(cmd); cmd != "" {
				cmds = append(cmds, cmd)
			}
		}
	case s.Custom != "":
		cmds = append(cmds, "source "+s.Custom)
	default:
		cmds = append(cmds, DefaultCommands(s.Target(), s.Fast)...)
		if s.Target() == TargetLUT && !s.Fast && s.lutCostsEqual() {
			cmds = append(cmds, "lutpack {S}")
		}
	}

	if s.DelayTarget != "" {
		var retimed []string
		for _, cmd := range cmds {
			retimed = append(retimed, cmd)
			if cmd == "dretime" {
				retimed = append(retimed, "retime -o {D}")
			}
		}
		cmds = retimed
	}

	shared := s.LutShared
	if shared == "" {
		shared = "1"
	}
	replacer := strings.NewReplacer(
		"{D}", flagValue("-D", s.DelayTarget),
		"{I}", flagValue("-I", s.SopInputs),
		"{P}", flagValue("-P", s.SopProducts),
		"{S}", flagValue("-S", shared),
	)
	for i, cmd := range cmds {
		cmds[i] = strings.Join(strings.Fields(replacer.Replace(cmd)), " ")
	}

	if s.Dress {
		cmds = append(cmds, "dress")
	}
	return append(cmds, "write_blif "+filepath.Join(s.Dir, OutputFile))
}

// Render returns the script text. Every command is preceded by an echo so
// the optimizer log shows progress.
func (s *Script) Render() string {
	cmds := s.Commands()
	var b strings.Builder
	for i, cmd := range cmds {
		b.WriteString("echo + " + cmd + ";\n")
		b.WriteString(cmd)
		if i < len(cmds)-1 {
			b.WriteString(";")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFile writes the rendered script into the work directory
func (s *Script) WriteFile() (string, error) {
	path := filepath.Join(s.Dir, ScriptFile)
	if err := os.WriteFile(path, []byte(s.Render()), 0644); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	return path, nil
}

func (s *Script) lutCostsEqual() bool {
	for _, c := range s.LutCosts {
		if c != s.LutCosts[0] {
			return false
		}
	}
	return true
}

func flagValue(flag, value string) string {
	if value == "" {
		return ""
	}
	return flag + " " + value
}
