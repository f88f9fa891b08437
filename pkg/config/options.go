package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/fyerfyer/logicmap/pkg/blif"
	"github.com/fyerfyer/logicmap/pkg/circuit"
)

// ErrInvalidOptions is returned for option combinations that cannot run
var ErrInvalidOptions = errors.New("invalid options")

// DefaultTopDir is the parent of the per-run work area
const DefaultTopDir = "/tmp"

// Options holds every setting of a mapping run. Values come from the design
// scratchpad, then a YAML file, then command-line flags.
type Options struct {
	Exe             string   `yaml:"exe"`
	Script          string   `yaml:"script"`
	Liberty         []string `yaml:"liberty"`
	DefaultLiberty  string   `yaml:"default-liberty"`
	Genlib          []string `yaml:"genlib"`
	Constr          string   `yaml:"constr"`
	DelayTarget     string   `yaml:"delay-target"`
	SopInputs       string   `yaml:"sop-inputs"`
	SopProducts     string   `yaml:"sop-products"`
	LutShared       string   `yaml:"lut-shared"`
	Lut             string   `yaml:"lut"`
	Luts            string   `yaml:"luts"`
	SOP             bool     `yaml:"sop"`
	Mux4            bool     `yaml:"mux4"`
	Mux8            bool     `yaml:"mux8"`
	Mux16           bool     `yaml:"mux16"`
	Dress           bool     `yaml:"dress"`
	Gates           string   `yaml:"gates"`
	Fast            bool     `yaml:"fast"`
	DFF             bool     `yaml:"dff"`
	Clk             string   `yaml:"clk"`
	KeepFF          bool     `yaml:"keepff"`
	NoCleanup       bool     `yaml:"nocleanup"`
	ShowTmp         bool     `yaml:"showtmp"`
	MarkGroups      bool     `yaml:"markgroups"`
	TopDir          string   `yaml:"abc-topdir"`
	Dir             string   `yaml:"abc-dir"`
	Verify          bool     `yaml:"verify"`
	ExtractOnly     bool     `yaml:"extract-only"`
	ArchiveDir      string   `yaml:"archive-dir"`
	MetricsFile     string   `yaml:"metrics-file"`
	Debug           bool     `yaml:"debug"`
	ContinueOnError bool     `yaml:"continue-on-error"`

	// Derived by Resolve
	LutCosts     []int                     `yaml:"-"`
	EnabledGates map[circuit.GateType]bool `yaml:"-"`
	CMOS         bool                      `yaml:"-"`
}

// Default returns the options of a plain run
func Default() Options {
	return Options{TopDir: DefaultTopDir}
}

// LoadFile merges a YAML file into o. Keys missing from the file keep their
// current value.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, o); err != nil {
		return errors.Wrapf(ErrInvalidOptions, "config %s: %v", path, err)
	}
	return nil
}

// ApplyScratchpad reads abc.* keys of a design scratchpad
func (o *Options) ApplyScratchpad(pad map[string]string) {
	str := func(key string, dst *string) {
		if v, ok := pad[key]; ok {
			*dst = v
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := pad[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("abc.exe", &o.Exe)
	str("abc.script", &o.Script)
	str("abc.liberty", &o.DefaultLiberty)
	str("abc.constr", &o.Constr)
	str("abc.D", &o.DelayTarget)
	str("abc.I", &o.SopInputs)
	str("abc.P", &o.SopProducts)
	str("abc.S", &o.LutShared)
	str("abc.lut", &o.Lut)
	str("abc.luts", &o.Luts)
	flag("abc.sop", &o.SOP)
	flag("abc.mux4", &o.Mux4)
	flag("abc.mux8", &o.Mux8)
	flag("abc.mux16", &o.Mux16)
	flag("abc.dress", &o.Dress)
	str("abc.g", &o.Gates)
	flag("abc.fast", &o.Fast)
	flag("abc.dff", &o.DFF)
	if v, ok := pad["abc.clk"]; ok {
		o.Clk = v
		o.DFF = true
	}
	flag("abc.keepff", &o.KeepFF)
	flag("abc.nocleanup", &o.NoCleanup)
	flag("abc.showtmp", &o.ShowTmp)
	flag("abc.markgroups", &o.MarkGroups)

	var debug bool
	flag("abc.debug", &debug)
	if debug {
		o.NoCleanup = true
		o.ShowTmp = true
	}
	str("abc.dir", &o.Dir)
}

// Resolve validates the options, derives LUT costs and the gate set, and
// makes file names absolute relative to cwd
func (o *Options) Resolve(cwd string) error {
	if o.Clk != "" {
		o.DFF = true
	}
	if len(o.Liberty) == 0 && len(o.Genlib) == 0 && o.DefaultLiberty != "" {
		o.Liberty = []string{o.DefaultLiberty}
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cwd, p)
	}
	if !strings.HasPrefix(o.Script, "+") {
		o.Script = abs(o.Script)
	}
	for i := range o.Liberty {
		o.Liberty[i] = abs(o.Liberty[i])
	}
	for i := range o.Genlib {
		o.Genlib[i] = abs(o.Genlib[i])
	}
	o.Constr = abs(o.Constr)
	o.TopDir = abs(o.TopDir)

	o.LutCosts = nil
	if o.Lut != "" {
		costs, err := ParseLut(o.Lut)
		if err != nil {
			return err
		}
		o.LutCosts = costs
	}
	if o.Luts != "" {
		costs, err := ParseLuts(o.Luts)
		if err != nil {
			return err
		}
		o.LutCosts = costs
	}

	gates, cmos, err := ParseGates(o.Gates)
	if err != nil {
		return err
	}
	o.EnabledGates, o.CMOS = gates, cmos

	if len(o.LutCosts) > 0 && o.HasLibrary() {
		return errors.Wrap(ErrInvalidOptions, "got --lut and --liberty/--genlib, these two options are exclusive")
	}
	if o.Constr != "" && !o.HasLibrary() {
		return errors.Wrap(ErrInvalidOptions, "got --constr but no --liberty/--genlib")
	}
	return nil
}

// HasLibrary reports whether a user cell library is given
func (o *Options) HasLibrary() bool {
	return len(o.Liberty) > 0 || len(o.Genlib) > 0
}

// BuiltinLib reports whether the optimizer maps to the generated gate library
func (o *Options) BuiltinLib() bool {
	return !o.HasLibrary()
}

// Library returns the generated gate library description
func (o *Options) Library() blif.Library {
	return blif.Library{
		Gates: o.EnabledGates,
		CMOS:  o.CMOS,
		Mux4:  o.Mux4,
		Mux8:  o.Mux8,
		Mux16: o.Mux16,
	}
}

// ParseLut parses "N" or "N:M". LUTs up to N inputs cost 1, wider ones
// double in cost per extra input up to M.
func ParseLut(arg string) ([]int, error) {
	lo, hi, found := strings.Cut(arg, ":")
	n, err := strconv.Atoi(lo)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidOptions, "bad --lut value %q", arg)
	}
	m := n
	if found {
		if m, err = strconv.Atoi(hi); err != nil {
			return nil, errors.Wrapf(ErrInvalidOptions, "bad --lut value %q", arg)
		}
	}

	var costs []int
	for i := 0; i < n; i++ {
		costs = append(costs, 1)
	}
	for i := n; i < m; i++ {
		costs = append(costs, 2<<(i-n))
	}
	return costs, nil
}

// ParseLuts parses "c1,c2,...". An empty entry repeats the previous cost
// and "N:c" fills up to N inputs with cost c.
func ParseLuts(arg string) ([]int, error) {
	var costs []int
	for _, tok := range strings.Split(arg, ",") {
		var parts []string
		for _, p := range strings.Split(tok, ":") {
			if p != "" {
				parts = append(parts, p)
			}
		}

		switch len(parts) {
		case 0:
			if len(costs) == 0 {
				return nil, errors.Wrapf(ErrInvalidOptions, "invalid --luts syntax %q", arg)
			}
			costs = append(costs, costs[len(costs)-1])
		case 1:
			c, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidOptions, "invalid --luts syntax %q", arg)
			}
			costs = append(costs, c)
		case 2:
			n, err1 := strconv.Atoi(parts[0])
			c, err2 := strconv.Atoi(parts[1])
			if err1 != nil || err2 != nil {
				return nil, errors.Wrapf(ErrInvalidOptions, "invalid --luts syntax %q", arg)
			}
			for len(costs) < n {
				costs = append(costs, c)
			}
		default:
			return nil, errors.Wrapf(ErrInvalidOptions, "invalid --luts syntax %q", arg)
		}
	}
	return costs, nil
}
