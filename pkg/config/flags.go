package config

import (
	"github.com/spf13/pflag"
)

type flagSpec struct {
	name  string
	short string
	usage string
	str   func(o *Options) *string
	list  func(o *Options) *[]string
	flag  func(o *Options) *bool
}

var flagSpecs = []flagSpec{
	{name: "exe", usage: "optimizer executable", str: func(o *Options) *string { return &o.Exe }},
	{name: "script", usage: "optimizer script file, or +cmd,arg;cmd for inline commands", str: func(o *Options) *string { return &o.Script }},
	{name: "liberty", usage: "liberty cell library (repeatable)", list: func(o *Options) *[]string { return &o.Liberty }},
	{name: "genlib", usage: "genlib cell library (repeatable)", list: func(o *Options) *[]string { return &o.Genlib }},
	{name: "constr", usage: "timing constraints file, requires a cell library", str: func(o *Options) *string { return &o.Constr }},
	{name: "delay-target", short: "D", usage: "delay target in picoseconds", str: func(o *Options) *string { return &o.DelayTarget }},
	{name: "sop-inputs", short: "I", usage: "maximum inputs per SOP cover", str: func(o *Options) *string { return &o.SopInputs }},
	{name: "sop-products", short: "P", usage: "maximum products per SOP cover", str: func(o *Options) *string { return &o.SopProducts }},
	{name: "lut-shared", short: "S", usage: "maximum shared inputs for lutpack", str: func(o *Options) *string { return &o.LutShared }},
	{name: "lut", usage: "map to LUTs of width N, or N:M with growing cost above N", str: func(o *Options) *string { return &o.Lut }},
	{name: "luts", usage: "map to LUTs with costs c1,c2,... per width", str: func(o *Options) *string { return &o.Luts }},
	{name: "sop", usage: "map to sum-of-products cells", flag: func(o *Options) *bool { return &o.SOP }},
	{name: "mux4", usage: "add 4-input muxes to the gate library", flag: func(o *Options) *bool { return &o.Mux4 }},
	{name: "mux8", usage: "add 8-input muxes to the gate library", flag: func(o *Options) *bool { return &o.Mux8 }},
	{name: "mux16", usage: "add 16-input muxes to the gate library", flag: func(o *Options) *bool { return &o.Mux16 }},
	{name: "dress", usage: "restore original signal names in the optimizer result", flag: func(o *Options) *bool { return &o.Dress }},
	{name: "gates", short: "g", usage: "gate types and aliases to map to, -name removes", str: func(o *Options) *string { return &o.Gates }},
	{name: "fast", usage: "use the fast command sequences", flag: func(o *Options) *bool { return &o.Fast }},
	{name: "dff", usage: "also map registers, one unit per clock domain", flag: func(o *Options) *bool { return &o.DFF }},
	{name: "clk", usage: "map only the [!]clk[,[!]en] domain, implies --dff", str: func(o *Options) *string { return &o.Clk }},
	{name: "keepff", usage: "set keep on register output wires", flag: func(o *Options) *bool { return &o.KeepFF }},
	{name: "nocleanup", usage: "keep the work directory", flag: func(o *Options) *bool { return &o.NoCleanup }},
	{name: "showtmp", usage: "show the work directory in logs", flag: func(o *Options) *bool { return &o.ShowTmp }},
	{name: "markgroups", usage: "tag new wires and cells with the abcgroup attribute", flag: func(o *Options) *bool { return &o.MarkGroups }},
	{name: "abc-topdir", usage: "parent directory of the work area", str: func(o *Options) *string { return &o.TopDir }},
	{name: "abc-dir", usage: "work area holding optimizer results", str: func(o *Options) *string { return &o.Dir }},
	{name: "verify", usage: "check the optimized network against the exported one", flag: func(o *Options) *bool { return &o.Verify }},
	{name: "extract-only", usage: "write the exchange files and stop", flag: func(o *Options) *bool { return &o.ExtractOnly }},
	{name: "archive-dir", usage: "copy the work area here before cleanup", str: func(o *Options) *string { return &o.ArchiveDir }},
	{name: "metrics-file", usage: "write metrics in text exposition format", str: func(o *Options) *string { return &o.MetricsFile }},
	{name: "debug", usage: "debug logging, keep and show the work directory", flag: func(o *Options) *bool { return &o.Debug }},
	{name: "continue-on-error", usage: "log failed units and go on with the next one", flag: func(o *Options) *bool { return &o.ContinueOnError }},
}

// BindFlags registers every option flag on fs with the values of def as
// defaults
func BindFlags(fs *pflag.FlagSet, def Options) {
	for _, spec := range flagSpecs {
		switch {
		case spec.str != nil:
			fs.StringP(spec.name, spec.short, *spec.str(&def), spec.usage)
		case spec.list != nil:
			fs.StringArrayP(spec.name, spec.short, *spec.list(&def), spec.usage)
		case spec.flag != nil:
			fs.BoolP(spec.name, spec.short, *spec.flag(&def), spec.usage)
		}
	}
}

// ApplyFlags copies the flags set on the command line into o. Flags left
// at their default do not override earlier sources.
func (o *Options) ApplyFlags(fs *pflag.FlagSet) error {
	for _, spec := range flagSpecs {
		if !fs.Changed(spec.name) {
			continue
		}
		var err error
		switch {
		case spec.str != nil:
			*spec.str(o), err = fs.GetString(spec.name)
		case spec.list != nil:
			*spec.list(o), err = fs.GetStringArray(spec.name)
		case spec.flag != nil:
			*spec.flag(o), err = fs.GetBool(spec.name)
		}
		if err != nil {
			return err
		}
	}
	if o.Debug {
		o.NoCleanup = true
		o.ShowTmp = true
	}
	return nil
}
