package config

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/circuit"
)

// Gate names accepted by --gates
var gateNames = map[string]circuit.GateType{
	"AND":    circuit.AND,
	"NAND":   circuit.NAND,
	"OR":     circuit.OR,
	"NOR":    circuit.NOR,
	"XOR":    circuit.XOR,
	"XNOR":   circuit.XNOR,
	"ANDNOT": circuit.ANDNOT,
	"ORNOT":  circuit.ORNOT,
	"MUX":    circuit.MUX,
	"NMUX":   circuit.NMUX,
	"AOI3":   circuit.AOI3,
	"OAI3":   circuit.OAI3,
	"AOI4":   circuit.AOI4,
	"OAI4":   circuit.OAI4,
}

var gateAliases = map[string][]string{
	"simple": {"AND", "OR", "XOR", "MUX"},
	"cmos2":  {"NAND", "NOR"},
	"cmos3":  {"NAND", "NOR", "AOI3", "OAI3"},
	"cmos4":  {"NAND", "NOR", "AOI3", "OAI3", "AOI4", "OAI4"},
	"cmos":   {"NAND", "NOR", "AOI3", "OAI3", "AOI4", "OAI4", "NMUX", "MUX", "XOR", "XNOR"},
	"gates":  {"AND", "NAND", "OR", "NOR", "XOR", "XNOR", "ANDNOT", "ORNOT"},
	"aig":    {"AND", "NAND", "OR", "NOR", "ANDNOT", "ORNOT"},
	"all":    {"AND", "NAND", "OR", "NOR", "XOR", "XNOR", "ANDNOT", "ORNOT", "AOI3", "OAI3", "AOI4", "OAI4", "MUX", "NMUX"},
}

// DefaultGates is the gate set used when none is requested
var DefaultGates = []circuit.GateType{
	circuit.AND, circuit.NAND, circuit.OR, circuit.NOR, circuit.XOR,
	circuit.XNOR, circuit.ANDNOT, circuit.ORNOT, circuit.MUX,
}

// ParseGates parses a comma separated list of gate names and aliases. A
// leading "-" removes the gates instead of adding them. The cmos* aliases
// select the CMOS cost table. An empty result means DefaultGates.
func ParseGates(spec string) (map[circuit.GateType]bool, bool, error) {
	gates := make(map[circuit.GateType]bool)
	cmos := false

	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		remove := strings.HasPrefix(tok, "-")
		name := strings.TrimPrefix(tok, "-")

		var list []string
		if _, ok := gateNames[name]; ok {
			list = []string{name}
		} else if alias, ok := gateAliases[name]; ok {
			list = alias
			if strings.HasPrefix(name, "cmos") && !remove {
				cmos = true
			}
		} else {
			return nil, false, errors.Wrapf(ErrInvalidOptions, "unsupported gate type: %s", name)
		}

		for _, g := range list {
			if remove {
				delete(gates, gateNames[g])
			} else {
				gates[gateNames[g]] = true
			}
		}
	}

	if len(gates) == 0 {
		for _, g := range DefaultGates {
			gates[g] = true
		}
	}
	return gates, cmos, nil
}
