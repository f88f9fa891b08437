// Package equiv checks that an optimized network computes the same outputs
// as the network it was produced from.
package equiv

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/blif"
)

var (
	// ErrUnsupported is returned for networks whose function cannot be
	// derived: latches, unknown library cells, loops
	ErrUnsupported = errors.New("network cannot be checked")
	// ErrMismatch is returned when an output differs
	ErrMismatch = errors.New("networks are not equivalent")
)

// MaxBDDInputs is the largest input count handled by the BDD engine in
// EngineAuto mode
const MaxBDDInputs = 16

// Engine selects the decision procedure
type Engine int

const (
	EngineAuto Engine = iota
	EngineBDD
	EngineSAT
)

// String returns the engine name
func (e Engine) String() string {
	switch e {
	case EngineBDD:
		return "bdd"
	case EngineSAT:
		return "sat"
	default:
		return "auto"
	}
}

// Result describes a successful check
type Result struct {
	Engine  Engine
	Inputs  int
	Outputs int
}

// pair holds two models over a shared input space
type pair struct {
	ref, impl *blif.Model
	inputs    []string
	vars      map[string]int
	outputs   []string
}

func newPair(ref, impl *blif.Model) (*pair, error) {
	p := &pair{ref: ref, impl: impl, vars: make(map[string]int)}
	for _, m := range []*blif.Model{ref, impl} {
		for _, in := range m.Inputs {
			if _, ok := p.vars[in]; !ok {
				p.vars[in] = len(p.inputs)
				p.inputs = append(p.inputs, in)
			}
		}
	}

	implOut := make(map[string]bool, len(impl.Outputs))
	for _, out := range impl.Outputs {
		implOut[out] = true
	}
	for _, out := range ref.Outputs {
		if !implOut[out] {
			return nil, errors.Wrapf(ErrMismatch, "output %s is missing", out)
		}
		p.outputs = append(p.outputs, out)
	}
	sort.Strings(p.outputs)
	return p, nil
}

// Check compares every output of ref with the output of the same name in
// impl. Inputs are matched by name.
func Check(ref, impl *blif.Model, engine Engine) (*Result, error) {
	p, err := newPair(ref, impl)
	if err != nil {
		return nil, err
	}
	if engine == EngineAuto {
		engine = EngineBDD
		if len(p.inputs) > MaxBDDInputs {
			engine = EngineSAT
		}
	}

	var out, cex string
	switch engine {
	case EngineBDD:
		out, err = checkBDD(p)
	case EngineSAT:
		out, cex, err = checkSAT(p)
	default:
		return nil, errors.Errorf("unknown engine %d", engine)
	}
	if err != nil {
		return nil, err
	}
	if out != "" {
		if cex != "" {
			return nil, errors.Wrapf(ErrMismatch, "output %s differs for %s", out, cex)
		}
		return nil, errors.Wrapf(ErrMismatch, "output %s differs", out)
	}
	return &Result{Engine: engine, Inputs: len(p.inputs), Outputs: len(p.outputs)}, nil
}

// CheckFiles reads the exported and optimized networks and compares their
// "netlist" models. Both files are read with opts.
func CheckFiles(refPath, implPath string, opts blif.Options, engine Engine) (*Result, error) {
	ref, err := readNetlist(refPath, opts)
	if err != nil {
		return nil, err
	}
	impl, err := readNetlist(implPath, opts)
	if err != nil {
		return nil, err
	}
	return Check(ref, impl, engine)
}

func readNetlist(path string, opts blif.Options) (*blif.Model, error) {
	models, err := blif.ReadFile(path, opts)
	if err != nil {
		return nil, err
	}
	m := blif.FindModel(models, "netlist")
	if m == nil {
		return nil, errors.Errorf("%s has no model netlist", path)
	}
	return m, nil
}
