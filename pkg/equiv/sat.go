package equiv

import (
	"fmt"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

type aigOps struct {
	c   *logic.C
	ins []z.Lit
}

func newAIGOps(varnum int) *aigOps {
	a := &aigOps{c: logic.NewCCap(4 * (varnum + 1))}
	for i := 0; i < varnum; i++ {
		a.ins = append(a.ins, a.c.Lit())
	}
	return a
}

func (a *aigOps) Input(i int) z.Lit { return a.ins[i] }

func (a *aigOps) Const(v bool) z.Lit {
	if v {
		return a.c.T
	}
	return a.c.F
}

func (a *aigOps) Not(m z.Lit) z.Lit       { return m.Not() }
func (a *aigOps) And(m, n z.Lit) z.Lit    { return a.c.And(m, n) }
func (a *aigOps) Or(m, n z.Lit) z.Lit     { return a.c.Or(m, n) }
func (a *aigOps) Xor(m, n z.Lit) z.Lit    { return a.c.Xor(m, n) }
func (a *aigOps) Ite(s, t, e z.Lit) z.Lit { return a.c.Choice(s, t, e) }

const satisfiable = 1

// checkSAT builds a miter per output and asks the solver for an input
// assignment that sets it
func checkSAT(p *pair) (string, string, error) {
	a := newAIGOps(len(p.vars))
	ref, err := newNetwork[z.Lit](a, p.ref, p.vars)
	if err != nil {
		return "", "", err
	}
	impl, err := newNetwork[z.Lit](a, p.impl, p.vars)
	if err != nil {
		return "", "", err
	}

	miters := make([]z.Lit, len(p.outputs))
	for i, out := range p.outputs {
		f, err := ref.Net(out)
		if err != nil {
			return "", "", err
		}
		g, err := impl.Net(out)
		if err != nil {
			return "", "", err
		}
		miters[i] = a.c.Xor(f, g)
	}

	g := gini.New()
	a.c.ToCnfFrom(g, miters...)
	g.Add(a.c.T)
	g.Add(0)

	for i, m := range miters {
		if m == a.c.F {
			continue
		}
		g.Assume(m)
		if g.Solve() == satisfiable {
			return p.outputs[i], counterexample(g, a, p), nil
		}
	}
	return "", "", nil
}

func counterexample(g *gini.Gini, a *aigOps, p *pair) string {
	var parts []string
	for _, name := range p.inputs {
		v := 0
		if g.Value(a.ins[p.vars[name]]) {
			v = 1
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, v))
	}
	return strings.Join(parts, " ")
}
