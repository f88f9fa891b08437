package equiv

import (
	"github.com/dalzilio/rudd"
	"github.com/pkg/errors"
)

// bddSet is the part of the rudd API used here
type bddSet interface {
	True() rudd.Node
	False() rudd.Node
	Ithvar(i int) rudd.Node
	Not(n rudd.Node) rudd.Node
	And(n ...rudd.Node) rudd.Node
	Or(n ...rudd.Node) rudd.Node
	Ite(f, g, h rudd.Node) rudd.Node
	Equal(n1, n2 rudd.Node) bool
	Error() string
}

type bddOps struct {
	set bddSet
}

func newBDDOps(varnum int) (*bddOps, error) {
	if varnum < 1 {
		varnum = 1
	}
	set, err := rudd.New(varnum, rudd.Nodesize(10000), rudd.Cachesize(3000))
	if err != nil {
		return nil, errors.Wrap(err, "creating BDD")
	}
	return &bddOps{set: set}, nil
}

func (b *bddOps) Input(i int) rudd.Node { return b.set.Ithvar(i) }

func (b *bddOps) Const(v bool) rudd.Node {
	if v {
		return b.set.True()
	}
	return b.set.False()
}

func (b *bddOps) Not(a rudd.Node) rudd.Node       { return b.set.Not(a) }
func (b *bddOps) And(a, c rudd.Node) rudd.Node    { return b.set.And(a, c) }
func (b *bddOps) Or(a, c rudd.Node) rudd.Node     { return b.set.Or(a, c) }
func (b *bddOps) Ite(s, t, e rudd.Node) rudd.Node { return b.set.Ite(s, t, e) }

func (b *bddOps) Xor(a, c rudd.Node) rudd.Node {
	return b.set.Ite(a, b.set.Not(c), c)
}

// checkBDD compares outputs by canonical BDD identity
func checkBDD(p *pair) (string, error) {
	b, err := newBDDOps(len(p.vars))
	if err != nil {
		return "", err
	}
	ref, err := newNetwork[rudd.Node](b, p.ref, p.vars)
	if err != nil {
		return "", err
	}
	impl, err := newNetwork[rudd.Node](b, p.impl, p.vars)
	if err != nil {
		return "", err
	}

	for _, out := range p.outputs {
		f, err := ref.Net(out)
		if err != nil {
			return "", err
		}
		g, err := impl.Net(out)
		if err != nil {
			return "", err
		}
		if msg := b.set.Error(); msg != "" {
			return "", errors.Errorf("BDD error: %s", msg)
		}
		if !b.set.Equal(f, g) {
			return out, nil
		}
	}
	return "", nil
}
