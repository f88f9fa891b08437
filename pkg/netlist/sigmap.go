package netlist

// SigMap resolves aliased bits to one canonical bit.
//
// Two bits are aliases when a module connection joins them. The canonical
// representative is chosen by rank, never by pointer value: constants first,
// then module ports, then public names, then the smallest (name, offset).
type SigMap struct {
	parent map[SigBit]SigBit
}

// NewSigMap builds the alias map of a module
func NewSigMap(m *Module) *SigMap {
	s := &SigMap{}
	s.Set(m)
	return s
}

// Set discards the current map and rebuilds it from the module connections
func (s *SigMap) Set(m *Module) {
	s.parent = make(map[SigBit]SigBit)
	if m == nil {
		return
	}
	for _, conn := range m.Connections() {
		n := len(conn.Lhs)
		if len(conn.Rhs) < n {
			n = len(conn.Rhs)
		}
		for i := 0; i < n; i++ {
			s.Add(conn.Lhs[i], conn.Rhs[i])
		}
	}
}

// Add merges the alias classes of a and b
func (s *SigMap) Add(a, b SigBit) {
	ra := s.find(a)
	rb := s.find(b)
	if ra == rb {
		return
	}
	if rank(rb, ra) {
		s.parent[ra] = rb
	} else {
		s.parent[rb] = ra
	}
}

// Apply returns the canonical bit for b
func (s *SigMap) Apply(b SigBit) SigBit {
	return s.find(b)
}

// ApplySpec returns the canonical bits for every bit of sig
func (s *SigMap) ApplySpec(sig SigSpec) SigSpec {
	out := make(SigSpec, len(sig))
	for i, b := range sig {
		out[i] = s.find(b)
	}
	return out
}

func (s *SigMap) find(b SigBit) SigBit {
	p, ok := s.parent[b]
	if !ok || p == b {
		return b
	}
	root := s.find(p)
	s.parent[b] = root
	return root
}

// rank returns true if a is a better representative than b
func rank(a, b SigBit) bool {
	if a.IsConst() != b.IsConst() {
		return a.IsConst()
	}
	if a.IsConst() {
		return a.Data < b.Data
	}
	ap, bp := a.Wire.PortID > 0, b.Wire.PortID > 0
	if ap != bp {
		return ap
	}
	apub, bpub := a.Wire.IsPublic(), b.Wire.IsPublic()
	if apub != bpub {
		return apub
	}
	return a.Less(b)
}
