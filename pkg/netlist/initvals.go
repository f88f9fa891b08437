package netlist

// InitVals looks up register initial values by canonical bit
type InitVals struct {
	sigmap *SigMap
	vals   map[SigBit]State
}

// NewInitVals collects the init attributes of every wire in m
func NewInitVals(sigmap *SigMap, m *Module) *InitVals {
	iv := &InitVals{}
	iv.Set(sigmap, m)
	return iv
}

// Set rebuilds the lookup table
func (iv *InitVals) Set(sigmap *SigMap, m *Module) {
	iv.sigmap = sigmap
	iv.vals = make(map[SigBit]State)
	if m == nil {
		return
	}
	for _, w := range m.Wires() {
		value, ok := w.Attributes[AttrInit]
		if !ok {
			continue
		}
		for i, s := range ParseConstBits(value, w.Width) {
			if s.IsDefined() {
				iv.vals[sigmap.Apply(w.Bit(i))] = s
			}
		}
	}
}

// Get returns the initial value of a bit, Sx when none is recorded
func (iv *InitVals) Get(bit SigBit) State {
	if iv == nil || iv.vals == nil {
		return Sx
	}
	if s, ok := iv.vals[iv.sigmap.Apply(bit)]; ok {
		return s
	}
	return Sx
}
