package netlist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrDuplicateName is returned when a wire or cell name is already taken
var ErrDuplicateName = errors.New("duplicate name")

// State represents a constant signal value
type State int

const (
	S0 State = iota // Logic 0
	S1              // Logic 1
	Sx              // Unknown/undefined
	Sz              // High impedance
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case S0:
		return "0"
	case S1:
		return "1"
	case Sx:
		return "x"
	case Sz:
		return "z"
	default:
		return "?"
	}
}

// ParseState converts a single character into a State
func ParseState(ch byte) (State, bool) {
	switch ch {
	case '0':
		return S0, true
	case '1':
		return S1, true
	case 'x', 'X', '-':
		return Sx, true
	case 'z', 'Z':
		return Sz, true
	}
	return Sx, false
}

// IsDefined returns true for S0 and S1
func (s State) IsDefined() bool {
	return s == S0 || s == S1
}

// PortDir is the direction of a cell port
type PortDir int

const (
	DirUnknown PortDir = iota
	DirInput
	DirOutput
	DirInOut
)

// String returns the JSON spelling of the direction
func (d PortDir) String() string {
	switch d {
	case DirInput:
		return "input"
	case DirOutput:
		return "output"
	case DirInOut:
		return "inout"
	default:
		return "unknown"
	}
}

// ParsePortDir is the inverse of PortDir.String
func ParsePortDir(s string) PortDir {
	switch s {
	case "input":
		return DirInput
	case "output":
		return DirOutput
	case "inout":
		return DirInOut
	default:
		return DirUnknown
	}
}

// SigBit is a single bit of a wire or a constant
type SigBit struct {
	Wire   *Wire // nil for constants
	Offset int   // Bit index inside Wire
	Data   State // Constant value when Wire is nil
}

// Const returns a constant bit
func Const(s State) SigBit {
	return SigBit{Data: s}
}

// IsConst returns true if the bit is not attached to a wire
func (b SigBit) IsConst() bool {
	return b.Wire == nil
}

// String returns the name of the bit as used in log messages
func (b SigBit) String() string {
	if b.Wire == nil {
		return "1'" + b.Data.String()
	}
	if b.Wire.Width == 1 {
		return b.Wire.Name
	}
	return fmt.Sprintf("%s[%d]", b.Wire.Name, b.Offset)
}

// Less orders bits by name so that iteration never depends on pointer values.
// Constants sort before wire bits.
func (b SigBit) Less(o SigBit) bool {
	if b.Wire == nil || o.Wire == nil {
		if b.Wire == nil && o.Wire == nil {
			return b.Data < o.Data
		}
		return b.Wire == nil
	}
	if b.Wire.Name != o.Wire.Name {
		return b.Wire.Name < o.Wire.Name
	}
	return b.Offset < o.Offset
}

// SigSpec is an ordered list of bits, LSB first
type SigSpec []SigBit

// String returns a compact representation of the signal
func (s SigSpec) String() string {
	switch len(s) {
	case 0:
		return "{}"
	case 1:
		return s[0].String()
	}
	parts := make([]string, 0, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		parts = append(parts, s[i].String())
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// Equal compares two signals bit by bit
func (s SigSpec) Equal(o SigSpec) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// SigSig is a connection: Lhs is driven by Rhs
type SigSig struct {
	Lhs SigSpec
	Rhs SigSpec
}

// Wire represents a named net of one or more bits
type Wire struct {
	Name       string
	Width      int
	PortID     int // 0 when the wire is not a module port
	PortInput  bool
	PortOutput bool
	Attributes map[string]string
	module     *Module
}

// Bit returns bit i of the wire
func (w *Wire) Bit(i int) SigBit {
	return SigBit{Wire: w, Offset: i}
}

// Bits returns all bits of the wire, LSB first
func (w *Wire) Bits() SigSpec {
	sig := make(SigSpec, w.Width)
	for i := range sig {
		sig[i] = w.Bit(i)
	}
	return sig
}

// IsPublic returns true for user-given names
func (w *Wire) IsPublic() bool {
	return IsPublicName(w.Name)
}

// GetBoolAttribute returns true if the attribute is set to a non-zero value
func (w *Wire) GetBoolAttribute(name string) bool {
	return BoolAttr(w.Attributes[name])
}

// SetAttribute sets an attribute value
func (w *Wire) SetAttribute(name, value string) {
	if w.Attributes == nil {
		w.Attributes = make(map[string]string)
	}
	w.Attributes[name] = value
}

// Module returns the module owning the wire
func (w *Wire) Module() *Module {
	return w.module
}

// PortConn is a named cell port and the signal connected to it
type PortConn struct {
	Name string
	Sig  SigSpec
}

// Cell represents an instance of a primitive or library cell
type Cell struct {
	Name       string
	Type       string
	Parameters map[string]string
	Attributes map[string]string
	ports      []PortConn
	dirs       map[string]PortDir
}

// SetPort connects a signal to a port, replacing any previous connection
func (c *Cell) SetPort(name string, sig SigSpec) {
	for i := range c.ports {
		if c.ports[i].Name == name {
			c.ports[i].Sig = sig
			return
		}
	}
	c.ports = append(c.ports, PortConn{Name: name, Sig: sig})
}

// Port returns the signal connected to a port
func (c *Cell) Port(name string) (SigSpec, bool) {
	for _, p := range c.ports {
		if p.Name == name {
			return p.Sig, true
		}
	}
	return nil, false
}

// HasPort returns true if the port is connected
func (c *Cell) HasPort(name string) bool {
	_, ok := c.Port(name)
	return ok
}

// Connections returns all port connections in the order they were set
func (c *Cell) Connections() []PortConn {
	return c.ports
}

// SetPortDir records the direction of a port, used for library cells
func (c *Cell) SetPortDir(name string, dir PortDir) {
	if c.dirs == nil {
		c.dirs = make(map[string]PortDir)
	}
	c.dirs[name] = dir
}

// PortDir returns the recorded direction of a port
func (c *Cell) PortDir(name string) PortDir {
	return c.dirs[name]
}

// SetParam sets a cell parameter
func (c *Cell) SetParam(name, value string) {
	if c.Parameters == nil {
		c.Parameters = make(map[string]string)
	}
	c.Parameters[name] = value
}

// SetAttribute sets a cell attribute
func (c *Cell) SetAttribute(name, value string) {
	if c.Attributes == nil {
		c.Attributes = make(map[string]string)
	}
	c.Attributes[name] = value
}

// String returns a string representation of the cell
func (c *Cell) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, c.Type)
}

// Module is a flat netlist of wires, cells and connections
type Module struct {
	Name       string
	Attributes map[string]string
	Processes  int // Number of behavioural process blocks (unsupported here)

	wires     map[string]*Wire
	wireOrder []*Wire
	cells     map[string]*Cell
	cellOrder []*Cell
	conns     []SigSig
	design    *Design
}

// NewModule creates an empty module
func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		Attributes: make(map[string]string),
		wires:      make(map[string]*Wire),
		cells:      make(map[string]*Cell),
	}
}

// AddWire creates a new wire
func (m *Module) AddWire(name string, width int) (*Wire, error) {
	if _, exists := m.wires[name]; exists {
		return nil, errors.Wrapf(ErrDuplicateName, "wire %s in module %s", name, m.Name)
	}
	if width < 1 {
		width = 1
	}
	w := &Wire{Name: name, Width: width, Attributes: make(map[string]string), module: m}
	m.wires[name] = w
	m.wireOrder = append(m.wireOrder, w)
	return w, nil
}

// Wire returns a wire by name
func (m *Module) Wire(name string) *Wire {
	return m.wires[name]
}

// Wires returns all wires in creation order
func (m *Module) Wires() []*Wire {
	return m.wireOrder
}

// Ports returns the port wires ordered by port id
func (m *Module) Ports() []*Wire {
	var ports []*Wire
	for _, w := range m.wireOrder {
		if w.PortID > 0 {
			ports = append(ports, w)
		}
	}
	sort.SliceStable(ports, func(i, j int) bool {
		return ports[i].PortID < ports[j].PortID
	})
	return ports
}

// AddCell creates a new cell
func (m *Module) AddCell(name, cellType string) (*Cell, error) {
	if _, exists := m.cells[name]; exists {
		return nil, errors.Wrapf(ErrDuplicateName, "cell %s in module %s", name, m.Name)
	}
	c := &Cell{
		Name:       name,
		Type:       cellType,
		Parameters: make(map[string]string),
		Attributes: make(map[string]string),
	}
	m.cells[name] = c
	m.cellOrder = append(m.cellOrder, c)
	return c, nil
}

// Cell returns a cell by name
func (m *Module) Cell(name string) *Cell {
	return m.cells[name]
}

// Cells returns the cells still present in the module, in creation order
func (m *Module) Cells() []*Cell {
	cells := make([]*Cell, 0, len(m.cells))
	for _, c := range m.cellOrder {
		if m.cells[c.Name] == c {
			cells = append(cells, c)
		}
	}
	return cells
}

// RemoveCell deletes a cell from the module
func (m *Module) RemoveCell(c *Cell) {
	if m.cells[c.Name] != c {
		return
	}
	delete(m.cells, c.Name)

	// Compact lazily so repeated removals stay linear
	if len(m.cellOrder) > 2*len(m.cells)+16 {
		m.cellOrder = m.Cells()
	}
}

// RestoreCell puts a removed cell back into the module
func (m *Module) RestoreCell(c *Cell) error {
	if cur, exists := m.cells[c.Name]; exists {
		if cur == c {
			return nil
		}
		return errors.Wrapf(ErrDuplicateName, "cell %s in module %s", c.Name, m.Name)
	}
	m.cellOrder = append(m.Cells(), c)
	m.cells[c.Name] = c
	return nil
}

// Checkpoint is a recorded module state. Wires and connections only ever
// grow, so their counts are enough to find what came later.
type Checkpoint struct {
	wires int
	conns int
	cells []*Cell
}

// Checkpoint records the current wires, cells and connections
func (m *Module) Checkpoint() Checkpoint {
	return Checkpoint{wires: len(m.wireOrder), conns: len(m.conns), cells: m.Cells()}
}

// Rollback returns the module to cp: wires and connections added since are
// dropped and the cell set is reset to the recorded one
func (m *Module) Rollback(cp Checkpoint) {
	if cp.wires < len(m.wireOrder) {
		for _, w := range m.wireOrder[cp.wires:] {
			delete(m.wires, w.Name)
		}
		m.wireOrder = m.wireOrder[:cp.wires]
	}
	if cp.conns < len(m.conns) {
		m.conns = m.conns[:cp.conns]
	}

	m.cells = make(map[string]*Cell, len(cp.cells))
	for _, c := range cp.cells {
		m.cells[c.Name] = c
	}
	m.cellOrder = append([]*Cell(nil), cp.cells...)
}

// Connect adds a connection where lhs is driven by rhs
func (m *Module) Connect(lhs, rhs SigSpec) {
	m.conns = append(m.conns, SigSig{Lhs: lhs, Rhs: rhs})
}

// ConnectBit is a single-bit shorthand for Connect
func (m *Module) ConnectBit(lhs, rhs SigBit) {
	m.Connect(SigSpec{lhs}, SigSpec{rhs})
}

// Connections returns all module-level connections
func (m *Module) Connections() []SigSig {
	return m.conns
}

// Design returns the design the module belongs to, or nil
func (m *Module) Design() *Design {
	return m.design
}

// Design is a collection of modules plus process-wide state
type Design struct {
	Scratchpad map[string]string

	modules map[string]*Module
	autoidx int
}

// NewDesign creates an empty design
func NewDesign() *Design {
	return &Design{
		Scratchpad: make(map[string]string),
		modules:    make(map[string]*Module),
		autoidx:    1,
	}
}

// AddModule adds a module to the design
func (d *Design) AddModule(m *Module) error {
	if _, exists := d.modules[m.Name]; exists {
		return errors.Wrapf(ErrDuplicateName, "module %s", m.Name)
	}
	m.design = d
	d.modules[m.Name] = m
	return nil
}

// Module returns a module by name
func (d *Design) Module(name string) *Module {
	return d.modules[name]
}

// Modules returns all modules ordered by name
func (d *Design) Modules() []*Module {
	names := make([]string, 0, len(d.modules))
	for name := range d.modules {
		names = append(names, name)
	}
	sort.Strings(names)

	mods := make([]*Module, len(names))
	for i, name := range names {
		mods[i] = d.modules[name]
	}
	return mods
}

// NextAutoIdx returns a fresh design-unique index for generated names
func (d *Design) NextAutoIdx() int {
	idx := d.autoidx
	d.autoidx++
	return idx
}

// IsPublicName returns true for names that were not generated by a tool
func IsPublicName(name string) bool {
	return !strings.HasPrefix(name, "$")
}
