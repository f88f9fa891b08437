package netlist

// Primitive cell type names
const (
	TypeDffP   = "$_DFF_P_"
	TypeDffN   = "$_DFF_N_"
	TypeDffePP = "$_DFFE_PP_"
	TypeDffePN = "$_DFFE_PN_"
	TypeDffeNP = "$_DFFE_NP_"
	TypeDffeNN = "$_DFFE_NN_"
	TypeLut    = "$lut"
	TypeSop    = "$sop"
)

type portSet struct {
	inputs  []string
	outputs []string
}

// CellTypes knows which ports of the internal cell types are inputs and
// which are outputs. Library cells fall back to their recorded directions.
type CellTypes struct {
	types map[string]portSet
}

// NewCellTypes returns the table of internal cell types
func NewCellTypes() *CellTypes {
	ct := &CellTypes{types: make(map[string]portSet)}

	ct.setup("$_BUF_", []string{"A"}, "Y")
	ct.setup("$_NOT_", []string{"A"}, "Y")
	for _, t := range []string{"$_AND_", "$_NAND_", "$_OR_", "$_NOR_", "$_XOR_", "$_XNOR_", "$_ANDNOT_", "$_ORNOT_"} {
		ct.setup(t, []string{"A", "B"}, "Y")
	}
	ct.setup("$_MUX_", []string{"A", "B", "S"}, "Y")
	ct.setup("$_NMUX_", []string{"A", "B", "S"}, "Y")
	ct.setup("$_AOI3_", []string{"A", "B", "C"}, "Y")
	ct.setup("$_OAI3_", []string{"A", "B", "C"}, "Y")
	ct.setup("$_AOI4_", []string{"A", "B", "C", "D"}, "Y")
	ct.setup("$_OAI4_", []string{"A", "B", "C", "D"}, "Y")
	ct.setup("$_MUX4_", []string{"A", "B", "C", "D", "S", "T"}, "Y")
	ct.setup("$_MUX8_", []string{"A", "B", "C", "D", "E", "F", "G", "H", "S", "T", "U"}, "Y")
	ct.setup("$_MUX16_", []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "S", "T", "U", "V"}, "Y")

	ct.setup(TypeDffP, []string{"C", "D"}, "Q")
	ct.setup(TypeDffN, []string{"C", "D"}, "Q")
	for _, t := range []string{TypeDffePP, TypeDffePN, TypeDffeNP, TypeDffeNN} {
		ct.setup(t, []string{"C", "D", "E"}, "Q")
	}

	ct.setup(TypeLut, []string{"A"}, "Y")
	ct.setup(TypeSop, []string{"A"}, "Y")
	return ct
}

func (ct *CellTypes) setup(cellType string, inputs []string, output string) {
	ct.types[cellType] = portSet{inputs: inputs, outputs: []string{output}}
}

// Known returns true for internal cell types
func (ct *CellTypes) Known(cellType string) bool {
	_, ok := ct.types[cellType]
	return ok
}

// CellInput returns true if port of c is an input
func (ct *CellTypes) CellInput(c *Cell, port string) bool {
	if ps, ok := ct.types[c.Type]; ok {
		return contains(ps.inputs, port)
	}
	dir := c.PortDir(port)
	return dir == DirInput || dir == DirInOut
}

// CellOutput returns true if port of c is an output
func (ct *CellTypes) CellOutput(c *Cell, port string) bool {
	if ps, ok := ct.types[c.Type]; ok {
		return contains(ps.outputs, port)
	}
	dir := c.PortDir(port)
	return dir == DirOutput || dir == DirInOut
}

// Directions returns the port directions of an internal cell type
func (ct *CellTypes) Directions(cellType string) map[string]PortDir {
	ps, ok := ct.types[cellType]
	if !ok {
		return nil
	}
	dirs := make(map[string]PortDir, len(ps.inputs)+len(ps.outputs))
	for _, p := range ps.inputs {
		dirs[p] = DirInput
	}
	for _, p := range ps.outputs {
		dirs[p] = DirOutput
	}
	return dirs
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
