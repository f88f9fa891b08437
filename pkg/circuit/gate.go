package circuit

import "fmt"

// GateType represents the function of a gate graph node
type GateType int

const (
	None GateType = iota // Terminal: primary input or loop break signal
	FF                   // Register
	BUF
	NOT
	AND
	NAND
	OR
	NOR
	XOR
	XNOR
	ANDNOT
	ORNOT
	MUX
	NMUX
	AOI3
	OAI3
	AOI4
	OAI4

	// Only produced by the optimizer
	ZERO
	ONE
	MUX4
	MUX8
	MUX16
)

// Kind describes one gate function in every representation the mapper needs:
// the host cell type, the optimizer library name and formula, and the BLIF
// cover used when exporting the graph.
type Kind struct {
	Type     GateType
	Name     string   // Library cell name
	CellType string   // Host primitive cell type
	Pins     []string // Input pins, in node input order
	Output   string
	Cover    []string // BLIF single-output cover, inputs in Pins order
	Expr     string   // genlib formula over Pins
	Phase    string   // genlib pin phase
}

var kinds = []*Kind{
	{Type: BUF, Name: "BUF", CellType: "$_BUF_", Pins: []string{"A"}, Cover: []string{"1 1"}, Expr: "A", Phase: "NONINV"},
	{Type: NOT, Name: "NOT", CellType: "$_NOT_", Pins: []string{"A"}, Cover: []string{"0 1"}, Expr: "!A", Phase: "INV"},
	{Type: AND, Name: "AND", CellType: "$_AND_", Pins: []string{"A", "B"}, Cover: []string{"11 1"}, Expr: "A*B", Phase: "NONINV"},
	{Type: NAND, Name: "NAND", CellType: "$_NAND_", Pins: []string{"A", "B"}, Cover: []string{"0- 1", "-0 1"}, Expr: "!(A*B)", Phase: "INV"},
	{Type: OR, Name: "OR", CellType: "$_OR_", Pins: []string{"A", "B"}, Cover: []string{"-1 1", "1- 1"}, Expr: "A+B", Phase: "NONINV"},
	{Type: NOR, Name: "NOR", CellType: "$_NOR_", Pins: []string{"A", "B"}, Cover: []string{"00 1"}, Expr: "!(A+B)", Phase: "INV"},
	{Type: XOR, Name: "XOR", CellType: "$_XOR_", Pins: []string{"A", "B"}, Cover: []string{"01 1", "10 1"}, Expr: "(A*!B)+(!A*B)", Phase: "UNKNOWN"},
	{Type: XNOR, Name: "XNOR", CellType: "$_XNOR_", Pins: []string{"A", "B"}, Cover: []string{"00 1", "11 1"}, Expr: "(A*B)+(!A*!B)", Phase: "UNKNOWN"},
	{Type: ANDNOT, Name: "ANDNOT", CellType: "$_ANDNOT_", Pins: []string{"A", "B"}, Cover: []string{"10 1"}, Expr: "A*!B", Phase: "UNKNOWN"},
	{Type: ORNOT, Name: "ORNOT", CellType: "$_ORNOT_", Pins: []string{"A", "B"}, Cover: []string{"1- 1", "-0 1"}, Expr: "A+!B", Phase: "UNKNOWN"},
	{Type: MUX, Name: "MUX", CellType: "$_MUX_", Pins: []string{"A", "B", "S"}, Cover: []string{"1-0 1", "-11 1"}, Expr: "(A*B)+(S*B)+(!S*A)", Phase: "UNKNOWN"},
	{Type: NMUX, Name: "NMUX", CellType: "$_NMUX_", Pins: []string{"A", "B", "S"}, Cover: []string{"0-0 1", "-01 1"}, Expr: "!((A*B)+(S*B)+(!S*A))", Phase: "UNKNOWN"},
	{Type: AOI3, Name: "AOI3", CellType: "$_AOI3_", Pins: []string{"A", "B", "C"}, Cover: []string{"-00 1", "0-0 1"}, Expr: "!((A*B)+C)", Phase: "INV"},
	{Type: OAI3, Name: "OAI3", CellType: "$_OAI3_", Pins: []string{"A", "B", "C"}, Cover: []string{"00- 1", "--0 1"}, Expr: "!((A+B)*C)", Phase: "INV"},
	{Type: AOI4, Name: "AOI4", CellType: "$_AOI4_", Pins: []string{"A", "B", "C", "D"}, Cover: []string{"-0-0 1", "-00- 1", "0--0 1", "0-0- 1"}, Expr: "!((A*B)+(C*D))", Phase: "INV"},
	{Type: OAI4, Name: "OAI4", CellType: "$_OAI4_", Pins: []string{"A", "B", "C", "D"}, Cover: []string{"00-- 1", "--00 1"}, Expr: "!((A+B)*(C+D))", Phase: "INV"},

	{Type: ZERO, Name: "ZERO", Expr: "CONST0"},
	{Type: ONE, Name: "ONE", Expr: "CONST1"},
	{Type: MUX4, Name: "MUX4", CellType: "$_MUX4_", Pins: []string{"A", "B", "C", "D", "S", "T"},
		Expr: "(!S*!T*A)+(S*!T*B)+(!S*T*C)+(S*T*D)", Phase: "UNKNOWN"},
	{Type: MUX8, Name: "MUX8", CellType: "$_MUX8_", Pins: []string{"A", "B", "C", "D", "E", "F", "G", "H", "S", "T", "U"},
		Expr: "(!S*!T*!U*A)+(S*!T*!U*B)+(!S*T*!U*C)+(S*T*!U*D)+(!S*!T*U*E)+(S*!T*U*F)+(!S*T*U*G)+(S*T*U*H)", Phase: "UNKNOWN"},
	{Type: MUX16, Name: "MUX16", CellType: "$_MUX16_", Pins: []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "S", "T", "U", "V"},
		Expr: "(!S*!T*!U*!V*A)+(S*!T*!U*!V*B)+(!S*T*!U*!V*C)+(S*T*!U*!V*D)+" +
			"(!S*!T*U*!V*E)+(S*!T*U*!V*F)+(!S*T*U*!V*G)+(S*T*U*!V*H)+" +
			"(!S*!T*!U*V*I)+(S*!T*!U*V*J)+(!S*T*!U*V*K)+(S*T*!U*V*L)+" +
			"(!S*!T*U*V*M)+(S*!T*U*V*N)+(!S*T*U*V*O)+(S*T*U*V*P)", Phase: "UNKNOWN"},
}

var (
	kindByType     = make(map[GateType]*Kind)
	kindByName     = make(map[string]*Kind)
	kindByCellType = make(map[string]*Kind)
)

func init() {
	for _, k := range kinds {
		k.Output = "Y"
		kindByType[k.Type] = k
		kindByName[k.Name] = k
		if k.CellType != "" {
			kindByCellType[k.CellType] = k
		}
	}
}

// Kinds returns all gate kinds in declaration order
func Kinds() []*Kind {
	return kinds
}

// KindOf returns the kind of a logic gate type, nil for None and FF
func KindOf(t GateType) *Kind {
	return kindByType[t]
}

// KindByName looks up a kind by its library cell name
func KindByName(name string) *Kind {
	return kindByName[name]
}

// KindByCellType looks up a kind by host cell type
func KindByCellType(cellType string) *Kind {
	return kindByCellType[cellType]
}

// String returns a string representation of the gate type
func (gt GateType) String() string {
	switch gt {
	case None:
		return "NONE"
	case FF:
		return "FF"
	}
	if k := kindByType[gt]; k != nil {
		return k.Name
	}
	return "UNKNOWN"
}

// IsLogic returns true for combinational graph node types
func (gt GateType) IsLogic() bool {
	return gt >= BUF && gt <= OAI4
}

// Arity returns the number of inputs of the kind
func (k *Kind) Arity() int {
	return len(k.Pins)
}

// String returns a string representation of the kind
func (k *Kind) String() string {
	return fmt.Sprintf("%s(%s)", k.Name, k.CellType)
}

// Eval computes the output of the gate for the given input values, ordered
// as Pins
func (k *Kind) Eval(in []bool) bool {
	at := func(i int) bool {
		return i < len(in) && in[i]
	}
	a, b, c, d := at(0), at(1), at(2), at(3)

	switch k.Type {
	case ZERO:
		return false
	case ONE:
		return true
	case BUF:
		return a
	case NOT:
		return !a
	case AND:
		return a && b
	case NAND:
		return !(a && b)
	case OR:
		return a || b
	case NOR:
		return !(a || b)
	case XOR:
		return a != b
	case XNOR:
		return a == b
	case ANDNOT:
		return a && !b
	case ORNOT:
		return a || !b
	case MUX:
		if c {
			return b
		}
		return a
	case NMUX:
		if c {
			return !b
		}
		return !a
	case AOI3:
		return !((a && b) || c)
	case OAI3:
		return !((a || b) && c)
	case AOI4:
		return !((a && b) || (c && d))
	case OAI4:
		return !((a || b) && (c || d))
	case MUX4, MUX8, MUX16:
		data := len(k.Pins) - muxSelects(k.Type)
		sel := 0
		for i := 0; i < muxSelects(k.Type); i++ {
			if at(data + i) {
				sel |= 1 << i
			}
		}
		return at(sel)
	}
	return false
}

func muxSelects(t GateType) int {
	switch t {
	case MUX4:
		return 2
	case MUX8:
		return 3
	case MUX16:
		return 4
	}
	return 0
}

// EvalCover evaluates a BLIF single-output cover
func EvalCover(cover []string, in []bool) bool {
	for _, row := range cover {
		var plane, out string
		if _, err := fmt.Sscan(row, &plane, &out); err != nil {
			// Constant cover rows carry only the output column
			plane, out = "", row
		}
		match := true
		for i := 0; i < len(plane) && match; i++ {
			v := i < len(in) && in[i]
			switch plane[i] {
			case '0':
				match = !v
			case '1':
				match = v
			}
		}
		if match {
			return out == "1"
		}
	}
	return false
}
