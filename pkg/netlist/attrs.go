package netlist

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Well-known attribute names
const (
	AttrKeep     = "keep"
	AttrSrc      = "src"
	AttrInit     = "init"
	AttrAbcGroup = "abcgroup"
)

// BoolAttr interprets an attribute value as a boolean. Attributes are stored
// the way the JSON netlist stores them: binary strings or plain text.
func BoolAttr(value string) bool {
	if value == "" {
		return false
	}
	if strings.Trim(value, "01") == "" {
		return strings.Contains(value, "1")
	}
	return true
}

// ConstInt encodes an integer as a 32-bit binary string
func ConstInt(v int) string {
	s := strconv.FormatUint(uint64(uint32(v)), 2)
	return strings.Repeat("0", 32-len(s)) + s
}

// ParseConstInt decodes a binary or decimal attribute value
func ParseConstInt(value string) (int, error) {
	if value != "" && strings.Trim(value, "01") == "" {
		v, err := strconv.ParseUint(value, 2, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid constant %q", value)
		}
		return int(v), nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid constant %q", value)
	}
	return v, nil
}

// ConstBits encodes states MSB first, the order used by init attributes.
// bits is LSB first.
func ConstBits(bits []State) string {
	var b strings.Builder
	for i := len(bits) - 1; i >= 0; i-- {
		b.WriteString(bits[i].String())
	}
	return b.String()
}

// ParseConstBits is the inverse of ConstBits. The result is LSB first and
// padded with Sx up to width.
func ParseConstBits(value string, width int) []State {
	bits := make([]State, width)
	for i := range bits {
		bits[i] = Sx
	}
	for i := 0; i < width && i < len(value); i++ {
		if s, ok := ParseState(value[len(value)-1-i]); ok {
			bits[i] = s
		}
	}
	return bits
}
