package netlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// jsonBit is either a net number or a constant ("0", "1", "x", "z")
type jsonBit struct {
	Net   int
	Const State
}

func (b jsonBit) MarshalJSON() ([]byte, error) {
	if b.Net > 0 {
		return []byte(strconv.Itoa(b.Net)), nil
	}
	return json.Marshal(b.Const.String())
}

func (b *jsonBit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if len(s) != 1 {
			return errors.Errorf("invalid constant bit %q", s)
		}
		st, ok := ParseState(s[0])
		if !ok {
			return errors.Errorf("invalid constant bit %q", s)
		}
		b.Net, b.Const = 0, st
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return errors.Wrapf(err, "invalid net number %s", data)
	}
	if n < 2 {
		return errors.Errorf("net numbers start at 2, got %d", n)
	}
	b.Net = n
	return nil
}

type jsonPort struct {
	Direction string    `json:"direction"`
	Bits      []jsonBit `json:"bits"`
}

type jsonCell struct {
	HideName       int                  `json:"hide_name"`
	Type           string               `json:"type"`
	Parameters     map[string]string    `json:"parameters"`
	Attributes     map[string]string    `json:"attributes"`
	PortDirections map[string]string    `json:"port_directions,omitempty"`
	Connections    map[string][]jsonBit `json:"connections"`
}

type jsonNet struct {
	HideName   int               `json:"hide_name"`
	Bits       []jsonBit         `json:"bits"`
	Attributes map[string]string `json:"attributes"`
}

type jsonModule struct {
	Attributes map[string]string    `json:"attributes"`
	Ports      map[string]*jsonPort `json:"ports"`
	Cells      map[string]*jsonCell `json:"cells"`
	Netnames   map[string]*jsonNet  `json:"netnames"`
	Processes  int                  `json:"processes,omitempty"`
}

type jsonDesign struct {
	Creator    string                 `json:"creator,omitempty"`
	Modules    map[string]*jsonModule `json:"modules"`
	Scratchpad map[string]string      `json:"scratchpad,omitempty"`
	AutoIdx    int                    `json:"autoidx,omitempty"`
}

// ReadJSONFile reads a design from a JSON netlist file
func ReadJSONFile(filename string) (*Design, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadJSON(file)
}

// ReadJSON reads a design in the JSON netlist format. Netnames sharing a net
// number become module connections, so aliases survive as SigMap classes.
// Ports, cells and netnames are processed in name order.
func ReadJSON(r io.Reader) (*Design, error) {
	var jd jsonDesign
	if err := json.NewDecoder(r).Decode(&jd); err != nil {
		return nil, errors.Wrap(err, "decoding JSON netlist")
	}

	d := NewDesign()
	for k, v := range jd.Scratchpad {
		d.Scratchpad[k] = v
	}
	if jd.AutoIdx > d.autoidx {
		d.autoidx = jd.AutoIdx
	}

	for _, name := range sortedKeys(jd.Modules) {
		m, err := readModule(name, jd.Modules[name])
		if err != nil {
			return nil, errors.Wrapf(err, "module %s", name)
		}
		if err := d.AddModule(m); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func readModule(name string, jm *jsonModule) (*Module, error) {
	m := NewModule(name)
	for k, v := range jm.Attributes {
		m.Attributes[k] = v
	}
	m.Processes = jm.Processes

	owner := make(map[int]SigBit)
	attach := func(w *Wire, bits []jsonBit) {
		for i, jb := range bits {
			if i >= w.Width {
				break
			}
			if jb.Net == 0 {
				m.ConnectBit(w.Bit(i), Const(jb.Const))
				continue
			}
			if o, ok := owner[jb.Net]; ok {
				m.ConnectBit(w.Bit(i), o)
				continue
			}
			owner[jb.Net] = w.Bit(i)
		}
	}

	// Ports first so that port wires own their nets
	portID := 0
	for _, pname := range sortedKeys(jm.Ports) {
		jp := jm.Ports[pname]
		w, err := m.AddWire(pname, len(jp.Bits))
		if err != nil {
			return nil, err
		}
		portID++
		w.PortID = portID
		switch ParsePortDir(jp.Direction) {
		case DirInput:
			w.PortInput = true
		case DirOutput:
			w.PortOutput = true
		case DirInOut:
			w.PortInput, w.PortOutput = true, true
		}
		attach(w, jp.Bits)
	}

	for _, nname := range sortedKeys(jm.Netnames) {
		jn := jm.Netnames[nname]
		w := m.Wire(nname)
		if w == nil {
			var err error
			if w, err = m.AddWire(nname, len(jn.Bits)); err != nil {
				return nil, err
			}
			attach(w, jn.Bits)
		}
		for k, v := range jn.Attributes {
			w.SetAttribute(k, v)
		}
	}

	for _, cname := range sortedKeys(jm.Cells) {
		jc := jm.Cells[cname]
		c, err := m.AddCell(cname, jc.Type)
		if err != nil {
			return nil, err
		}
		for k, v := range jc.Parameters {
			c.SetParam(k, v)
		}
		for k, v := range jc.Attributes {
			c.SetAttribute(k, v)
		}
		for port, dir := range jc.PortDirections {
			c.SetPortDir(port, ParsePortDir(dir))
		}
		for _, port := range sortedKeys(jc.Connections) {
			bits := jc.Connections[port]
			sig := make(SigSpec, len(bits))
			for i, jb := range bits {
				if jb.Net == 0 {
					sig[i] = Const(jb.Const)
					continue
				}
				o, ok := owner[jb.Net]
				if !ok {
					w, err := m.AddWire(fmt.Sprintf("$auto$net%d", jb.Net), 1)
					if err != nil {
						return nil, err
					}
					o = w.Bit(0)
					owner[jb.Net] = o
				}
				sig[i] = o
			}
			c.SetPort(port, sig)
		}
	}
	return m, nil
}

// WriteJSONFile writes a design to a JSON netlist file
func WriteJSONFile(filename string, d *Design) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteJSON(file, d); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteJSON writes a design in the JSON netlist format. Module connections
// are folded into shared net numbers.
func WriteJSON(w io.Writer, d *Design) error {
	jd := jsonDesign{
		Creator:    "logicmap",
		Modules:    make(map[string]*jsonModule),
		Scratchpad: d.Scratchpad,
		AutoIdx:    d.autoidx,
	}
	for _, m := range d.Modules() {
		jd.Modules[m.Name] = writeModule(m)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(&jd), "encoding JSON netlist")
}

func writeModule(m *Module) *jsonModule {
	sigmap := NewSigMap(m)
	nets := make(map[SigBit]int)
	nextNet := 2

	encode := func(sig SigSpec) []jsonBit {
		bits := make([]jsonBit, len(sig))
		for i, b := range sig {
			b = sigmap.Apply(b)
			if b.IsConst() {
				bits[i] = jsonBit{Const: b.Data}
				continue
			}
			n, ok := nets[b]
			if !ok {
				n = nextNet
				nets[b] = n
				nextNet++
			}
			bits[i] = jsonBit{Net: n}
		}
		return bits
	}

	jm := &jsonModule{
		Attributes: m.Attributes,
		Ports:      make(map[string]*jsonPort),
		Cells:      make(map[string]*jsonCell),
		Netnames:   make(map[string]*jsonNet),
		Processes:  m.Processes,
	}

	for _, w := range m.Ports() {
		dir := DirInput
		switch {
		case w.PortInput && w.PortOutput:
			dir = DirInOut
		case w.PortOutput:
			dir = DirOutput
		}
		jm.Ports[w.Name] = &jsonPort{Direction: dir.String(), Bits: encode(w.Bits())}
	}

	for _, w := range m.Wires() {
		hide := 0
		if !w.IsPublic() {
			hide = 1
		}
		jm.Netnames[w.Name] = &jsonNet{HideName: hide, Bits: encode(w.Bits()), Attributes: w.Attributes}
	}

	ct := NewCellTypes()
	for _, c := range m.Cells() {
		hide := 0
		if !IsPublicName(c.Name) {
			hide = 1
		}
		jc := &jsonCell{
			HideName:       hide,
			Type:           c.Type,
			Parameters:     c.Parameters,
			Attributes:     c.Attributes,
			PortDirections: make(map[string]string),
			Connections:    make(map[string][]jsonBit),
		}
		dirs := ct.Directions(c.Type)
		for _, p := range c.Connections() {
			jc.Connections[p.Name] = encode(p.Sig)
			dir := c.PortDir(p.Name)
			if d, ok := dirs[p.Name]; ok {
				dir = d
			}
			if dir != DirUnknown {
				jc.PortDirections[p.Name] = dir.String()
			}
		}
		jm.Cells[c.Name] = jc
	}
	return jm
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
