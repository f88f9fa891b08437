package partition

import (
	"container/heap"
	"sort"

	"github.com/fyerfyer/logicmap/pkg/circuit"
	"github.com/fyerfyer/logicmap/pkg/netlist"
	"github.com/fyerfyer/logicmap/pkg/utils"
)

// Partition is one clock domain and the cells assigned to it
type Partition struct {
	Key   circuit.DomainKey
	Cells []*netlist.Cell
}

// Partitioner splits the cells of a module into independent clock domains.
//
// Registers seed one partition per domain key. Partitions grow by one-hop
// expansion, alternating between a backward queue (inputs to driving cells)
// and a forward queue (outputs to consuming cells); cells reached either
// way continue the backward expansion only. A direction-agnostic flood fill
// over shared nets then absorbs the remaining connected cells, and anything
// left goes to the NoClock partition. First claim wins throughout. Cells are
// visited in input order and signals in canonical name order, so the result
// is reproducible.
type Partitioner struct {
	sigmap *netlist.SigMap
	ct     *netlist.CellTypes
	logger *utils.Logger

	cells    []*netlist.Cell
	cellBits [][]netlist.SigBit // All nets of a cell
	cellUp   [][]netlist.SigBit // Nets read by a cell
	cellDown [][]netlist.SigBit // Nets driven by a cell
	bitCells map[netlist.SigBit][]int
	bitUp    map[netlist.SigBit][]int // Drivers of a net
	bitDown  map[netlist.SigBit][]int // Consumers of a net

	owner []int // Partition index per cell, -1 when unassigned
	keys  []circuit.DomainKey
	parts [][]int
}

// NewPartitioner creates a partitioner using the given alias map
func NewPartitioner(sigmap *netlist.SigMap, logger *utils.Logger) *Partitioner {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Partitioner{
		sigmap: sigmap,
		ct:     netlist.NewCellTypes(),
		logger: logger,
	}
}

// Partition assigns every cell to exactly one domain. The result is ordered
// by key string; cells within a partition are in claim order.
func (p *Partitioner) Partition(cells []*netlist.Cell) []Partition {
	p.index(cells)

	up, down, flood := newQueue(), newQueue(), newQueue()
	nextUp, nextFlood := newQueue(), newQueue()

	for i, c := range cells {
		key, ok := circuit.RegisterKey(p.sigmap, c)
		if !ok {
			continue
		}
		p.claim(i, p.partitionFor(key))
		up.push(i)
		down.push(i)
		flood.push(i)
	}

	for up.Len() > 0 || down.Len() > 0 {
		if up.Len() > 0 {
			i := up.pop()
			for _, bit := range p.cellUp[i] {
				for _, c := range p.bitUp[bit] {
					if p.owner[c] < 0 {
						p.claim(c, p.owner[i])
						nextUp.push(c)
						flood.push(c)
					}
				}
			}
		}

		if down.Len() > 0 {
			i := down.pop()
			for _, bit := range p.cellDown[i] {
				for _, c := range p.bitDown[bit] {
					if p.owner[c] < 0 {
						p.claim(c, p.owner[i])
						nextUp.push(c)
						flood.push(c)
					}
				}
			}
		}

		if up.Len() == 0 && down.Len() == 0 {
			up, nextUp = nextUp, up
		}
	}

	for flood.Len() > 0 {
		i := flood.pop()
		for _, bit := range p.cellBits[i] {
			for _, c := range p.bitCells[bit] {
				if p.owner[c] < 0 {
					p.claim(c, p.owner[i])
					nextFlood.push(c)
				}
			}
			// Every cell on this net is now assigned
			delete(p.bitCells, bit)
		}
		if flood.Len() == 0 {
			flood, nextFlood = nextFlood, flood
		}
	}

	for i := range cells {
		if p.owner[i] < 0 {
			p.claim(i, p.partitionFor(circuit.NoClock))
		}
	}

	result := make([]Partition, len(p.keys))
	for k, key := range p.keys {
		part := Partition{Key: key, Cells: make([]*netlist.Cell, len(p.parts[k]))}
		for j, i := range p.parts[k] {
			part.Cells[j] = cells[i]
		}
		result[k] = part
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Key.String() < result[j].Key.String()
	})

	p.logger.Header("Summary of detected clock domains")
	for _, part := range result {
		p.logger.Info("  %d cells in %s", len(part.Cells), part.Key)
	}
	return result
}

func (p *Partitioner) index(cells []*netlist.Cell) {
	p.cells = cells
	p.cellBits = make([][]netlist.SigBit, len(cells))
	p.cellUp = make([][]netlist.SigBit, len(cells))
	p.cellDown = make([][]netlist.SigBit, len(cells))
	p.owner = make([]int, len(cells))
	p.keys = nil
	p.parts = nil

	bitCells := make(map[netlist.SigBit]map[int]bool)
	bitUp := make(map[netlist.SigBit]map[int]bool)
	bitDown := make(map[netlist.SigBit]map[int]bool)
	add := func(m map[netlist.SigBit]map[int]bool, bit netlist.SigBit, i int) {
		if m[bit] == nil {
			m[bit] = make(map[int]bool)
		}
		m[bit][i] = true
	}

	for i, c := range cells {
		p.owner[i] = -1
		all := make(map[netlist.SigBit]bool)
		ups := make(map[netlist.SigBit]bool)
		downs := make(map[netlist.SigBit]bool)

		for _, conn := range c.Connections() {
			isInput := p.ct.CellInput(c, conn.Name)
			isOutput := p.ct.CellOutput(c, conn.Name)
			for _, bit := range p.sigmap.ApplySpec(conn.Sig) {
				if bit.IsConst() {
					continue
				}
				all[bit] = true
				add(bitCells, bit, i)
				if isInput {
					ups[bit] = true
					add(bitDown, bit, i)
				}
				if isOutput {
					downs[bit] = true
					add(bitUp, bit, i)
				}
			}
		}
		p.cellBits[i] = sortedBits(all)
		p.cellUp[i] = sortedBits(ups)
		p.cellDown[i] = sortedBits(downs)
	}

	p.bitCells = sortedCells(bitCells)
	p.bitUp = sortedCells(bitUp)
	p.bitDown = sortedCells(bitDown)
}

func (p *Partitioner) partitionFor(key circuit.DomainKey) int {
	for k, existing := range p.keys {
		if existing.Equal(key) {
			return k
		}
	}
	p.keys = append(p.keys, key)
	p.parts = append(p.parts, nil)
	return len(p.keys) - 1
}

func (p *Partitioner) claim(cell, part int) {
	p.owner[cell] = part
	p.parts[part] = append(p.parts[part], cell)
}

func sortedBits(set map[netlist.SigBit]bool) []netlist.SigBit {
	bits := make([]netlist.SigBit, 0, len(set))
	for b := range set {
		bits = append(bits, b)
	}
	sort.Slice(bits, func(i, j int) bool {
		return bits[i].Less(bits[j])
	})
	return bits
}

func sortedCells(m map[netlist.SigBit]map[int]bool) map[netlist.SigBit][]int {
	out := make(map[netlist.SigBit][]int, len(m))
	for bit, set := range m {
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		out[bit] = ids
	}
	return out
}

// queue is a set of cell indices popped in ascending order
type queue struct {
	h    intHeap
	seen map[int]bool
}

func newQueue() *queue {
	return &queue{seen: make(map[int]bool)}
}

func (q *queue) Len() int {
	return q.h.Len()
}

func (q *queue) push(i int) {
	if q.seen[i] {
		return
	}
	q.seen[i] = true
	heap.Push(&q.h, i)
}

func (q *queue) pop() int {
	i := heap.Pop(&q.h).(int)
	delete(q.seen, i)
	return i
}

type intHeap []int

func (h intHeap) Len() int            { return len(h) }
func (h intHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
