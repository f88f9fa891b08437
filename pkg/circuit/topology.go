package circuit

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logicmap/pkg/netlist"
)

// CycleBreaker cuts combinational feedback so the exported network is
// acyclic. It follows Kahn's topological sort; whenever the ready set runs
// dry with edges left, one node on a loop is promoted to a boundary output
// and its consumers are rewired to a fresh boundary input.
type CycleBreaker struct {
	s *Session
}

// NewCycleBreaker creates a cycle breaker for the session
func NewCycleBreaker(s *Session) *CycleBreaker {
	return &CycleBreaker{s: s}
}

// Break removes every feedback loop and returns the number of cuts
func (cb *CycleBreaker) Break() (int, error) {
	s := cb.s
	g := s.Graph

	edges := make(map[int]map[int]bool)
	inCount := make([]int, g.Len())
	pool := &idHeap{}

	for _, gate := range g.Gates {
		if gate.Type == None || gate.Type == FF {
			heap.Push(pool, gate.ID)
			continue
		}
		for _, in := range gate.uniqueInputs() {
			if edges[in] == nil {
				edges[in] = make(map[int]bool)
			}
			edges[in][gate.ID] = true
			inCount[gate.ID]++
		}
	}

	breaks := 0
	for {
		for pool.Len() > 0 {
			id := heap.Pop(pool).(int)
			for id2 := range edges[id] {
				if inCount[id2]--; inCount[id2] == 0 {
					heap.Push(pool, id2)
				}
			}
			delete(edges, id)
		}

		if len(edges) == 0 {
			break
		}

		id1 := cb.selectCandidate(edges)
		if len(edges[id1]) == 0 {
			delete(edges, id1)
			continue
		}

		id3, err := cb.cut(id1, edges[id1])
		if err != nil {
			return breaks, err
		}
		inCount = append(inCount, 0)
		heap.Push(pool, id3)

		edges[id3] = edges[id1]
		delete(edges, id1)
		breaks++
	}
	return breaks, nil
}

// selectCandidate picks the loop node to cut among the remaining edge
// sources: a wire beats a constant, a user name beats a generated one, more
// outstanding edges win, then the smaller (name, offset)
func (cb *CycleBreaker) selectCandidate(edges map[int]map[int]bool) int {
	g := cb.s.Graph
	ids := make([]int, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	id1 := ids[0]
	for _, id2 := range ids {
		b1, b2 := g.Gates[id1].Bit, g.Gates[id2].Bit
		switch {
		case b1.IsConst():
			id1 = id2
		case b2.IsConst():
		case !b1.Wire.IsPublic() && b2.Wire.IsPublic():
			id1 = id2
		case b1.Wire.IsPublic() && !b2.Wire.IsPublic():
		case len(edges[id1]) < len(edges[id2]):
			id1 = id2
		case len(edges[id1]) > len(edges[id2]):
		case b2.Less(b1):
			id1 = id2
		}
	}
	return id1
}

// cut creates the $abcloop$ signal for node id1 and rewires its consumers
func (cb *CycleBreaker) cut(id1 int, consumers map[int]bool) (int, error) {
	s := cb.s
	g := s.Graph
	broken := g.Gates[id1]
	if broken.Bit.IsConst() {
		return -1, errors.Errorf("loop through constant node %s", broken)
	}

	name := fmt.Sprintf("$abcloop$%d", s.Design.NextAutoIdx())
	wire, err := s.Module.AddWire(name, 1)
	if err != nil {
		return -1, errors.Wrap(err, "creating loop break signal")
	}

	ids := make([]int, 0, len(consumers))
	for id := range consumers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	pad := strings.Repeat(" ", len("Breaking loop using new signal ")+len(name))
	for i, id2 := range ids {
		if i == 0 {
			s.Logger.Info("Breaking loop using new signal %s: %s -> %s", name, broken.Bit, g.Gates[id2].Bit)
		} else {
			s.Logger.Info("%s  %s -> %s", pad, broken.Bit, g.Gates[id2].Bit)
		}
	}

	id3 := g.MapSignal(wire.Bit(0), netlist.Sx, None)
	broken.IsPort = true
	g.Gates[id3].IsPort = true

	for _, id2 := range ids {
		gate := g.Gates[id2]
		for i, in := range gate.Inputs {
			if in == id1 {
				gate.Inputs[i] = id3
			}
		}
	}

	s.Module.ConnectBit(wire.Bit(0), broken.Bit)
	s.Breaks = append(s.Breaks, LoopBreak{Wire: wire, Broken: id1, Signal: id3})
	return id3, nil
}

// idHeap is a min-heap of node ids
type idHeap []int

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *idHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Topology contains structural information about the gate graph
type Topology struct {
	Graph    *Graph
	Levels   []int   // Logic depth per node, -1 when undetermined
	MaxLevel int     // Maximum level in the graph
	Fanouts  [][]int // Consumers per node
}

// NewTopology creates a new topology analyzer for the given graph
func NewTopology(g *Graph) *Topology {
	return &Topology{Graph: g}
}

// Analyze computes fanouts and levels
func (t *Topology) Analyze() {
	t.ComputeFanouts()
	t.ComputeLevels()
}

// ComputeFanouts records the consumers of every node
func (t *Topology) ComputeFanouts() {
	t.Fanouts = make([][]int, t.Graph.Len())
	for _, gate := range t.Graph.Gates {
		for _, in := range gate.uniqueInputs() {
			t.Fanouts[in] = append(t.Fanouts[in], gate.ID)
		}
	}
}

// ComputeLevels assigns a level to each node.
// Terminals and registers are level 0, and levels increase toward outputs.
func (t *Topology) ComputeLevels() {
	g := t.Graph
	t.Levels = make([]int, g.Len())
	t.MaxLevel = 0
	for i, gate := range g.Gates {
		if gate.Type == None || gate.Type == FF {
			t.Levels[i] = 0
		} else {
			t.Levels[i] = -1
		}
	}

	// Keep processing gates until no level changes
	changed := true
	for changed {
		changed = false

		for _, gate := range g.Gates {
			if t.Levels[gate.ID] >= 0 {
				continue
			}

			// Check if all inputs have levels
			maxInputLevel := -1
			allInputsHaveLevels := true
			for _, in := range gate.InputIDs() {
				if t.Levels[in] < 0 {
					allInputsHaveLevels = false
					break
				}
				if t.Levels[in] > maxInputLevel {
					maxInputLevel = t.Levels[in]
				}
			}

			if allInputsHaveLevels {
				t.Levels[gate.ID] = maxInputLevel + 1
				if maxInputLevel+1 > t.MaxLevel {
					t.MaxLevel = maxInputLevel + 1
				}
				changed = true
			}
		}
	}
}

// IsAcyclic returns true if every node received a level
func (t *Topology) IsAcyclic() bool {
	for _, level := range t.Levels {
		if level < 0 {
			return false
		}
	}
	return true
}

// FindPathBetween finds a combinational path between two nodes if one exists
func (t *Topology) FindPathBetween(start, end int) []int {
	if t.Fanouts == nil {
		t.ComputeFanouts()
	}

	// Simple BFS to find path
	visited := make(map[int]bool)
	queue := [][]int{{start}}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		current := path[len(path)-1]
		if current == end && len(path) > 1 {
			return path
		}

		if visited[current] {
			continue
		}
		visited[current] = true

		for _, next := range t.Fanouts[current] {
			if next != end && visited[next] {
				continue
			}
			if g := t.Graph.Gates[next]; g.Type == FF {
				continue
			}
			newPath := make([]int, len(path))
			copy(newPath, path)
			newPath = append(newPath, next)
			queue = append(queue, newPath)
		}
	}

	return nil
}
