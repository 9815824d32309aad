package search

import (
	"container/heap"

	"github.com/cory-johannsen/spellduel/internal/game/duel"
	"github.com/cory-johannsen/spellduel/internal/game/spell"
)

// node is one partial spell sequence, positioned at the start of a player half-turn.
type node struct {
	duel   *duel.Duel
	spells []spell.Name
	seq    int // insertion order, the final tie-break
}

func (n *node) spent() int { return n.duel.ManaSpent() }

// frontier is a min-heap of nodes ordered by mana spent, then by sequence
// length, then by insertion order.
type frontier []*node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	a, b := f[i], f[j]
	if a.spent() != b.spent() {
		return a.spent() < b.spent()
	}
	if len(a.spells) != len(b.spells) {
		return len(a.spells) < len(b.spells)
	}
	return a.seq < b.seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(*node)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}

// queue wraps frontier with typed push/pop.
type queue struct {
	f    frontier
	next int
}

func (q *queue) push(n *node) {
	n.seq = q.next
	q.next++
	heap.Push(&q.f, n)
}

func (q *queue) pop() *node { return heap.Pop(&q.f).(*node) }

func (q *queue) len() int { return q.f.Len() }
