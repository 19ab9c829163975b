package internal

import (
	"math"
	"sync/atomic"
)

// maxRegenSteps bounds the breadth-first rank regeneration walk. A true
// topological cycle (one not broken by a loop boundary, see loop.go) would
// make the walk visit nodes forever; this is the CycleDetected backstop
// from spec.md §4.1.
const maxRegenSteps = 1 << 20

const maxRank = math.MaxInt32

var targetSeq atomic.Uint64

func nextTargetID() uint64 { return targetSeq.Add(1) }

// Action runs when a firing reaches a downstream node during propagation
// (C1/C5). It is bound to a transaction so it can enqueue further work,
// register last/post callbacks, or read the in-callback guard.
type Action func(tx *Transaction, value any)

// Node is a propagation vertex identified by pointer identity (spec.md
// §3, Node). Its rank and outgoing targets are mutated only while the
// owning Engine's transaction lock is held, so Node carries no lock of
// its own — see transaction.go for the discipline.
type Node struct {
	rank    uint64
	targets []*NodeTarget
}

// NodeTarget is an edge: (source, downstream, action, id). Equality is by
// id (spec.md §3, NodeTarget).
type NodeTarget struct {
	id         uint64
	source     *Node
	downstream *Node
	action     Action
}

func (t *NodeTarget) Downstream() *Node { return t.downstream }
func (t *NodeTarget) ID() uint64        { return t.id }

func NewNode() *Node { return &Node{} }

func (n *Node) Rank() uint64 { return n.rank }

// Targets returns a snapshot of outgoing edges (C1's getListeners).
func (n *Node) Targets() []*NodeTarget {
	out := make([]*NodeTarget, len(n.targets))
	copy(out, n.targets)
	return out
}

// Link inserts an edge from source to downstream. If rank(source) >=
// rank(downstream), it performs a rank regeneration so invariant R1 holds
// again, and reports bumped=true so the caller's transaction knows to
// resort its priority queue (spec.md §4.1).
func Link(source, downstream *Node, action Action) (bumped bool, target *NodeTarget) {
	target = &NodeTarget{
		id:         nextTargetID(),
		source:     source,
		downstream: downstream,
		action:     action,
	}
	source.targets = append(source.targets, target)

	if source.rank >= downstream.rank {
		regenerateRank(downstream, source.rank+1)
		bumped = true
	}

	return bumped, target
}

// Unlink removes an edge. Ranks are never decremented: they are
// monotonically non-decreasing, which is safe because R1 is preserved and
// rank is used only for ordering, never for deciding which events are
// delivered (spec.md §4.1).
func Unlink(target *NodeTarget) {
	src := target.source
	for i, t := range src.targets {
		if t.id == target.id {
			src.targets = append(src.targets[:i], src.targets[i+1:]...)
			return
		}
	}
}

type regenWork struct {
	node *Node
	rank uint64
}

// regenerateRank bumps n's rank to at least rank and recursively
// propagates the increment to all descendants until R1 (rank(u) <
// rank(v) for every edge u->v) holds again.
func regenerateRank(n *Node, rank uint64) {
	if rank > maxRank {
		panic(RankOverflowError{})
	}

	queue := []regenWork{{n, rank}}
	steps := 0

	for len(queue) > 0 {
		steps++
		if steps > maxRegenSteps {
			panic(CycleDetectedError{})
		}

		work := queue[0]
		queue = queue[1:]

		if work.rank <= work.node.rank {
			continue
		}
		if work.rank > maxRank {
			panic(RankOverflowError{})
		}

		work.node.rank = work.rank

		for _, t := range work.node.targets {
			queue = append(queue, regenWork{t.downstream, work.node.rank + 1})
		}
	}
}
