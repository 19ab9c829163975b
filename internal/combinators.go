package internal

import "sync"

// Map/Filter/Merge/Snapshot/Hold/Accum/Collect/Once implement the C8
// combinator surface (spec.md §4.8) directly over Stream/Cell/Link —
// each constructs an output whose node is linked to its input(s), the
// way spec.md §4.8 describes, mirroring how the teacher's sig.go wraps
// internal.Signal/internal.Computed with thin generic shims.

func Map(tx *Transaction, source *Stream, f func(any) any) *Stream {
	out := NewStream(source.engine)
	source.listenInto(tx, out.node, func(tx *Transaction, v any) {
		out.fire(tx, f(v))
	}, true)
	return out
}

func Filter(tx *Transaction, source *Stream, pred func(any) bool) *Stream {
	out := NewStream(source.engine)
	source.listenInto(tx, out.node, func(tx *Transaction, v any) {
		if pred(v) {
			out.fire(tx, v)
		}
	}, true)
	return out
}

// Merge coalesces simultaneous firings of left and right with combine,
// always in the fixed (left, right) argument order regardless of which
// side fired first within the transaction (spec.md §4.8: "combines with
// f(left, right)").
func Merge(tx *Transaction, left, right *Stream, combine func(l, r any) any) *Stream {
	out := NewSuppressedStream(left.engine)

	state := &mergeState{}

	schedule := func(tx *Transaction) {
		tx.Last(func(tx *Transaction) {
			state.mu.Lock()
			v := state.resolve(combine)
			state.reset()
			state.mu.Unlock()
			out.fire(tx, v)
		})
	}

	left.listenInto(tx, out.node, func(tx *Transaction, v any) {
		state.mu.Lock()
		first := state.empty()
		state.setLeft(v)
		state.mu.Unlock()
		if first {
			schedule(tx)
		}
	}, true)

	right.listenInto(tx, out.node, func(tx *Transaction, v any) {
		state.mu.Lock()
		first := state.empty()
		state.setRight(v)
		state.mu.Unlock()
		if first {
			schedule(tx)
		}
	}, true)

	return out
}

type mergeState struct {
	mu               sync.Mutex
	hasLeft, hasRight bool
	left, right      any
}

func (s *mergeState) empty() bool          { return !s.hasLeft && !s.hasRight }
func (s *mergeState) setLeft(v any)        { s.hasLeft, s.left = true, v }
func (s *mergeState) setRight(v any)       { s.hasRight, s.right = true, v }
func (s *mergeState) reset() {
	s.hasLeft, s.hasRight = false, false
	s.left, s.right = nil, nil
}
func (s *mergeState) resolve(combine func(l, r any) any) any {
	switch {
	case s.hasLeft && s.hasRight:
		return combine(s.left, s.right)
	case s.hasLeft:
		return s.left
	default:
		return s.right
	}
}

// Coalesce reduces every firing of source within one transaction to a
// single emit in the Last phase, folding with f(old, new) — the same
// policy a Cell's backing stream and Merge apply internally, exposed
// here as a standalone combinator over the shared Coalescer (spec.md
// §4.3's coalescing policy, §4.8's "coalesce(s, f)").
func Coalesce(tx *Transaction, source *Stream, f func(old, new any) any) *Stream {
	out := NewSuppressedStream(source.engine)

	coalescer := NewCoalescer(f, func(tx *Transaction, v any) {
		out.fire(tx, v)
	})

	source.listenInto(tx, out.node, func(tx *Transaction, v any) {
		coalescer.Fire(tx, v)
	}, true)

	return out
}

// Snapshot fires once per input firing, combining the fired value with
// cell's pre-transaction sample (spec.md §4.8, §3 C1).
func Snapshot(tx *Transaction, source *Stream, cell *Cell, f func(value, cellValue any) any) *Stream {
	out := NewStream(source.engine)
	source.listenInto(tx, out.node, func(tx *Transaction, v any) {
		out.fire(tx, f(v, cell.Sample()))
	}, true)
	return out
}

func lastWins(_, new any) any { return new }

// Hold builds a cell whose value is the most recently fired value of
// source, defaulting to initial until the first firing (spec.md §4.6).
func Hold(tx *Transaction, initial any, source *Stream) *Cell {
	return NewCell(tx, source.engine, initial, source, lastWins)
}

// LazyHold defers evaluating the initial value until the first Sample or
// propagation that requires it (SPEC_FULL.md §4, spec.md §4.6's "lazy
// cell").
func LazyHold(tx *Transaction, initFn func() any, source *Stream) *Cell {
	return NewLazyCell(tx, source.engine, initFn, source, lastWins)
}

// Accum builds a self-referential cell: each firing of source folds into
// the accumulator with f(acc, value), built via a StreamLoop exactly as
// spec.md §4.8 describes ("self-referential stream/cell built via a
// loop").
func Accum(tx *Transaction, engine *Engine, initial any, source *Stream, f func(acc, value any) any) *Cell {
	loop := NewStreamLoop(tx, engine)
	cell := NewCell(tx, engine, initial, loop.Placeholder(), lastWins)

	out := Snapshot(tx, source, cell, func(value, acc any) any {
		return f(acc, value)
	})

	if err := loop.Loop(tx, out); err != nil {
		panic(err) // loop is fresh and unbound; only DoubleLoop could fire, which is impossible here
	}

	return cell
}

type collected struct {
	output, state any
}

// Collect builds a stream of outputs while folding hidden state across
// firings of source, returning (output, newState) from f each time
// (spec.md §4.8's "collect(s0, f)").
func Collect(tx *Transaction, engine *Engine, source *Stream, initial any, f func(value, state any) (output, newState any)) *Stream {
	loop := NewStreamLoop(tx, engine)
	stateCell := NewCell(tx, engine, initial, loop.Placeholder(), lastWins)

	combined := Snapshot(tx, source, stateCell, func(value, state any) any {
		out, next := f(value, state)
		return collected{output: out, state: next}
	})

	stateUpdates := Map(tx, combined, func(v any) any { return v.(collected).state })
	outputs := Map(tx, combined, func(v any) any { return v.(collected).output })

	if err := loop.Loop(tx, stateUpdates); err != nil {
		panic(err)
	}

	return outputs
}

// Once unlinks itself, in the same transaction, immediately after
// delivering its first firing (spec.md §4.8).
func Once(tx *Transaction, source *Stream) *Stream {
	out := NewStream(source.engine)

	var listener *Listener
	listener = source.listenInto(tx, out.node, func(tx *Transaction, v any) {
		out.fire(tx, v)
		listener.Unlisten()
	}, true)

	return out
}

type liftPair struct {
	a, b       any
	freshA     bool
	freshB     bool
}

// LiftCell2 combines two cells' current values into a derived cell
// without routing through a user-visible stream, built from Map, Merge
// and a Cell over the merged output (SPEC_FULL.md §4). Unlike sampling
// each cell independently (which would lag a
// transaction behind whichever side just changed), it merges the two
// backing update streams directly so a transaction in which both a and b
// change still yields a single f(newA, newB).
func LiftCell2(tx *Transaction, a, b *Cell, f func(av, bv any) any) *Cell {
	fromA := Map(tx, a.Updates(), func(v any) any {
		return liftPair{a: v, freshA: true, b: b.Sample()}
	})
	fromB := Map(tx, b.Updates(), func(v any) any {
		return liftPair{b: v, freshB: true, a: a.Sample()}
	})

	merged := Merge(tx, fromA, fromB, func(l, r any) any {
		lp, rp := l.(liftPair), r.(liftPair)
		out := liftPair{}
		if lp.freshA {
			out.a = lp.a
		} else {
			out.a = rp.a
		}
		if lp.freshB {
			out.b = lp.b
		} else {
			out.b = rp.b
		}
		return out
	})

	outputs := Map(tx, merged, func(v any) any {
		p := v.(liftPair)
		return f(p.a, p.b)
	})

	return NewCell(tx, a.engine, f(a.Sample(), b.Sample()), outputs, lastWins)
}
