package frp

import "github.com/gofrp/frp/internal"

// Map applies f to every value fired on source, one output per input.
func Map[A, B any](source *Stream[A], f func(A) B) *Stream[B] {
	var out *internal.Stream
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		out = internal.Map(tx.tx, source.s, func(v any) any { return f(as[A](v)) })
	})
	return &Stream[B]{s: out}
}

// Filter keeps only the values for which pred returns true: zero or one
// output per input.
func Filter[T any](source *Stream[T], pred func(T) bool) *Stream[T] {
	var out *internal.Stream
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		out = internal.Filter(tx.tx, source.s, func(v any) bool { return pred(as[T](v)) })
	})
	return &Stream[T]{s: out}
}

// Merge outputs one value per transaction; if both left and right fire
// within the same transaction, combine(left, right) is called once,
// after coalescing, in the Last phase.
func Merge[T any](left, right *Stream[T], combine func(l, r T) T) *Stream[T] {
	var out *internal.Stream
	withTransaction(&Engine{engine: left.s.Engine()}, func(tx *Transaction) {
		out = internal.Merge(tx.tx, left.s, right.s, func(l, r any) any {
			return combine(as[T](l), as[T](r))
		})
	})
	return &Stream[T]{s: out}
}

// Coalesce reduces every firing of source within one transaction to a
// single output, folded with f(old, new) and emitted once the
// transaction settles.
func Coalesce[T any](source *Stream[T], f func(old, new T) T) *Stream[T] {
	var out *internal.Stream
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		out = internal.Coalesce(tx.tx, source.s, func(o, n any) any {
			return f(as[T](o), as[T](n))
		})
	})
	return &Stream[T]{s: out}
}

// Snapshot fires once per value on source, combined with cell's
// pre-transaction sample.
func Snapshot[T, C, R any](source *Stream[T], cell *Cell[C], f func(value T, cellValue C) R) *Stream[R] {
	var out *internal.Stream
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		out = internal.Snapshot(tx.tx, source.s, cell.c, func(v, cv any) any {
			return f(as[T](v), as[C](cv))
		})
	})
	return &Stream[R]{s: out}
}

// Hold builds a cell that takes the value of initial until source's
// first firing, then tracks source's most recently fired value.
func Hold[T any](initial T, source *Stream[T]) *Cell[T] {
	var cell *internal.Cell
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		cell = internal.Hold(tx.tx, initial, source.s)
	})
	return &Cell[T]{c: cell}
}

// LazyHold is Hold with the initial value computed lazily, on first
// Sample rather than at construction time.
func LazyHold[T any](initFn func() T, source *Stream[T]) *Cell[T] {
	var cell *internal.Cell
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		cell = internal.LazyHold(tx.tx, func() any { return initFn() }, source.s)
	})
	return &Cell[T]{c: cell}
}

// Accum builds a self-referential cell: each firing of source folds into
// the running value via f(acc, value).
func Accum[T, S any](source *Stream[T], initial S, f func(acc S, value T) S) *Cell[S] {
	var cell *internal.Cell
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		cell = internal.Accum(tx.tx, tx.engine.engine, initial, source.s, func(acc, v any) any {
			return f(as[S](acc), as[T](v))
		})
	})
	return &Cell[S]{c: cell}
}

// Collect is Accum's stream-producing counterpart: f returns both the
// value to emit on the output stream and the new hidden state.
func Collect[T, S, O any](source *Stream[T], initial S, f func(value T, state S) (output O, newState S)) *Stream[O] {
	var out *internal.Stream
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		out = internal.Collect(tx.tx, tx.engine.engine, source.s, initial, func(v, s any) (any, any) {
			o, ns := f(as[T](v), as[S](s))
			return o, ns
		})
	})
	return &Stream[O]{s: out}
}

// Once delivers only source's first firing, then unlinks itself in the
// same transaction.
func Once[T any](source *Stream[T]) *Stream[T] {
	var out *internal.Stream
	withTransaction(&Engine{engine: source.s.Engine()}, func(tx *Transaction) {
		out = internal.Once(tx.tx, source.s)
	})
	return &Stream[T]{s: out}
}

// LiftCell2 combines two cells' current values into a derived cell
// without going through a user-visible stream; a transaction in which
// both a and b change yields a single f(newA, newB) rather than two
// separate updates.
func LiftCell2[A, B, R any](a *Cell[A], b *Cell[B], f func(A, B) R) *Cell[R] {
	var cell *internal.Cell
	withTransaction(&Engine{engine: a.c.Engine()}, func(tx *Transaction) {
		cell = internal.LiftCell2(tx.tx, a.c, b.c, func(av, bv any) any {
			return f(as[A](av), as[B](bv))
		})
	})
	return &Cell[R]{c: cell}
}
