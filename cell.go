package frp

import "github.com/gofrp/frp/internal"

// Cell is a time-varying value with exactly one observable value per
// transaction, visible through Sample.
type Cell[T any] struct {
	c *internal.Cell
}

// Sample returns the cell's pre-transaction value (spec §3 invariant
// C1): a value fired on the backing stream during the current
// transaction is not visible until the next one.
func (c *Cell[T]) Sample() T { return as[T](c.c.Sample()) }

// Updates returns the cell's coalesced backing stream, firing at most
// once per transaction.
func (c *Cell[T]) Updates() *Stream[T] { return &Stream[T]{s: c.c.Updates()} }

// Engine returns the engine this cell belongs to.
func (c *Cell[T]) Engine() *Engine { return &Engine{engine: c.c.Engine()} }

// Dispose unlinks this cell's internal subscription to its backing
// stream.
func (c *Cell[T]) Dispose() { c.c.Dispose() }

// CellSink is a cell that external code can Send into directly, skipping
// the Hold(stream) step for the common case of a directly-driven cell
// (spec §6's "CellSink<T>.send(value)").
type CellSink[T any] struct {
	stream *Stream[T]
	cell   *Cell[T]
}

// NewCellSink creates a cell sink with the given initial value, opening
// its own transaction to wire the backing stream.
func (e *Engine) NewCellSink[T any](initial T) *CellSink[T] {
	stream := e.NewStreamSink[T]()
	cell := Hold(initial, stream)
	return &CellSink[T]{stream: stream, cell: cell}
}

// Send fires a new value into the sink's backing stream.
func (cs *CellSink[T]) Send(value T) error { return cs.stream.Send(value) }

// Sample returns the pre-transaction value, as Cell.Sample.
func (cs *CellSink[T]) Sample() T { return cs.cell.Sample() }

// Updates returns the coalesced backing stream, as Cell.Updates.
func (cs *CellSink[T]) Updates() *Stream[T] { return cs.cell.Updates() }

// Cell returns the underlying Cell, for passing to combinators that take
// a *Cell[T] (Snapshot, LiftCell2).
func (cs *CellSink[T]) Cell() *Cell[T] { return cs.cell }
