package frp

import "github.com/gofrp/frp/internal"

// StreamLoop is a forward-reference placeholder: it can be read from
// (mapped, merged, held) before its defining stream exists, as long as
// Loop is called with that definition before the transaction it was
// created in closes (invariant P1; otherwise the transaction fails with
// ErrLoopNotClosed).
type StreamLoop[T any] struct {
	loop *internal.StreamLoop
}

// NewStreamLoop allocates a placeholder stream within tx.
func NewStreamLoop[T any](tx *Transaction) *StreamLoop[T] {
	return &StreamLoop[T]{loop: internal.NewStreamLoop(tx.tx, tx.engine.engine)}
}

// Stream returns the placeholder, usable immediately as input to any
// combinator.
func (l *StreamLoop[T]) Stream() *Stream[T] { return &Stream[T]{s: l.loop.Placeholder()} }

// Loop binds definition as the placeholder's real source. Calling Loop
// twice on the same StreamLoop is ErrDoubleLoop.
func (l *StreamLoop[T]) Loop(tx *Transaction, definition *Stream[T]) error {
	return l.loop.Loop(tx.tx, definition.s)
}

// CellLoop is a forward-reference cell: a StreamLoop already held into a
// cell, so the cell can be sampled or snapshotted before the stream of
// updates that will eventually feed it is known. Invariant P2: the
// defining stream must not itself sample this loop's cell.
type CellLoop[T any] struct {
	loop *internal.CellLoop
}

// NewCellLoop allocates a forward-reference cell within tx with the
// given initial value.
func NewCellLoop[T any](tx *Transaction, initial T) *CellLoop[T] {
	return &CellLoop[T]{loop: internal.NewCellLoop(tx.tx, tx.engine.engine, initial)}
}

// Cell returns the placeholder cell.
func (l *CellLoop[T]) Cell() *Cell[T] { return &Cell[T]{c: l.loop.Cell()} }

// Loop binds definitionUpdates — typically another cell's Updates()
// stream — as the source of this loop's values.
func (l *CellLoop[T]) Loop(tx *Transaction, definitionUpdates *Stream[T]) error {
	return l.loop.Loop(tx.tx, definitionUpdates.s)
}
