package internal

import "sync"

// StreamLoop is a forward-reference placeholder stream (spec.md §4.7,
// C7): it can be read from (built into a cell, merged, mapped) before its
// defining stream exists, so long as Loop is called with that definition
// before the enclosing outermost transaction closes. Grounded on the
// teacher's two-phase Computed dependency wiring (declare, then compute),
// generalized here to a push edge installed after the fact instead of a
// pull dependency discovered during a read.
type StreamLoop struct {
	engine      *Engine
	id          uint64
	placeholder *Stream

	mu    sync.Mutex
	bound bool
}

// NewStreamLoop allocates the placeholder and registers it with tx as
// unresolved; RunTransaction's outermost frame returns ErrLoopNotClosed
// if Loop is never called (invariant P1).
func NewStreamLoop(tx *Transaction, engine *Engine) *StreamLoop {
	id := engine.nextLoopID()
	tx.RegisterLoop(id, "StreamLoop")
	return &StreamLoop{
		engine:      engine,
		id:          id,
		placeholder: NewStream(engine),
	}
}

// Placeholder returns the stream usable immediately as an input to any
// combinator, ahead of Loop being called.
func (l *StreamLoop) Placeholder() *Stream { return l.placeholder }

// Loop binds definition as the placeholder's real source: every firing of
// definition is forwarded into the placeholder (spec.md §4.7). Calling
// Loop a second time on the same StreamLoop is ErrDoubleLoop; the
// placeholder's rank is bumped above definition's the same way
// any other Link would, so a cycle that never actually reduces rank still
// trips CycleDetected via regenerateRank's step bound.
func (l *StreamLoop) Loop(tx *Transaction, definition *Stream) error {
	l.mu.Lock()
	if l.bound {
		l.mu.Unlock()
		return ErrDoubleLoop
	}
	l.bound = true
	l.mu.Unlock()

	definition.listenInto(tx, l.placeholder.node, func(tx *Transaction, v any) {
		l.placeholder.fire(tx, v)
	}, true)

	tx.ResolveLoop(l.id)
	return nil
}

// CellLoop is a forward-reference cell: a StreamLoop held into a cell up
// front, so the cell can be sampled or snapshotted before the stream of
// updates that will eventually feed it is known (spec.md §4.7).
type CellLoop struct {
	stream *StreamLoop
	cell   *Cell
}

func NewCellLoop(tx *Transaction, engine *Engine, initial any) *CellLoop {
	stream := NewStreamLoop(tx, engine)
	cell := NewCell(tx, engine, initial, stream.placeholder, lastWins)
	return &CellLoop{stream: stream, cell: cell}
}

func (l *CellLoop) Cell() *Cell { return l.cell }

// Loop binds definitionUpdates (typically another cell's Updates()
// stream) as the source of this loop's values.
func (l *CellLoop) Loop(tx *Transaction, definitionUpdates *Stream) error {
	return l.stream.Loop(tx, definitionUpdates)
}
