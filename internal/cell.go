package internal

import "sync"

// Cell is the push analogue of the teacher's Computed (internal/computed.go)
// with the direction of data flow reversed: a Computed pulls by calling
// compute() on read, a Cell pushes by having its backing stream call in
// and stash nextValue, with value<-nextValue happening in the Last phase
// exactly like Signal.Commit (spec.md §3 C2, §4.6).
type Cell struct {
	engine *Engine

	mu          sync.Mutex
	value       any
	nextValue   any
	hasNext     bool
	initialized bool
	initFn      func() any // non-nil only for a lazy cell

	updates  *Stream // coalesced backing stream, exposed via Updates()
	listener *Listener
}

// NewCell builds a cell with an eager initial value, subscribed to
// source's coalesced firings combined with combine (spec.md §4.6, §4.3
// invariant C2: at most one firing per transaction reaches the cell).
func NewCell(tx *Transaction, engine *Engine, initial any, source *Stream, combine func(old, new any) any) *Cell {
	c := &Cell{
		engine:      engine,
		value:       initial,
		initialized: true,
	}
	c.wireUpdates(tx, source, combine)
	return c
}

// NewLazyCell defers evaluation of the initial value until the first
// Sample, matching the teacher's Computed.initialized deferred-compute
// flag.
func NewLazyCell(tx *Transaction, engine *Engine, initFn func() any, source *Stream, combine func(old, new any) any) *Cell {
	c := &Cell{
		engine: engine,
		initFn: initFn,
	}
	c.wireUpdates(tx, source, combine)
	return c
}

func (c *Cell) wireUpdates(tx *Transaction, source *Stream, combine func(old, new any) any) {
	c.updates = NewSuppressedStream(c.engine)

	coalescer := NewCoalescer(combine, func(tx *Transaction, v any) {
		c.mu.Lock()
		c.nextValue = v
		c.hasNext = true
		c.mu.Unlock()

		c.updates.fire(tx, v)

		tx.Last(func(*Transaction) {
			c.mu.Lock()
			if c.hasNext {
				c.value = c.nextValue
				c.nextValue = nil
				c.hasNext = false
				c.initialized = true
			}
			c.mu.Unlock()
		})
	})

	c.listener = source.listenInto(tx, c.updates.node, func(tx *Transaction, v any) {
		coalescer.Fire(tx, v)
	}, true)
}

// Sample returns the pre-transaction value (spec.md §4.6, invariant C1):
// a new value from the backing stream becomes visible only after the
// transaction's Last phase has run.
func (c *Cell) Sample() any {
	c.mu.Lock()
	initialized := c.initialized
	fn := c.initFn
	c.mu.Unlock()

	if !initialized {
		v := fn()
		c.mu.Lock()
		if !c.initialized {
			c.value = v
			c.initialized = true
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Updates returns the cell's coalesced backing stream (the supplemented
// ".updates" accessor, SPEC_FULL.md §4).
func (c *Cell) Updates() *Stream { return c.updates }

// Engine returns the engine this cell was built against.
func (c *Cell) Engine() *Engine { return c.engine }

// Dispose unlinks the cell's internal subscription to its backing
// stream.
func (c *Cell) Dispose() {
	if c.listener != nil {
		c.listener.Unlisten()
	}
}
