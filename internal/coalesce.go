package internal

import "sync"

// Coalescer implements the reduce-multiple-firings-to-one policy of
// spec.md §4.3 ("Coalescing"): on the first firing seen in a transaction
// it defers a single emit to the Last phase; every subsequent firing in
// that same transaction is folded into the pending value with combine
// instead of producing a second emit. Used by Coalesce (C8) and by every
// Cell's backing-stream subscription (C6, invariant C2: "the backing
// stream... produce[s] at most one firing per transaction").
type Coalescer struct {
	mu        sync.Mutex
	hasPending bool
	pending   any
	combine   func(old, new any) any
	emit      func(tx *Transaction, value any)
}

func NewCoalescer(combine func(old, new any) any, emit func(tx *Transaction, value any)) *Coalescer {
	return &Coalescer{combine: combine, emit: emit}
}

// Fire folds value into the transaction's pending coalesced value,
// scheduling the deferred emit the first time it is called within a
// transaction.
func (c *Coalescer) Fire(tx *Transaction, value any) {
	c.mu.Lock()
	if !c.hasPending {
		c.hasPending = true
		c.pending = value
		c.mu.Unlock()

		tx.Last(func(tx *Transaction) {
			c.mu.Lock()
			v := c.pending
			c.hasPending = false
			c.pending = nil
			c.mu.Unlock()

			c.emit(tx, v)
		})
		return
	}

	c.pending = c.combine(c.pending, value)
	c.mu.Unlock()
}
