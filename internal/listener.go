package internal

import "sync"

// Listener is an explicit handle with one operation, Unlisten, idempotent
// (spec.md §3, Listener; invariant L1). Strong listeners are additionally
// kept alive by the owning Engine's process-wide keep-alive set; weak
// listeners are not, but the owning Stream's retention set and the edge's
// action still hold them — either way, unlistening is explicit, per the
// design note in spec.md §9
// that rejects relying on a tracing collector to prune dead listeners.
type Listener struct {
	engine *Engine
	target *NodeTarget
	strong bool

	mu   sync.Mutex
	done bool

	onUnlisten func()
}

// NewListener wraps target (an edge already installed by Link) in a
// Listener handle. onUnlisten is called once, synchronously, the first
// time Unlisten runs — used by Stream to drop the listener from its
// retention set.
func NewListener(engine *Engine, target *NodeTarget, strong bool, onUnlisten func()) *Listener {
	l := &Listener{
		engine:     engine,
		target:     target,
		strong:     strong,
		onUnlisten: onUnlisten,
	}
	if strong {
		engine.Retain(l)
	}
	return l
}

// Unlisten removes the edge and releases retention. Idempotent: a second
// or later call is a no-op (L1). Safe to call from any goroutine: the
// edge-set mutation is deferred to the Post phase of a RunTransaction
// call, so it joins whatever transaction is already open on this
// goroutine (the "unlisten during send" case, spec.md §4.3 — deferring
// past the rest of that transaction's Propagating/Last rounds rather
// than mutating Node.targets out from under an in-flight one) or blocks
// on the transaction lock and opens a fresh one otherwise. Either way
// Node.targets is mutated only under the transaction lock, and only
// after RunTransaction has returned does the caller see the edge gone
// (spec.md §5).
func (l *Listener) Unlisten() {
	l.mu.Lock()
	if l.done {
		l.mu.Unlock()
		return
	}
	l.done = true
	l.mu.Unlock()

	l.engine.RunTransaction(func(tx *Transaction) error {
		tx.Post(func(*Transaction) {
			Unlink(l.target)
		})
		return nil
	})

	if l.onUnlisten != nil {
		l.onUnlisten()
	}
	if l.strong {
		l.engine.Release(l)
	}
}

// IsDone reports whether Unlisten has already run. Consulted by a
// dispatch-time check inside every action wrapped around a user handler,
// so that an item already sitting in the priority queue when Unlisten
// runs is filtered rather than delivered (L1).
func (l *Listener) IsDone() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
