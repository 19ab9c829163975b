package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

// TxState is one state of the transaction lifecycle (spec.md §4.3):
// Open -> Propagating -> Last -> Post -> Closed.
type TxState int

const (
	TxOpen TxState = iota
	TxPropagating
	TxLast
	TxPost
	TxClosed
)

// Transaction is the unit of atomic propagation (spec.md §3, C3). It owns
// the priority queue (C2), the Last-phase and Post-phase callback queues,
// the in-callback counter used to detect send-from-callback, and the
// needs-regenerating flag that triggers a queue resort before the next
// pop.
//
// This is grounded on the teacher's Scheduler/Batcher pair
// (internal/scheduler.go, internal/batcher.go): Batcher.depth becomes the
// opener-goroutine check in Engine.enter/exit that tells a nested join
// from the outermost frame, and Scheduler.Run's
// scheduled/running guard becomes the rule that only the outermost frame
// drains.
type Transaction struct {
	engine *Engine

	state TxState
	queue *PriorityQueue

	lastQueue []func(*Transaction)
	postQueue []func(*Transaction)

	inCallback        int
	needsRegenerating bool

	pendingLoops map[uint64]string // loop id -> debug label, removed once .Loop(...) is called
}

func newTransaction(e *Engine) *Transaction {
	return &Transaction{
		engine:       e,
		state:        TxOpen,
		queue:        NewPriorityQueue(),
		pendingLoops: make(map[uint64]string),
	}
}

// Prioritized enqueues propagation work against target's node, ordered by
// the node's rank (spec.md §4.3).
func (tx *Transaction) Prioritized(target *Node, fire func()) {
	tx.queue.Push(target, fire)
}

// Last registers a callback to run once, after the priority queue has
// fully drained (used to clear streams' transient firings and to swap a
// cell's next-value into value).
func (tx *Transaction) Last(fn func(*Transaction)) {
	tx.lastQueue = append(tx.lastQueue, fn)
}

// Post registers a callback to run on the outermost frame once every
// Propagating and Last round has finished, still under the transaction
// lock, just before the transaction is marked closed.
func (tx *Transaction) Post(fn func(*Transaction)) {
	tx.postQueue = append(tx.postQueue, fn)
}

// SetNeedsRegenerating requests a priority-queue resort before the next
// Pop, because a Link call changed node ranks mid-transaction.
func (tx *Transaction) SetNeedsRegenerating() {
	tx.needsRegenerating = true
}

// InCallback reports whether the transaction is currently inside a
// user-supplied handler invocation. Stream.Send checks this before
// joining — a Send while it's true is a programming error (spec.md
// §4.3, §7: SendFromCallback). Nothing else in the package consults it:
// joining a transaction to attach a listener or build a combinator from
// within a handler is allowed.
func (tx *Transaction) InCallback() bool {
	return tx.inCallback > 0
}

// RegisterLoop records a forward-reference loop created in this
// transaction as unbound; the transaction fails to close with
// ErrLoopNotClosed unless ResolveLoop is called with the same id before
// the outermost frame finishes (spec.md §4.7, invariant P1).
func (tx *Transaction) RegisterLoop(id uint64, label string) {
	tx.pendingLoops[id] = label
}

// ResolveLoop marks a forward-reference loop as bound.
func (tx *Transaction) ResolveLoop(id uint64) {
	delete(tx.pendingLoops, id)
}

func (tx *Transaction) hasUnresolvedLoops() bool {
	return len(tx.pendingLoops) > 0
}

func (tx *Transaction) runPropagating() {
	tx.state = TxPropagating
	for {
		if tx.needsRegenerating {
			tx.needsRegenerating = false
			tx.queue.Resort()
		}

		fire, ok := tx.queue.Pop()
		if !ok {
			break
		}

		tx.inCallback++
		fire()
		tx.inCallback--
	}
}

// runLastOnce runs exactly the Last callbacks queued so far, then
// returns. A callback run here may itself call Prioritized (scheduling
// more Propagating work, e.g. a coalescer's deferred emit sending into a
// derived stream's targets) or Last (scheduling another round) — the
// caller (drain) is responsible for looping back to Propagating and
// re-entering Last until both queues are empty.
func (tx *Transaction) runLastOnce() {
	tx.state = TxLast
	pending := tx.lastQueue
	tx.lastQueue = nil

	// If a callback panics, the ones not yet run go back on lastQueue so
	// drain's next Last round still runs them.
	defer func() {
		if len(pending) > 0 {
			tx.lastQueue = append(pending, tx.lastQueue...)
		}
	}()

	for len(pending) > 0 {
		cb := pending[0]
		pending = pending[1:]
		tx.inCallback++
		cb(tx)
		tx.inCallback--
	}
}

func (tx *Transaction) runPost() {
	tx.state = TxPost
	for len(tx.postQueue) > 0 {
		pending := tx.postQueue
		tx.postQueue = nil

		for _, cb := range pending {
			tx.inCallback++
			cb(tx)
			tx.inCallback--
		}
	}
}

// drain alternates Propagating and Last until both are empty, then runs
// Post once. The alternation is needed because a Last callback (a
// coalescer's deferred emit, a cell's value swap feeding another cell)
// may itself enqueue new Propagating work or a further Last round — by
// the time Propagating is empty, every node strictly below the newly
// scheduled work's rank has already been visited, so resuming
// Propagating afterwards still honors G1. A panic raised by user code
// during any phase is held while no further Propagating round starts but
// the remaining Last rounds and Post still run — so last/post still
// release transient state — and then the first panic is re-raised; a
// panic raised by a later phase is not re-raised or attached to it.
func (tx *Transaction) drain() {
	var panics []any

	run := func(fn func()) {
		defer func() {
			if r := recover(); r != nil {
				panics = append(panics, r)
			}
		}()
		fn()
	}

	for {
		// Once something has panicked, stop admitting new Propagating
		// rounds — but keep draining whatever Last already queued, since
		// that's where transient state (a stream's firings, a
		// Coalescer's pending flag) gets released.
		if len(panics) == 0 {
			run(tx.runPropagating)
		}
		if len(tx.lastQueue) == 0 {
			break
		}
		run(tx.runLastOnce)
	}
	run(tx.runPost)

	tx.state = TxClosed

	if len(panics) > 0 {
		panic(panics[0])
	}
}

// Engine owns the single global transaction lock and the process-wide
// strong-listener keep-alive set (spec.md §5). It is an explicit value
// rather than a package-level singleton per the design note in spec.md
// §9 ("Global mutable state... can be encapsulated in an explicit Engine
// value passed to every primitive, which is preferable for testability").
type Engine struct {
	// txMu is held for the full duration of an outermost transaction —
	// this is the "single global mutex" of spec.md §4.3/§5.
	txMu sync.Mutex

	// admissionMu protects the bookkeeping below, held only briefly.
	admissionMu sync.Mutex
	current     *Transaction
	openerGID   int64
	hasOpener   bool

	keepAliveMu sync.Mutex
	keepAlive   map[*Listener]struct{}

	loopSeq uint64
}

func NewEngine() *Engine {
	return &Engine{keepAlive: make(map[*Listener]struct{})}
}

func (e *Engine) nextLoopID() uint64 {
	e.admissionMu.Lock()
	e.loopSeq++
	id := e.loopSeq
	e.admissionMu.Unlock()
	return id
}

// CurrentTransaction returns the transaction open on the calling
// goroutine, if any, without blocking or joining.
func (e *Engine) CurrentTransaction() *Transaction {
	gid := goid.Get()

	e.admissionMu.Lock()
	defer e.admissionMu.Unlock()

	if e.hasOpener && e.openerGID == gid {
		return e.current
	}
	return nil
}

// enter joins the transaction already open on this goroutine, if any, or
// blocks on the global transaction lock and becomes the new outermost
// opener. Reentrant joins never touch txMu, so a goroutine recursing into
// its own open transaction cannot deadlock itself.
func (e *Engine) enter() (tx *Transaction, outer bool) {
	gid := goid.Get()

	e.admissionMu.Lock()
	if e.hasOpener && e.openerGID == gid {
		tx = e.current
		e.admissionMu.Unlock()
		return tx, false
	}
	e.admissionMu.Unlock()

	e.txMu.Lock()

	e.admissionMu.Lock()
	tx = newTransaction(e)
	e.current = tx
	e.openerGID = gid
	e.hasOpener = true
	e.admissionMu.Unlock()

	return tx, true
}

func (e *Engine) exit() {
	e.admissionMu.Lock()
	e.current = nil
	e.hasOpener = false
	e.admissionMu.Unlock()

	e.txMu.Unlock()
}

// RunTransaction opens (or joins) a transaction, runs body, and — only on
// the outermost frame — drains Propagating/Last/Post before returning
// (spec.md §4.3, §6: runTransaction). Joining from within a handler is
// allowed here — the send-from-callback guard (InCallback) only applies
// to Stream.Send, the one operation spec.md §4.3 actually scopes it to.
func (e *Engine) RunTransaction(body func(tx *Transaction) error) error {
	tx, outer := e.enter()

	if outer {
		defer e.exit()
	}

	bodyErr := body(tx)

	if !outer {
		return bodyErr
	}

	if bodyErr == nil && tx.hasUnresolvedLoops() {
		bodyErr = ErrLoopNotClosed
	}
	if bodyErr != nil {
		return bodyErr
	}

	tx.drain()
	return nil
}

// Retain keeps a strong listener's handler closure reachable for as long
// as it has not been unlistened, independent of whether user code still
// holds the Listener handle (spec.md §4.4).
func (e *Engine) Retain(l *Listener) {
	e.keepAliveMu.Lock()
	e.keepAlive[l] = struct{}{}
	e.keepAliveMu.Unlock()
}

// Release drops a strong listener from the keep-alive set.
func (e *Engine) Release(l *Listener) {
	e.keepAliveMu.Lock()
	delete(e.keepAlive, l)
	e.keepAliveMu.Unlock()
}
