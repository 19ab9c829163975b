package internal

import "sync"

// Stream is the push analogue of the teacher's Signal (internal/signal.go):
// Write becomes Send, the single pendingValue becomes a slice of firings
// (several values can legitimately arrive within one transaction), and
// Signal.Commit's "apply the pending value" becomes the Last-phase
// callback that clears firings (spec.md §3, Stream).
//
// A Stream is created either as a sink (external ingress, via NewStream
// used directly) or as a derived stream produced by a combinator (also
// NewStream, but fed internally by an Action installed with Listen on
// some upstream node) — the struct itself does not need to distinguish
// the two; only which entry point (Send vs fire) is used to push values
// into it does.
type Stream struct {
	engine *Engine
	node   *Node

	mu      sync.Mutex
	firings []any

	retention map[uint64]*Listener

	// suppressEarlierFirings is set on streams built internally by
	// combinators (e.g. a coalesced merge output) where replaying
	// already-seen firings to a newly attached internal listener would
	// double-deliver a value the combinator itself already produced.
	suppressEarlierFirings bool
}

func NewStream(engine *Engine) *Stream {
	return &Stream{
		engine:    engine,
		node:      NewNode(),
		retention: make(map[uint64]*Listener),
	}
}

// NewSuppressedStream is NewStream with suppressEarlierFirings set; used
// for streams whose production is itself the result of coalescing, so
// late listeners must not see a value a second time.
func NewSuppressedStream(engine *Engine) *Stream {
	s := NewStream(engine)
	s.suppressEarlierFirings = true
	return s
}

func (s *Stream) Engine() *Engine { return s.engine }
func (s *Stream) Node() *Node     { return s.node }

// Send is the external ingress (spec.md §4.5): it opens or joins a
// transaction and, unlike fire, is subject to the send-from-callback
// guard (§4.3's InCallback counter) because only Send represents code
// outside the graph originating a new event — attaching a listener or
// building a combinator from within a handler is fine and goes through
// Engine.RunTransaction directly, unguarded.
func (s *Stream) Send(value any) error {
	if cur := s.engine.CurrentTransaction(); cur != nil && cur.InCallback() {
		return ErrSendFromCallback
	}

	return s.engine.RunTransaction(func(tx *Transaction) error {
		s.fire(tx, value)
		return nil
	})
}

// fire is the internal primitive used both by Send and by every
// combinator's output stream: append to firings (registering the
// Last-phase clear the first time), then schedule each outgoing edge's
// action at its downstream node's rank.
func (s *Stream) fire(tx *Transaction, value any) {
	s.mu.Lock()
	first := len(s.firings) == 0
	s.firings = append(s.firings, value)
	s.mu.Unlock()

	if first {
		tx.Last(func(*Transaction) {
			s.mu.Lock()
			s.firings = s.firings[:0]
			s.mu.Unlock()
		})
	}

	for _, target := range s.node.Targets() {
		target := target
		tx.Prioritized(target.downstream, func() {
			target.action(tx, value)
		})
	}
}

// snapshotFirings returns a copy of the values already sent to this
// stream within the current transaction, for late-attach replay.
func (s *Stream) snapshotFirings() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.firings) == 0 {
		return nil
	}
	out := make([]any, len(s.firings))
	copy(out, s.firings)
	return out
}

// Listen links a terminal handler (one with no output stream of its own)
// to this stream and returns a Listener handle (spec.md §4.5). It
// allocates a private downstream node to anchor the edge's rank.
func (s *Stream) Listen(tx *Transaction, handler Action, strong bool) *Listener {
	return s.listenInto(tx, NewNode(), handler, strong)
}

// listenInto is the shared primitive behind Listen and every combinator
// in the C8 surface: it links handler as an edge from this stream to an
// existing downstream node — normally another stream's own Node, so that
// R1 (rank(source) < rank(downstream)) holds for the combinator's output
// stream itself, not just for a throwaway listener node (spec.md §4.8:
// "constructs an output stream out whose node is linked to the input(s)").
//
// If values have already fired on this stream within tx, the new edge
// immediately receives a prioritized delivery of each existing firing, so
// order independence between Send and Listen within one transaction is
// preserved (I5), unless suppressEarlierFirings is set.
func (s *Stream) listenInto(tx *Transaction, downstream *Node, handler Action, strong bool) *Listener {
	var listener *Listener
	action := func(tx *Transaction, value any) {
		if listener.IsDone() {
			return
		}
		handler(tx, value)
	}

	bumped, target := Link(s.node, downstream, action)
	if bumped {
		tx.SetNeedsRegenerating()
	}

	listener = NewListener(s.engine, target, strong, func() {
		s.releaseRetained(target.ID())
	})

	s.retain(target.ID(), listener)

	if !s.suppressEarlierFirings {
		for _, v := range s.snapshotFirings() {
			v := v
			tx.Prioritized(downstream, func() {
				action(tx, v)
			})
		}
	}

	return listener
}

func (s *Stream) retain(id uint64, l *Listener) {
	s.mu.Lock()
	s.retention[id] = l
	s.mu.Unlock()
}

func (s *Stream) releaseRetained(id uint64) {
	s.mu.Lock()
	delete(s.retention, id)
	s.mu.Unlock()
}

// Dispose unlinks all outgoing edges and releases every retained
// listener. A stream is expected to stay alive, per spec.md §3, while
// reachable from user code or a downstream node; Dispose is for explicit
// early teardown.
func (s *Stream) Dispose() {
	s.mu.Lock()
	retained := make([]*Listener, 0, len(s.retention))
	for _, l := range s.retention {
		retained = append(retained, l)
	}
	s.retention = make(map[uint64]*Listener)
	s.mu.Unlock()

	for _, l := range retained {
		l.Unlisten()
	}
}
