package frp

import "github.com/gofrp/frp/internal"

// Listener is a handle returned by Stream.Listen. Unlisten is the only
// operation and is idempotent.
type Listener struct {
	l *internal.Listener
}

// Unlisten detaches the handler. Safe to call more than once or from any
// goroutine.
func (l *Listener) Unlisten() { l.l.Unlisten() }

// IsDone reports whether Unlisten has already run.
func (l *Listener) IsDone() bool { return l.l.IsDone() }
