package frp

import "github.com/gofrp/frp/internal"

// Stream is a push-based source of discrete values of type T.
type Stream[T any] struct {
	s *internal.Stream
}

// NewStreamSink creates a stream that external code can Send into
// directly (spec's "sink": the only primitive allowed to originate a
// firing from outside the graph).
func (e *Engine) NewStreamSink[T any]() *Stream[T] {
	return &Stream[T]{s: internal.NewStream(e.engine)}
}

// NewStreamSinkFunc is NewStreamSink in functional form, returning a
// send closure alongside the stream for callers who prefer not to carry
// the Stream value around just to call Send.
func NewStreamSinkFunc[T any](e *Engine) (func(T) error, *Stream[T]) {
	s := e.NewStreamSink[T]()
	return s.Send, s
}

// Engine returns the engine this stream belongs to.
func (s *Stream[T]) Engine() *Engine { return &Engine{engine: s.s.Engine()} }

// Send opens or joins a transaction and fires value on this stream. It
// fails with ErrSendFromCallback if called from within a listener's
// handler.
func (s *Stream[T]) Send(value T) error {
	return s.s.Send(value)
}

// Listen opens or joins a transaction, links handler to this stream, and
// returns a Listener. A strong listener is also held in the engine's
// keep-alive set; a weak one is not. Either kind stays linked to this
// stream, and keeps receiving firings, until Unlisten or Dispose, even
// if the caller drops the returned handle.
func (s *Stream[T]) Listen(handler func(T), strong bool) *Listener {
	var l *internal.Listener
	withTransaction(&Engine{engine: s.s.Engine()}, func(tx *Transaction) {
		l = s.s.Listen(tx.tx, func(_ *internal.Transaction, v any) {
			handler(as[T](v))
		}, strong)
	})
	return &Listener{l}
}

// Dispose unlinks every outgoing edge and releases this stream's
// retained listeners.
func (s *Stream[T]) Dispose() { s.s.Dispose() }
