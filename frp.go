// Package frp is a push-based functional reactive programming runtime:
// streams carry discrete events, cells carry time-varying values, and
// every simultaneous event is propagated atomically inside a
// Transaction.
package frp

import "github.com/gofrp/frp/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Engine owns the transaction lock and the strong-listener keep-alive
// set for one isolated reactive graph. Unlike a process-wide singleton,
// two Engines never share state, so tests can run in parallel each with
// their own.
type Engine struct {
	engine *internal.Engine
}

// NewEngine constructs an empty reactive graph.
func NewEngine() *Engine {
	return &Engine{engine: internal.NewEngine()}
}

// Transaction is the unit of atomic propagation passed into the body of
// RunTransaction.
type Transaction struct {
	tx     *internal.Transaction
	engine *Engine
}

// RunTransaction opens or joins a transaction on this goroutine, runs
// body, and on the outermost frame drains propagation before returning.
// Nested calls from the same goroutine join the already-open
// transaction; a call from a different goroutine blocks until it can
// open or join.
func (e *Engine) RunTransaction(body func(tx *Transaction) error) error {
	return e.engine.RunTransaction(func(itx *internal.Transaction) error {
		return body(&Transaction{tx: itx, engine: e})
	})
}

// Engine returns the engine this transaction belongs to.
func (tx *Transaction) Engine() *Engine { return tx.engine }

func withTransaction(e *Engine, fn func(tx *Transaction)) {
	err := e.RunTransaction(func(tx *Transaction) error {
		fn(tx)
		return nil
	})
	if err != nil {
		// Construction-only bodies never return a non-nil error, and
		// every loop they create is bound before they return, so
		// RunTransaction has no ErrLoopNotClosed to report either; it
		// never rejects entry, even from inside a listener body.
		panic(err)
	}
}
