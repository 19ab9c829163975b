package internal

import "errors"

// Recoverable error kinds (spec.md §7). Callers can compare with errors.Is.
var (
	// ErrSendFromCallback is returned when send is invoked while the
	// engine's in-callback counter is positive: a listener tried to
	// originate a new external event.
	ErrSendFromCallback = errors.New("frp: send invoked from within a listener callback")

	// ErrLoopNotClosed is returned when a transaction closes with a
	// StreamLoop or CellLoop created in that transaction still unbound.
	ErrLoopNotClosed = errors.New("frp: forward-reference loop was never closed with .Loop(...)")

	// ErrDoubleLoop is returned when Loop is called twice on the same
	// placeholder.
	ErrDoubleLoop = errors.New("frp: Loop already called on this placeholder")
)

// Fatal error kinds (spec.md §7): rank regeneration failures. These panic
// rather than return, because the graph is left in a state the engine
// cannot continue to reason about.

// RankOverflowError panics when a node's rank would exceed the range the
// engine can represent.
type RankOverflowError struct{}

func (RankOverflowError) Error() string { return "frp: rank overflow during regeneration" }

// CycleDetectedError panics when rank regeneration does not terminate
// within the configured depth bound, meaning the graph contains a true
// topological cycle outside of a loop boundary.
type CycleDetectedError struct{}

func (CycleDetectedError) Error() string {
	return "frp: cycle detected during rank regeneration"
}
