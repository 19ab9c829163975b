package frp

import "github.com/gofrp/frp/internal"

// Recoverable error kinds (spec §7); compare with errors.Is.
var (
	ErrSendFromCallback = internal.ErrSendFromCallback
	ErrLoopNotClosed    = internal.ErrLoopNotClosed
	ErrDoubleLoop       = internal.ErrDoubleLoop
)

// RankOverflowError and CycleDetectedError are the fatal kinds (spec §7):
// the engine raises them as a panic rather than an error return,
// because rank regeneration left the graph in a state it cannot continue
// to reason about.
type RankOverflowError = internal.RankOverflowError
type CycleDetectedError = internal.CycleDetectedError
