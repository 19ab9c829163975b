package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainRunsLastAfterPropagatingPanic(t *testing.T) {
	t.Run("a panicking listener still releases a sibling cell's pending coalesce", func(t *testing.T) {
		e := NewEngine()
		var s *Stream
		var cell *Cell
		var bomb *Listener

		e.RunTransaction(func(tx *Transaction) error {
			s = NewStream(e)
			cell = Hold(tx, 0, s)
			bomb = s.Listen(tx, func(*Transaction, any) { panic("boom") }, true)
			return nil
		})

		assert.PanicsWithValue(t, "boom", func() {
			s.Send(1)
		})

		// the cell's own Last-phase swap ran despite the panic: value
		// updated, and the coalescer's pending flag was released rather
		// than left stuck.
		assert.Equal(t, 1, cell.Sample())

		bomb.Unlisten()

		s.Send(2)
		assert.Equal(t, 2, cell.Sample())
	})
}

func TestSendFromCallbackGuardScopedToSend(t *testing.T) {
	t.Run("RunTransaction joins fine from within a handler; only Send is guarded", func(t *testing.T) {
		e := NewEngine()
		var s *Stream
		var joinErr, sendErr error

		e.RunTransaction(func(tx *Transaction) error {
			s = NewStream(e)
			s.Listen(tx, func(tx *Transaction, v any) {
				joinErr = e.RunTransaction(func(*Transaction) error { return nil })
				sendErr = s.Send(v)
			}, true)
			return nil
		})

		assert.NoError(t, s.Send(1))
		assert.NoError(t, joinErr)
		assert.ErrorIs(t, sendErr, ErrSendFromCallback)
	})
}
