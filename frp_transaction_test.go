package frp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergeSimultaneous(t *testing.T) {
	t.Run("both inputs firing in one transaction combine once", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		a := e.NewStreamSink[int]()
		b := e.NewStreamSink[int]()
		m := Merge(a, b, func(l, r int) int { return l + r })
		m.Listen(func(v int) { log = append(log, v) }, true)

		e.RunTransaction(func(tx *Transaction) error {
			a.Send(2)
			b.Send(3)
			return nil
		})

		assert.Equal(t, []int{5}, log)
	})

	t.Run("inputs firing in separate transactions pass through unchanged", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		a := e.NewStreamSink[int]()
		b := e.NewStreamSink[int]()
		m := Merge(a, b, func(l, r int) int { return l + r })
		m.Listen(func(v int) { log = append(log, v) }, true)

		a.Send(2)
		b.Send(3)

		assert.Equal(t, []int{2, 3}, log)
	})
}

func TestSendFromCallback(t *testing.T) {
	t.Run("a send originated from a listener body fails without firing downstream", func(t *testing.T) {
		var innerErr error
		s2Fired := false

		e := NewEngine()
		s1 := e.NewStreamSink[int]()
		s2 := e.NewStreamSink[int]()
		s2.Listen(func(int) { s2Fired = true }, true)

		s1.Listen(func(v int) {
			innerErr = s2.Send(v)
		}, true)

		outerErr := s1.Send(1)

		assert.NoError(t, outerErr)
		assert.ErrorIs(t, innerErr, ErrSendFromCallback)
		assert.False(t, s2Fired)
	})
}

func TestTransactionReentrancy(t *testing.T) {
	t.Run("nested RunTransaction calls on the same goroutine join the open transaction", func(t *testing.T) {
		log := []string{}

		e := NewEngine()
		err := e.RunTransaction(func(outer *Transaction) error {
			log = append(log, "outer")
			return e.RunTransaction(func(inner *Transaction) error {
				log = append(log, "inner")
				assert.Same(t, outer.tx, inner.tx)
				return nil
			})
		})

		assert.NoError(t, err)
		assert.Equal(t, []string{"outer", "inner"}, log)
	})

	t.Run("a different goroutine blocks until the open transaction closes", func(t *testing.T) {
		e := NewEngine()
		started := make(chan struct{})
		release := make(chan struct{})
		done := make(chan struct{})

		go func() {
			e.RunTransaction(func(tx *Transaction) error {
				close(started)
				<-release
				return nil
			})
			close(done)
		}()

		<-started

		otherRan := false
		go func() {
			e.RunTransaction(func(tx *Transaction) error {
				otherRan = true
				return nil
			})
		}()

		time.Sleep(50 * time.Millisecond)
		assert.False(t, otherRan)
		close(release)
		<-done
	})
}

func TestErrorsAreSentinel(t *testing.T) {
	t.Run("exported errors compare with errors.Is", func(t *testing.T) {
		assert.True(t, errors.Is(ErrSendFromCallback, ErrSendFromCallback))
		assert.True(t, errors.Is(ErrLoopNotClosed, ErrLoopNotClosed))
		assert.True(t, errors.Is(ErrDoubleLoop, ErrDoubleLoop))
	})
}
