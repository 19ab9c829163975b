package frp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamSend(t *testing.T) {
	t.Run("delivers to a listener attached before send", func(t *testing.T) {
		log := []string{}

		e := NewEngine()
		s := e.NewStreamSink[int]()
		s.Listen(func(v int) {
			log = append(log, fmt.Sprintf("got %d", v))
		}, true)

		s.Send(7)
		s.Send(8)

		assert.Equal(t, []string{"got 7", "got 8"}, log)
	})

	t.Run("late listen within the same transaction still observes the value exactly once", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		s := e.NewStreamSink[int]()

		e.RunTransaction(func(tx *Transaction) error {
			s.Send(7)
			s.Listen(func(v int) {
				log = append(log, v)
			}, true)
			return nil
		})

		assert.Equal(t, []int{7}, log)
	})

	t.Run("two listeners attached before and after send both see it exactly once", func(t *testing.T) {
		log := []string{}

		e := NewEngine()
		s := e.NewStreamSink[int]()
		s.Listen(func(v int) { log = append(log, fmt.Sprintf("before %d", v)) }, true)

		e.RunTransaction(func(tx *Transaction) error {
			s.Send(7)
			s.Listen(func(v int) { log = append(log, fmt.Sprintf("after %d", v)) }, true)
			return nil
		})

		assert.ElementsMatch(t, []string{"before 7", "after 7"}, log)
		assert.Len(t, log, 2)
	})
}

func TestListenerUnlisten(t *testing.T) {
	t.Run("idempotent and stops further delivery", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		s := e.NewStreamSink[int]()
		l := s.Listen(func(v int) { log = append(log, v) }, true)

		s.Send(1)
		l.Unlisten()
		l.Unlisten() // must not panic or double-release
		s.Send(2)

		assert.Equal(t, []int{1}, log)
		assert.True(t, l.IsDone())
	})

	t.Run("unlisten mid-transaction filters a delivery already sitting in the queue", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		s := e.NewStreamSink[int]()
		var l *Listener
		l = s.Listen(func(v int) {
			log = append(log, v)
			l.Unlisten()
		}, true)

		e.RunTransaction(func(tx *Transaction) error {
			s.Send(1) // enqueues this listener's delivery of 1
			s.Send(2) // enqueues a second delivery of 2, before either has run
			return nil
		})

		assert.Equal(t, []int{1}, log)
	})
}
