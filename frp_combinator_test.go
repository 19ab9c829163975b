package frp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapLaws(t *testing.T) {
	t.Run("map(id) behaves like id", func(t *testing.T) {
		e := NewEngine()
		s := e.NewStreamSink[int]()
		out := Map(s, func(v int) int { return v })

		log := []int{}
		out.Listen(func(v int) { log = append(log, v) }, true)

		s.Send(1)
		s.Send(2)

		assert.Equal(t, []int{1, 2}, log)
	})

	t.Run("map(g) . map(f) == map(g . f)", func(t *testing.T) {
		f := func(v int) int { return v + 1 }
		g := func(v int) string { return "v" + string(rune('0'+v)) }

		e := NewEngine()
		s := e.NewStreamSink[int]()
		composed := Map(Map(s, f), g)

		e2 := NewEngine()
		s2 := e2.NewStreamSink[int]()
		direct := Map(s2, func(v int) string { return g(f(v)) })

		var composedLog, directLog []string
		composed.Listen(func(v string) { composedLog = append(composedLog, v) }, true)
		direct.Listen(func(v string) { directLog = append(directLog, v) }, true)

		s.Send(3)
		s2.Send(3)

		assert.Equal(t, directLog, composedLog)
	})
}

func TestCoalesce(t *testing.T) {
	t.Run("folds every same-transaction firing into a single emit", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		s := e.NewStreamSink[int]()
		out := Coalesce(s, func(old, new int) int { return old + new })
		out.Listen(func(v int) { log = append(log, v) }, true)

		e.RunTransaction(func(tx *Transaction) error {
			s.Send(1)
			s.Send(2)
			s.Send(3)
			return nil
		})
		s.Send(10)

		assert.Equal(t, []int{6, 10}, log)
	})
}

func TestFilterLaws(t *testing.T) {
	t.Run("filter(true) behaves like id", func(t *testing.T) {
		e := NewEngine()
		s := e.NewStreamSink[int]()
		out := Filter(s, func(int) bool { return true })

		log := []int{}
		out.Listen(func(v int) { log = append(log, v) }, true)

		s.Send(1)
		s.Send(2)

		assert.Equal(t, []int{1, 2}, log)
	})

	t.Run("filter(p) . filter(q) == filter(p && q)", func(t *testing.T) {
		p := func(v int) bool { return v%2 == 0 }
		q := func(v int) bool { return v > 2 }

		e := NewEngine()
		s := e.NewStreamSink[int]()
		composed := Filter(Filter(s, p), q)

		e2 := NewEngine()
		s2 := e2.NewStreamSink[int]()
		direct := Filter(s2, func(v int) bool { return p(v) && q(v) })

		var composedLog, directLog []int
		composed.Listen(func(v int) { composedLog = append(composedLog, v) }, true)
		direct.Listen(func(v int) { directLog = append(directLog, v) }, true)

		for _, v := range []int{1, 2, 3, 4, 5, 6} {
			s.Send(v)
			s2.Send(v)
		}

		assert.Equal(t, directLog, composedLog)
		assert.Equal(t, []int{4, 6}, composedLog)
	})
}

func TestConstructCombinatorFromWithinHandler(t *testing.T) {
	t.Run("building a combinator inside a listener's handler does not panic", func(t *testing.T) {
		e := NewEngine()
		s := e.NewStreamSink[int]()

		var mapped *Stream[int]
		s.Listen(func(v int) {
			mapped = Map(s, func(x int) int { return x + 1 })
		}, true)

		assert.NotPanics(t, func() {
			s.Send(1)
		})
		assert.NotNil(t, mapped)
	})
}

func TestOnce(t *testing.T) {
	t.Run("delivers only the first firing then unlinks", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		s := e.NewStreamSink[int]()
		out := Once(s)
		out.Listen(func(v int) { log = append(log, v) }, true)

		s.Send(1)
		s.Send(2)
		s.Send(3)

		assert.Equal(t, []int{1}, log)
		assert.Empty(t, s.s.Node().Targets())
	})
}

func TestLiftCell2(t *testing.T) {
	t.Run("combines two cells and reacts once when both change together", func(t *testing.T) {
		log := []int{}

		e := NewEngine()
		a := e.NewCellSink(1)
		b := e.NewCellSink(10)
		sum := LiftCell2(a.Cell(), b.Cell(), func(av, bv int) int { return av + bv })
		sum.Updates().Listen(func(v int) { log = append(log, v) }, true)

		assert.Equal(t, 11, sum.Sample())

		a.Send(2)
		assert.Equal(t, 12, sum.Sample())

		e.RunTransaction(func(tx *Transaction) error {
			a.Send(3)
			b.Send(20)
			return nil
		})
		assert.Equal(t, 23, sum.Sample())

		assert.Equal(t, []int{12, 23}, log)
	})
}
