package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelNotifiesListeners(t *testing.T) {
	m := NewModel[string]("layer")
	var got []*Event[string]
	cancel := m.Listen(func(ev *Event[string]) { got = append(got, ev) })

	m.Add("A", "B")
	m.Toggle("B", "C")
	m.Remove("X") // no-op, not delivered
	m.Set("C")

	require.Len(t, got, 3)
	assert.Equal(t, OpAdd, got[0].Op())
	assert.Equal(t, "layer", got[0].Source())
	assert.Equal(t, OpToggle, got[1].Op())
	assert.Equal(t, []string{"C"}, got[1].Added().Slice())
	assert.Equal(t, []string{"B"}, got[1].Removed().Slice())
	assert.Equal(t, OpReplace, got[2].Op())
	assert.Equal(t, []string{"A"}, got[2].Removed().Slice())
	assert.Equal(t, []string{"C"}, m.Selection().Slice())

	cancel()
	m.Clear()
	assert.Len(t, got, 3)
	assert.True(t, m.Selection().IsEmpty())
}

func TestModelChainsSnapshots(t *testing.T) {
	m := NewModel[int](nil)
	first := m.Add(1, 2)
	second := m.Add(3)
	assert.Same(t, first.Selection(), second.Old())

	nop := m.Add(1)
	assert.Same(t, second.Selection(), nop.Selection())
	assert.True(t, nop.IsNop())
}

func TestModelListenerOrder(t *testing.T) {
	m := NewModel[int](nil)
	var order []int
	m.Listen(func(*Event[int]) { order = append(order, 1) })
	cancel := m.Listen(func(*Event[int]) { order = append(order, 2) })
	m.Listen(func(*Event[int]) { order = append(order, 3) })

	m.Add(7)
	cancel()
	m.Add(8)
	assert.Equal(t, []int{1, 2, 3, 1, 3}, order)
}

func TestModelConcurrentChanges(t *testing.T) {
	m := NewModel[int](nil)
	var mu sync.Mutex
	delivered := 0
	m.Listen(func(ev *Event[int]) {
		mu.Lock()
		delivered++
		mu.Unlock()
		checkInvariants(t, ev)
	})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Toggle(g*100 + i)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 400, m.Selection().Len())
	assert.Equal(t, 400, delivered)
}
