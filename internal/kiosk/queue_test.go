package kiosk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()
	for _, line := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(Event{Type: EventCommand, Line: line}))
	}

	for _, want := range []string{"A", "B", "C"} {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, e.Line)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_Len(t *testing.T) {
	q := newEventQueue()
	assert.Equal(t, 0, q.Len())

	q.Enqueue(Event{Type: EventTick})
	q.Enqueue(Event{Type: EventTick})
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())
}

func TestEventQueue_SignalsOnEnqueue(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(Event{Type: EventTick})

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("no signal after enqueue")
	}
}

func TestEventQueue_CloseWakesWaiterAndRejects(t *testing.T) {
	q := newEventQueue()
	q.Close()
	q.Close()

	select {
	case _, ok := <-q.Wait():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("close did not wake waiter")
	}
	assert.False(t, q.Enqueue(Event{Type: EventTick}))
}

func TestEventQueue_ConcurrentProducers(t *testing.T) {
	q := newEventQueue()
	const producers, each = 8, 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Enqueue(Event{Type: EventTick})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*each, q.Len())
}
