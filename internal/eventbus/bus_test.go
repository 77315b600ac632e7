package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New[string]()
	ch := bus.Subscribe()
	bus.Publish("analyzed")
	assert.Equal(t, "analyzed", <-ch)
	assert.Equal(t, 1, bus.Subscribers())
	bus.Unsubscribe(ch)
	assert.Equal(t, 0, bus.Subscribers())
	_, ok := <-ch
	assert.False(t, ok)
}

func TestFanOut(t *testing.T) {
	bus := New[int]()
	a, b := bus.Subscribe(), bus.Subscribe()
	bus.Publish(7)
	assert.Equal(t, 7, <-a)
	assert.Equal(t, 7, <-b)
}

func TestPublishDoesNotBlock(t *testing.T) {
	bus := NewWithBuffer[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	bus.Publish(3)
	assert.Equal(t, uint64(2), bus.Dropped())
	assert.Equal(t, 1, <-ch)
}

func TestClose(t *testing.T) {
	bus := New[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	bus.Publish(1)
	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed bus returns a closed channel")
	bus.Close()
}

func TestUnsubscribeAfterClose(t *testing.T) {
	bus := New[float64]()
	ch := bus.Subscribe()
	bus.Close()
	require.NotPanics(t, func() { bus.Unsubscribe(ch) })
}
