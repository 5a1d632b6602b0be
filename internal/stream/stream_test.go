package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_GetSet(t *testing.T) {
	v := New(42)
	assert.Equal(t, 42, v.Get())

	v.Set(7)
	assert.Equal(t, 7, v.Get())
}

func TestValue_SubscribePrimesCurrent(t *testing.T) {
	v := New("initial")
	ch, cancel := v.Subscribe()
	defer cancel()

	select {
	case got := <-ch:
		assert.Equal(t, "initial", got)
	default:
		t.Fatal("subscriber channel was not primed")
	}
}

func TestValue_Conflation(t *testing.T) {
	v := New(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	// Drop the primed value, then flood without draining.
	<-ch
	for i := 1; i <= 100; i++ {
		v.Set(i)
	}

	got := <-ch
	assert.Equal(t, 100, got, "slow subscriber must see only the latest value")

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra value %v", extra)
	default:
	}
}

func TestValue_MultipleSubscribers(t *testing.T) {
	v := New(1)
	a, cancelA := v.Subscribe()
	b, cancelB := v.Subscribe()
	defer cancelA()
	defer cancelB()

	<-a
	<-b
	v.Set(5)

	assert.Equal(t, 5, <-a)
	assert.Equal(t, 5, <-b)
}

func TestValue_CancelStopsDelivery(t *testing.T) {
	v := New(1)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()

	v.Set(2)
	select {
	case got := <-ch:
		t.Fatalf("cancelled subscriber received %v", got)
	default:
	}
	require.Equal(t, 2, v.Get())
}
