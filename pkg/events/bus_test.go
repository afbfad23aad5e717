package events

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func types(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestEmitDeliversToExactHandlers(t *testing.T) {
	bus := New()
	var got []Event
	bus.On("ping", func(e Event) { got = append(got, e) })
	bus.On("other", func(e Event) { t.Fatal("unexpected delivery to other") })

	bus.Emit("ping", map[string]any{"n": 1})

	require.Len(t, got, 1)
	assert.Equal(t, "ping", got[0].Type)
	assert.Equal(t, 1, got[0].Payload["n"])
}

func TestNilPayloadBecomesEmptyMap(t *testing.T) {
	bus := New()
	bus.Emit("x", nil)
	h := bus.History()
	require.Len(t, h, 1)
	assert.NotNil(t, h[0].Payload)
	assert.Empty(t, h[0].Payload)
}

func TestHistoryIsBounded(t *testing.T) {
	bus := New(WithHistorySize(2))
	bus.Emit("a", nil)
	bus.Emit("b", nil)
	bus.Emit("c", nil)

	assert.Equal(t, []string{"b", "c"}, types(bus.History()))
}

func TestHistoryKeepsLastN(t *testing.T) {
	const n, k = 5, 7
	bus := New(WithHistorySize(n))
	for i := range n + k {
		bus.Emit(string(rune('a'+i)), nil)
	}
	h := bus.History()
	require.Len(t, h, n)
	assert.Equal(t, []string{"h", "i", "j", "k", "l"}, types(h))
}

func TestDefaultHistorySize(t *testing.T) {
	bus := New()
	for range DefaultHistorySize + 10 {
		bus.Emit("tick", nil)
	}
	assert.Len(t, bus.History(), DefaultHistorySize)
	assert.Equal(t, DefaultHistorySize, bus.Capacity())
}

func TestZeroHistoryDisablesRecording(t *testing.T) {
	bus := New(WithHistorySize(0))
	fired := 0
	bus.On("x", func(Event) { fired++ })
	bus.Emit("x", nil)
	assert.Empty(t, bus.History())
	assert.Equal(t, 1, fired)
}

func TestHistoryReturnsCopy(t *testing.T) {
	bus := New()
	bus.Emit("a", nil)
	h := bus.History()
	h[0].Type = "mutated"
	assert.Equal(t, "a", bus.History()[0].Type)
}

func TestWildcardFiresOncePerEvent(t *testing.T) {
	bus := New()
	var wild, exact int
	bus.On(Wildcard, func(Event) { wild++ })
	bus.On("a", func(Event) { exact++ })

	bus.Emit("a", nil)
	bus.Emit("b", nil)

	assert.Equal(t, 2, wild)
	assert.Equal(t, 1, exact)

	bus.Emit(Wildcard, nil)
	assert.Equal(t, 3, wild, "emitting on the wildcard channel delivers once")
}

func TestUnsubscribe(t *testing.T) {
	bus := New()
	count := 0
	off := bus.On("a", func(Event) { count++ })
	bus.Emit("a", nil)
	off()
	off()
	bus.Emit("a", nil)
	assert.Equal(t, 1, count)
}

func TestSubscriptionChangesDuringDispatchUseSnapshot(t *testing.T) {
	bus := New()
	var calls []string
	var offB func()

	bus.On("evt", func(Event) {
		calls = append(calls, "a")
		offB()
		bus.On("evt", func(Event) { calls = append(calls, "late") })
	})
	offB = bus.On("evt", func(Event) { calls = append(calls, "b") })

	bus.Emit("evt", nil)
	assert.Equal(t, []string{"a", "b"}, calls)

	calls = nil
	bus.Emit("evt", nil)
	assert.Equal(t, []string{"a", "late"}, calls)
}

func TestReentrantEmit(t *testing.T) {
	bus := New()
	var order []string
	bus.On("outer", func(Event) {
		order = append(order, "outer")
		bus.Emit("inner", nil)
	})
	bus.On("inner", func(Event) { order = append(order, "inner") })

	bus.Emit("outer", nil)

	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, []string{"outer", "inner"}, types(bus.History()))
}

func TestTimestampsComeFromClock(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	bus := New(WithClock(mock))

	bus.Emit("a", nil)
	mock.Add(time.Second)
	bus.Emit("b", nil)

	h := bus.History()
	require.Len(t, h, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), h[0].Timestamp)
	assert.Equal(t, time.Second, h[1].Timestamp.Sub(h[0].Timestamp))
}

func TestClear(t *testing.T) {
	bus := New()
	count := 0
	bus.On("a", func(Event) { count++ })
	bus.Emit("a", nil)
	bus.Clear()
	bus.Emit("a", nil)
	assert.Equal(t, 1, count)
	assert.Len(t, bus.History(), 1)
}
