package testing

import (
	"testing"
	"time"

	"github.com/go-drift/vio/pkg/vio"
)

func TestNewClock_StartsAtEpoch(t *testing.T) {
	clk := NewClock()
	if !clk.Now().Equal(Epoch) {
		t.Errorf("expected %v, got %v", Epoch, clk.Now())
	}
}

func TestNewClock_Add(t *testing.T) {
	clk := NewClock()
	clk.Add(100 * time.Millisecond)
	if elapsed := clk.Now().Sub(Epoch); elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestAppTester_EventTimestampsFollowClock(t *testing.T) {
	tester := NewAppTesterWithT(t, vio.Config{})

	tester.App().Emit("first", nil)
	tester.Clock().Add(time.Second)
	tester.App().Emit("second", nil)

	history := tester.App().EventHistory()
	if len(history) != 2 {
		t.Fatalf("expected 2 events, got %d", len(history))
	}
	if !history[0].Timestamp.Equal(Epoch) {
		t.Errorf("first timestamp = %v, want %v", history[0].Timestamp, Epoch)
	}
	if got := history[1].Timestamp.Sub(history[0].Timestamp); got != time.Second {
		t.Errorf("timestamp gap = %v, want 1s", got)
	}
}
