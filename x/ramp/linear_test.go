package ramp

import (
	"context"
	"testing"
	"time"
)

func noWait(time.Duration) bool { return true }

func TestLinearReachesTarget(t *testing.T) {
	var got []uint16
	ok := Linear(0, 14, 14, 700, 7, noWait, func(l uint16) { got = append(got, l) })
	if !ok {
		t.Fatal("ramp reported cancellation")
	}
	if len(got) != 7 {
		t.Fatalf("got %d updates %v, want 7", len(got), got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("ramp not monotonic: %v", got)
		}
	}
	if got[len(got)-1] != 14 {
		t.Fatalf("last level %d, want 14", got[len(got)-1])
	}
}

func TestLinearDown(t *testing.T) {
	var last uint16 = 99
	Linear(60, 3, 63, 100, 10, noWait, func(l uint16) {
		if l > last {
			t.Fatalf("ramp down went up: %d after %d", l, last)
		}
		last = l
	})
	if last != 3 {
		t.Fatalf("ended at %d", last)
	}
}

func TestLinearSnap(t *testing.T) {
	var got []uint16
	Linear(0, 40, 14, 0, 5, noWait, func(l uint16) { got = append(got, l) })
	if len(got) != 1 || got[0] != 14 {
		t.Fatalf("snap got %v, want [14] (clamped to top)", got)
	}
}

func TestLinearCancelled(t *testing.T) {
	calls := 0
	wait := func(time.Duration) bool {
		calls++
		return calls < 3
	}
	var got []uint16
	if Linear(0, 10, 15, 100, 10, wait, func(l uint16) { got = append(got, l) }) {
		t.Fatal("cancelled ramp reported completion")
	}
	if len(got) != 2 {
		t.Fatalf("got %d updates before cancel, want 2", len(got))
	}
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := SleepCtx(ctx)
	if !w(time.Millisecond) {
		t.Fatal("live context should continue")
	}
	cancel()
	if w(time.Second) {
		t.Fatal("cancelled context should stop")
	}
}

func TestLinearStepDuration(t *testing.T) {
	var waits []time.Duration
	wait := func(d time.Duration) bool { waits = append(waits, d); return true }
	Linear(0, 10, 15, 10, 4, wait, func(uint16) {})
	if len(waits) != 4 {
		t.Fatalf("%d waits, want 4", len(waits))
	}
	for _, d := range waits {
		if d != 3*time.Millisecond {
			t.Fatalf("step wait %v, want 3ms (rounded up)", d)
		}
	}
}
