package timex

import (
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(4000); got != 250*time.Microsecond {
		t.Fatalf("PeriodFromHz(4000) = %v", got)
	}
	if got := PeriodFromHz(0); got != time.Second {
		t.Fatalf("PeriodFromHz(0) = %v", got)
	}
}

func TestFrameHz(t *testing.T) {
	if got := FrameHz(15360, 64); got != 240 {
		t.Fatalf("FrameHz = %d, want 240", got)
	}
	if got := FrameHz(100, 0); got != 0 {
		t.Fatalf("FrameHz with no samples = %d", got)
	}
}
