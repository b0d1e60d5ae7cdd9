package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns the tick period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Second / time.Duration(freqHz)
}

// FrameHz is the rate at which a full window of samples ticks repeats.
// At 240 Hz or more the eye sees steady light.
func FrameHz(tickHz uint32, samples int) uint32 {
	if samples <= 0 {
		return 0
	}
	return tickHz / uint32(samples)
}
