package bham

// Line turns one duty level into an evenly spaced run of on/off ticks.
//
// Over exactly Resolution() calls to Step after Set or Overrun, Step returns
// the mask exactly Level() times and the accumulator ends where it started.
//
// The zero value is not usable: call Init, then Set, before Step.
type Line[W Word] struct {
	mask     W
	res      int32
	level    Level
	sw       int32 // error accumulator
	incOn    int32 // added after an off tick
	incOnOff int32 // added after an on tick
}

// Init sets the bit this line asserts when on and the number of distinct
// levels. A standalone line can use mask 1.
func (l *Line[W]) Init(mask W, resolution Level) {
	l.mask = mask
	l.res = int32(resolution)
}

// Set starts a new waveform for level. Levels >= resolution are not checked
// here; they saturate the line on.
func (l *Line[W]) Set(level Level) {
	dy := int32(level)
	l.level = level
	l.sw = 2*dy - l.res
	l.incOn = 2 * dy
	l.incOnOff = 2 * (dy - l.res)
}

// Overrun rewinds the line to the start of its pattern without recomputing
// the increments.
func (l *Line[W]) Overrun() {
	l.sw = 2*int32(l.level) - l.res
}

// Step advances one tick and returns either 0 or the line's mask.
func (l *Line[W]) Step() W {
	if l.sw < 0 {
		l.sw += l.incOn
		return 0
	}
	l.sw += l.incOnOff
	return l.mask
}

func (l *Line[W]) Level() Level      { return l.level }
func (l *Line[W]) Mask() W           { return l.mask }
func (l *Line[W]) Resolution() Level { return Level(l.res) }
