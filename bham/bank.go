package bham

import (
	"bham-go/errcode"
	"bham-go/x/mathx"
)

// Config fixes the shape of a Bank for its whole life.
type Config struct {
	Channels   int   // 1..bits(W)
	Samples    int   // realignment window in ticks; 0 selects DefaultSamples
	Resolution Level // distinct levels per channel; 0 selects Samples
	Policy     Policy
}

// Bank steps a fixed set of Lines in lockstep and packs their outputs into
// one word, channel i on bit i. The tick after the counter reaches Samples
// rewinds all lines to the start of their pattern and zeroes the counter, so
// realignments land on tick indexes S, 2S+1, 3S+2, ...
//
// A Bank is not safe for concurrent use. Step does not allocate.
type Bank[W Word] struct {
	lines    []Line[W]
	samples  int
	res      Level
	policy   Policy
	tick     int
	overruns uint32
}

// NewBank validates cfg and returns an initialised bank. Levels start at 0.
func NewBank[W Word](cfg Config) (*Bank[W], error) {
	if cfg.Samples == 0 {
		cfg.Samples = DefaultSamples
	}
	if cfg.Samples < 0 {
		return nil, errcode.Wrap(errcode.InvalidParams, "bham.NewBank", "samples must be positive")
	}
	if cfg.Channels <= 0 || cfg.Channels > mathx.Bits[W]() {
		return nil, errcode.Wrap(errcode.InvalidParams, "bham.NewBank", "channel count does not fit the output word")
	}
	if cfg.Resolution == 0 {
		if cfg.Samples > int(^Level(0)) {
			return nil, errcode.Wrap(errcode.InvalidParams, "bham.NewBank", "samples too large to use as resolution")
		}
		cfg.Resolution = Level(cfg.Samples)
	}
	if cfg.Policy > PolicyReject {
		return nil, errcode.Wrap(errcode.InvalidParams, "bham.NewBank", "unknown policy")
	}
	b := &Bank[W]{
		lines:   make([]Line[W], cfg.Channels),
		samples: cfg.Samples,
		res:     cfg.Resolution,
		policy:  cfg.Policy,
	}
	b.Init()
	for i := range b.lines {
		b.lines[i].Set(0)
	}
	return b, nil
}

// Init assigns channel i the mask 1<<i.
func (b *Bank[W]) Init() {
	for i := range b.lines {
		b.lines[i].Init(W(1)<<uint(i), b.res)
	}
}

// Check reports errcode.InvalidParams for a wrong level count and
// errcode.OutOfRange for any level >= Resolution.
func (b *Bank[W]) Check(levels []Level) error {
	if len(levels) != len(b.lines) {
		return errcode.InvalidParams
	}
	for _, v := range levels {
		if v >= b.res {
			return errcode.OutOfRange
		}
	}
	return nil
}

// Set loads one level per channel, in channel order, and restarts the
// sample window. On error no channel is changed.
func (b *Bank[W]) Set(levels []Level) error {
	if len(levels) != len(b.lines) {
		return errcode.InvalidParams
	}
	if b.policy == PolicyReject {
		if err := b.Check(levels); err != nil {
			return err
		}
	}
	b.tick = 0
	for i := range b.lines {
		b.lines[i].Set(b.condition(levels[i]))
	}
	return nil
}

// SetChannel changes a single channel. The shared window counter keeps
// running, so the other channels are undisturbed.
func (b *Bank[W]) SetChannel(ch int, level Level) error {
	if ch < 0 || ch >= len(b.lines) {
		return errcode.OutOfRange
	}
	if b.policy == PolicyReject && level >= b.res {
		return errcode.OutOfRange
	}
	b.lines[ch].Set(b.condition(level))
	return nil
}

func (b *Bank[W]) condition(v Level) Level {
	if b.policy == PolicyClamp {
		return mathx.Min(v, b.res-1)
	}
	return v
}

// Overrun rewinds every channel now and restarts the window.
func (b *Bank[W]) Overrun() {
	b.tick = 0
	b.realign()
}

func (b *Bank[W]) realign() {
	for i := range b.lines {
		b.lines[i].Overrun()
	}
	b.overruns++
}

// Step advances every channel one tick and returns the packed word.
func (b *Bank[W]) Step() W {
	if b.tick < b.samples {
		b.tick++
	} else {
		// The realigning tick leaves the counter at 0.
		b.realign()
		b.tick = 0
	}
	var out W
	for i := range b.lines {
		out |= b.lines[i].Step()
	}
	return out
}

// Levels appends the current level of every channel to dst[:0].
func (b *Bank[W]) Levels(dst []Level) []Level {
	dst = dst[:0]
	for i := range b.lines {
		dst = append(dst, b.lines[i].Level())
	}
	return dst
}

func (b *Bank[W]) Channels() int     { return len(b.lines) }
func (b *Bank[W]) Samples() int      { return b.samples }
func (b *Bank[W]) Resolution() Level { return b.res }
func (b *Bank[W]) Policy() Policy    { return b.policy }
func (b *Bank[W]) Tick() int         { return b.tick }
func (b *Bank[W]) Overruns() uint32  { return b.overruns }
