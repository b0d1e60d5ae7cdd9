package hc595

import (
	"bytes"
	"errors"
	"testing"
)

type fakeSPI struct {
	frames [][]byte
	err    error
}

func (f *fakeSPI) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, append([]byte(nil), w...))
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) {
	f.frames = append(f.frames, []byte{b})
	return 0, f.err
}

type fakePin struct {
	high    bool
	pulses  int
	history []bool
}

func (p *fakePin) High() { p.high = true; p.history = append(p.history, true) }
func (p *fakePin) Low() {
	if p.high {
		p.pulses++
	}
	p.high = false
	p.history = append(p.history, false)
}

func TestEmitSingleChip(t *testing.T) {
	spi, latch := &fakeSPI{}, &fakePin{}
	d := New(spi, latch)
	if err := d.Configure(Config{}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := d.Emit(0b1010); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(spi.frames) != 1 || !bytes.Equal(spi.frames[0], []byte{0b1010}) {
		t.Fatalf("frames = %v", spi.frames)
	}
	if latch.pulses != 1 || latch.high {
		t.Fatalf("latch pulses=%d high=%v", latch.pulses, latch.high)
	}
}

func TestEmitChainOrder(t *testing.T) {
	spi, latch := &fakeSPI{}, &fakePin{}
	d := New(spi, latch)
	if err := d.Configure(Config{Chips: 3}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	_ = d.Emit(0x00112233)
	want := []byte{0x11, 0x22, 0x33}
	if !bytes.Equal(spi.frames[0], want) {
		t.Fatalf("frame = % x, want % x", spi.frames[0], want)
	}
}

func TestEmitActiveLow(t *testing.T) {
	spi, latch := &fakeSPI{}, &fakePin{}
	d := New(spi, latch)
	_ = d.Configure(Config{Chips: 1, ActiveLow: true})
	_ = d.Clear()
	if spi.frames[0][0] != 0xff {
		t.Fatalf("active-low clear sent %#x, want 0xff", spi.frames[0][0])
	}
}

func TestConfigureRejectsBadChain(t *testing.T) {
	d := New(&fakeSPI{}, &fakePin{})
	if err := d.Configure(Config{Chips: 5}); !errors.Is(err, ErrChips) {
		t.Fatalf("Configure(5) = %v", err)
	}
	if d.Chips() != 1 {
		t.Fatalf("failed Configure changed chips to %d", d.Chips())
	}
}

func TestEmitBusErrorSkipsLatch(t *testing.T) {
	spi, latch := &fakeSPI{err: errors.New("bus")}, &fakePin{}
	d := New(spi, latch)
	_ = d.Configure(Config{})
	if err := d.Emit(1); err == nil {
		t.Fatal("expected bus error")
	}
	if latch.pulses != 0 {
		t.Fatal("latched after a failed transfer")
	}
}

func TestEmitDoesNotAllocate(t *testing.T) {
	d := New(nopSPI{}, &nopPin{})
	_ = d.Configure(Config{Chips: 2})
	if n := testing.AllocsPerRun(100, func() { _ = d.Emit(0xbeef) }); n != 0 {
		t.Fatalf("Emit allocates %.1f per call", n)
	}
}

type nopSPI struct{}

func (nopSPI) Tx(w, r []byte) error          { return nil }
func (nopSPI) Transfer(b byte) (byte, error) { return 0, nil }

type nopPin struct{}

func (*nopPin) High() {}
func (*nopPin) Low()  {}
