// Package hc595 drives a daisy chain of 74HC595 shift registers from an SPI
// bus plus a latch (RCLK) pin. It is the usual way to fan a packed PWM word
// out to more LEDs than the MCU has spare pins:
//
//	d := hc595.New(spi, latch)
//	d.Configure(hc595.Config{Chips: 2})
//	d.Emit(word) // bit 0 drives QA of the first chip in the chain
//
// Emit is called once per PWM tick, so it never allocates.
package hc595

import (
	"errors"

	"tinygo.org/x/drivers"
)

// MaxChips bounds the chain so a uint32 word covers every output.
const MaxChips = 4

// Errors returned by the driver.
var (
	ErrChips = errors.New("hc595: chip count must be 1..4")
)

// Pin is the latch output. machine.Pin satisfies it.
type Pin interface {
	High()
	Low()
}

// Config describes the chain. Zero values pick defaults.
type Config struct {
	// Chips is the number of registers in the chain. Default 1.
	Chips int
	// ActiveLow inverts every output, for LEDs wired to VCC.
	ActiveLow bool
}

// Device is a configured chain.
type Device struct {
	bus   drivers.SPI
	latch Pin

	chips     int
	activeLow bool
	buf       [MaxChips]byte
}

// New creates a driver on an already configured SPI bus. It does not touch
// the hardware.
func New(bus drivers.SPI, latch Pin) *Device {
	return &Device{bus: bus, latch: latch, chips: 1}
}

// Configure applies cfg and parks the latch low.
func (d *Device) Configure(cfg Config) error {
	if cfg.Chips == 0 {
		cfg.Chips = 1
	}
	if cfg.Chips < 0 || cfg.Chips > MaxChips {
		return ErrChips
	}
	d.chips = cfg.Chips
	d.activeLow = cfg.ActiveLow
	d.latch.Low()
	return nil
}

// Chips returns the configured chain length.
func (d *Device) Chips() int { return d.chips }

// Emit shifts word out and latches it. The byte for the last chip in the
// chain goes first so that bit 0 ends up on the first chip's QA.
func (d *Device) Emit(word uint32) error {
	if d.activeLow {
		word = ^word
	}
	n := d.chips
	for i := 0; i < n; i++ {
		d.buf[n-1-i] = byte(word >> (8 * uint(i)))
	}
	if err := d.bus.Tx(d.buf[:n], nil); err != nil {
		return err
	}
	d.latch.High()
	d.latch.Low()
	return nil
}

// Clear turns every output off.
func (d *Device) Clear() error { return d.Emit(0) }
