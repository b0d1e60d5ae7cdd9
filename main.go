// Bench demo: four channels at resolution 15, one row of bits per tick,
// channel 0 first. Runs unchanged on a host or over a TinyGo serial console.
package main

import (
	"bham-go/bham"
	"bham-go/capture"
)

const (
	pins       = 4
	resolution = 15
	rows       = resolution + 26
)

var demoLevels = []bham.Level{0, 4, 9, resolution - 1}

// demoRows runs a fresh bank for n ticks and renders each word.
func demoRows(n int) ([]string, error) {
	bank, err := bham.NewBank[uint8](bham.Config{Channels: pins, Samples: resolution})
	if err != nil {
		return nil, err
	}
	if err := bank.Set(demoLevels); err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, capture.FormatBits(uint32(bank.Step()), pins))
	}
	return out, nil
}

func main() {
	lines, err := demoRows(rows)
	if err != nil {
		println("Error:", err.Error())
		return
	}
	for _, l := range lines {
		println(l)
	}
}
