// Package bham generates software PWM waveforms for banks of LEDs using the
// Bresenham line decision rule. Every tick costs a sign test and one integer
// addition per channel: no division, no floating point, no tables.
package bham

import "golang.org/x/exp/constraints"

// Word is the packed output word. Bit i carries channel i.
type Word interface {
	constraints.Unsigned
}

// Level is a duty level in [0, resolution).
type Level = uint16

// DefaultSamples is the sample window used when a Config leaves it unset.
const DefaultSamples = 64

// Policy decides what Set does with a level >= resolution.
type Policy uint8

const (
	// PolicyDegrade passes the level through; the channel saturates on.
	PolicyDegrade Policy = iota
	// PolicyClamp limits the level to resolution-1.
	PolicyClamp
	// PolicyReject makes Set fail with errcode.OutOfRange.
	PolicyReject
)

func (p Policy) String() string {
	switch p {
	case PolicyDegrade:
		return "degrade"
	case PolicyClamp:
		return "clamp"
	case PolicyReject:
		return "reject"
	}
	return "unknown"
}

// ParsePolicy maps a config string to a Policy. Empty selects PolicyDegrade.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "", "degrade":
		return PolicyDegrade, true
	case "clamp":
		return PolicyClamp, true
	case "reject":
		return PolicyReject, true
	}
	return PolicyDegrade, false
}
