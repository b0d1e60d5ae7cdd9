// Command bhamsim runs a Bresenham PWM bank on the host and shows what the
// LEDs would do: rows of bits, per-channel duty, and optionally a WAV file
// with one audio channel per LED.
//
//	bhamsim -channels 4 -samples 15 -levels 0,4,9,14 -ticks 41
//	bhamsim -levels 1,8,32,63 -samples 64 -ticks 640 -wav pwm.wav
//	bhamsim -live 2s -device host
package main

import (
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	var opts options
	flag.IntVar(&opts.channels, "channels", 4, "number of PWM channels (1..32)")
	flag.IntVar(&opts.samples, "samples", 15, "realignment window in ticks")
	flag.UintVar(&opts.resolution, "resolution", 0, "distinct levels per channel (0 = samples)")
	flag.StringVar(&opts.levels, "levels", "0,4,9,14", "comma separated levels, one per channel")
	flag.StringVar(&opts.policy, "policy", "degrade", "out of range levels: degrade, clamp or reject")
	flag.IntVar(&opts.ticks, "ticks", 41, "ticks to simulate")
	flag.BoolVar(&opts.rows, "rows", true, "print one row of bits per tick")
	flag.StringVar(&opts.wav, "wav", "", "write the waveform to this WAV file")
	flag.IntVar(&opts.rate, "rate", 8000, "WAV sample rate (one frame per tick)")
	flag.DurationVar(&opts.live, "live", 0, "run the dimmer service in real time for this long")
	flag.StringVar(&opts.device, "device", "", "embedded config to load in live mode (default host)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var err error
	if opts.live > 0 {
		err = runLive(log, opts, os.Stdout)
	} else {
		err = runOffline(log, opts, os.Stdout)
	}
	if err != nil {
		log.WithError(err).Error("simulation failed")
		os.Exit(1)
	}
}

type options struct {
	channels   int
	samples    int
	resolution uint
	levels     string
	policy     string
	ticks      int
	rows       bool
	wav        string
	rate       int
	live       time.Duration
	device     string
}
