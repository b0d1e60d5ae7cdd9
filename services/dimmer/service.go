// Package dimmer runs a Bresenham PWM bank on a ticker and pushes every
// packed word to a Sink (a shift-register chain, a recorder, ...).
//
// The service goroutine is the only one that touches the bank, so level
// changes arriving over the bus and fades running in their own goroutines
// are serialised with the per-tick Step.
//
// Topics:
//
//	config/dimmer                  types.DimmerConfig (retained)
//	dimmer/control/<method>        set | set_channel | ramp | stop_ramp | overrun | get
//	dimmer/state                   types.State (retained)
//	dimmer/info                    types.DimmerInfo (retained)
//	dimmer/value                   types.DimmerValue (retained, on level change)
package dimmer

import (
	"context"
	"time"

	"bham-go/bham"
	"bham-go/bus"
	"bham-go/errcode"
	"bham-go/services/config"
	"bham-go/types"
	"bham-go/x/timex"
)

const (
	serviceName   = "dimmer"
	defaultTickHz = 4000
)

var (
	topicConfig  = config.Topic(serviceName)
	topicControl = bus.T(serviceName, "control", "+")
	topicState   = bus.T(serviceName, "state")
	topicInfo    = bus.T(serviceName, "info")
	topicValue   = bus.T(serviceName, "value")
)

// Sink receives one packed word per tick, bit i for channel i.
type Sink interface {
	Emit(word uint32) error
}

// newTicker is replaced in tests to drive ticks by hand.
var newTicker = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// ControlTopic returns the topic for a control method.
func ControlTopic(method string) bus.Topic { return bus.T(serviceName, "control", method) }

// StateTopic, InfoTopic and ValueTopic are the retained outputs.
func StateTopic() bus.Topic { return topicState }
func InfoTopic() bus.Topic  { return topicInfo }
func ValueTopic() bus.Topic { return topicValue }

type Service struct {
	// Sink is required.
	Sink Sink
	// Config, when set, is applied at start instead of waiting for
	// config/dimmer.
	Config *types.DimmerConfig

	conn    *bus.Connection
	bank    *bham.Bank[uint32]
	cfg     types.DimmerConfig
	scratch []uint16

	ramps   map[int]rampHandle
	nextGen uint32
	updates chan rampUpdate

	tickC    <-chan time.Time
	stopTick func()

	sinkFailing bool
}

type rampHandle struct {
	gen    uint32
	cancel context.CancelFunc
}

// rampUpdate carries a fade step back into the service goroutine.
type rampUpdate struct {
	ch    int
	gen   uint32
	level uint16
	done  bool
}

// Start runs the service in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Sink == nil {
		return errcode.Wrap(errcode.InvalidParams, "dimmer.Start", "nil sink")
	}
	go s.Run(ctx, conn)
	return nil
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	s.conn = conn
	s.ramps = map[int]rampHandle{}
	s.updates = make(chan rampUpdate, 8)
	s.stopTick = func() {}

	cfgSub := conn.Subscribe(topicConfig)
	ctrlSub := conn.Subscribe(topicControl)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(ctrlSub)
	defer func() { s.stopTick() }()
	defer s.stopRamps()

	if s.Config != nil {
		s.configure(ctx, *s.Config)
	} else {
		s.publishState("idle", "awaiting_config", nil)
	}

	for {
		select {
		case <-ctx.Done():
			if s.bank != nil {
				_ = s.Sink.Emit(0)
			}
			println("Info: dimmer service stopping")
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			if msg.Payload == nil {
				continue
			}
			var cfg types.DimmerConfig
			if err := config.Decode(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", errcode.InvalidPayload)
				continue
			}
			s.configure(ctx, cfg)

		case msg, ok := <-ctrlSub.Channel():
			if !ok {
				return
			}
			s.handleControl(ctx, msg)

		case u := <-s.updates:
			s.applyRamp(u)

		case <-s.tickC:
			s.tick()
		}
	}
}

func (s *Service) configure(ctx context.Context, cfg types.DimmerConfig) {
	if err := s.apply(cfg); err != nil {
		println("Error: dimmer config rejected:", err.Error())
		s.publishState("error", "apply_config_failed", err)
		return
	}
	s.stopTick()
	s.tickC, s.stopTick = newTicker(timex.PeriodFromHz(s.cfg.TickHz))

	println("Info: dimmer configured channels=", s.bank.Channels(), "samples=", s.bank.Samples(),
		"frame_hz=", timex.FrameHz(s.cfg.TickHz, s.bank.Samples()))
	s.publishInfo()
	s.publishValue()
	s.publishState("ready", "configured", nil)
}

// apply builds a fresh bank from cfg. The running bank is kept on error.
func (s *Service) apply(cfg types.DimmerConfig) error {
	policy, ok := bham.ParsePolicy(cfg.Policy)
	if !ok {
		return errcode.Wrap(errcode.InvalidParams, "dimmer.apply", "unknown policy "+cfg.Policy)
	}
	bank, err := bham.NewBank[uint32](bham.Config{
		Channels:   cfg.Channels,
		Samples:    cfg.Samples,
		Resolution: cfg.Resolution,
		Policy:     policy,
	})
	if err != nil {
		return err
	}
	if len(cfg.Levels) > 0 {
		if err := bank.Set(cfg.Levels); err != nil {
			return err
		}
	}
	if cfg.TickHz == 0 {
		cfg.TickHz = defaultTickHz
	}
	cfg.Samples = bank.Samples()
	cfg.Resolution = bank.Resolution()
	cfg.Policy = policy.String()

	s.stopRamps()
	s.bank = bank
	s.cfg = cfg
	s.scratch = make([]uint16, 0, bank.Channels())
	return nil
}

func (s *Service) tick() {
	if s.bank == nil {
		return
	}
	err := s.Sink.Emit(s.bank.Step())
	switch {
	case err != nil && !s.sinkFailing:
		s.sinkFailing = true
		println("Error: dimmer sink:", err.Error())
		s.publishState("error", "sink_failed", errcode.MapDriverErr(err))
	case err == nil && s.sinkFailing:
		s.sinkFailing = false
		s.publishState("ready", "sink_recovered", nil)
	}
}

// -----------------------------------------------------------------------------
// Publishing
// -----------------------------------------------------------------------------

func (s *Service) publishState(level, status string, err error) {
	st := types.State{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	s.conn.Publish(s.conn.NewMessage(topicState, st, true))
}

func (s *Service) publishInfo() {
	s.conn.Publish(s.conn.NewMessage(topicInfo, types.DimmerInfo{
		Channels:   s.bank.Channels(),
		Samples:    s.bank.Samples(),
		Resolution: s.bank.Resolution(),
		TickHz:     s.cfg.TickHz,
		Policy:     s.cfg.Policy,
	}, true))
}

func (s *Service) value() types.DimmerValue {
	return types.DimmerValue{
		Levels:   s.bank.Levels(nil),
		Tick:     s.bank.Tick(),
		Overruns: s.bank.Overruns(),
	}
}

func (s *Service) publishValue() {
	s.conn.Publish(s.conn.NewMessage(topicValue, s.value(), true))
}
