// Package heartbeat writes one status line per interval to a console,
// built from the dimmer's retained state and value:
//
//	dimmer ready/configured tick=12 ovr=3 levels=0,4,9,14
package heartbeat

import (
	"context"
	"io"
	"time"

	"bham-go/bus"
	"bham-go/errcode"
	"bham-go/services/config"
	"bham-go/services/dimmer"
	"bham-go/types"
	"bham-go/x/conv"
)

const defaultInterval = time.Second

var topicConfigHeartbeat = config.Topic("heartbeat")

// newTicker is replaced in tests.
var newTicker = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Service struct {
	// Out receives the status lines (a UART, stdout).
	Out io.Writer
	// Interval overrides the one second default until config/heartbeat
	// arrives.
	Interval time.Duration

	state     types.State
	value     types.DimmerValue
	haveValue bool
	line      []byte
}

// serviceLoop returns when ctx ends or the connection is closed under it.
func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	stSub := conn.Subscribe(dimmer.StateTopic())
	valSub := conn.Subscribe(dimmer.ValueTopic())
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(stSub)
	defer conn.Unsubscribe(valSub)

	interval := s.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	tickC, stop := newTicker(interval)
	defer func() { stop() }()

	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tickC:
			if _, err := s.Out.Write(s.format()); err != nil {
				println("Error: heartbeat write:", err.Error())
			}
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			var hc types.HeartbeatConfig
			if err := config.Decode(msg.Payload, &hc); err != nil || hc.IntervalMs == 0 {
				println("Error: heartbeat config ignored")
				continue
			}
			stop()
			tickC, stop = newTicker(time.Duration(hc.IntervalMs) * time.Millisecond)
			println("Info: heartbeat interval set to", hc.IntervalMs, "ms")
		case msg, ok := <-stSub.Channel():
			if !ok {
				return
			}
			if st, ok := msg.Payload.(types.State); ok {
				s.state = st
			}
		case msg, ok := <-valSub.Channel():
			if !ok {
				return
			}
			if v, ok := msg.Payload.(types.DimmerValue); ok {
				s.value, s.haveValue = v, true
			}
		}
	}
}

// format reuses the line buffer between ticks.
func (s *Service) format() []byte {
	b := append(s.line[:0], "dimmer "...)
	if s.state.Level == "" {
		b = append(b, "unknown"...)
	} else {
		b = append(b, s.state.Level...)
	}
	if s.state.Status != "" {
		b = append(b, '/')
		b = append(b, s.state.Status...)
	}
	if s.state.Error != "" {
		b = append(b, " err="...)
		b = append(b, s.state.Error...)
	}
	if s.haveValue {
		b = append(b, " tick="...)
		b = conv.AppendUint(b, uint64(s.value.Tick))
		b = append(b, " ovr="...)
		b = conv.AppendUint(b, uint64(s.value.Overruns))
		b = append(b, " levels="...)
		b = conv.AppendUint16s(b, s.value.Levels, ',')
	}
	b = append(b, '\n')
	s.line = b
	return b
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Out == nil {
		return errcode.Wrap(errcode.InvalidParams, "heartbeat.Start", "nil output")
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
