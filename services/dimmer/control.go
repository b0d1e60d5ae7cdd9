package dimmer

import (
	"context"

	"bham-go/bham"
	"bham-go/bus"
	"bham-go/errcode"
	"bham-go/services/config"
	"bham-go/types"
	"bham-go/x/ramp"
)

// dimmer/control/<method>
func (s *Service) handleControl(ctx context.Context, msg *bus.Message) {
	if len(msg.Topic) < 3 {
		s.replyErr(msg, errcode.InvalidTopic)
		return
	}
	method, _ := msg.Topic[2].(string)
	if s.bank == nil {
		s.replyErr(msg, errcode.NotReady)
		return
	}

	switch method {
	case "set":
		var p types.DimmerSet
		if err := config.Decode(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		if err := s.bank.Set(p.Levels); err != nil {
			s.replyErr(msg, errcode.Of(err))
			return
		}
		s.stopRamps()
		s.publishValue()
		s.replyOK(msg)

	case "set_channel":
		var p types.DimmerChannelSet
		if err := config.Decode(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		if err := s.bank.SetChannel(p.Channel, p.Level); err != nil {
			s.replyErr(msg, errcode.Of(err))
			return
		}
		s.stopRamp(p.Channel)
		s.publishValue()
		s.replyOK(msg)

	case "ramp":
		var p types.DimmerRamp
		if err := config.Decode(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		if err := s.startRamp(ctx, p); err != nil {
			s.replyErr(msg, errcode.Of(err))
			return
		}
		s.replyOK(msg)

	case "stop_ramp":
		var p types.DimmerChannel
		if err := config.Decode(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		s.stopRamp(p.Channel)
		s.replyOK(msg)

	case "overrun":
		s.bank.Overrun()
		s.replyOK(msg)

	case "get":
		if msg.CanReply() {
			s.conn.Reply(msg, s.value(), false)
		}

	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

// -----------------------------------------------------------------------------
// Fades
// -----------------------------------------------------------------------------

func (s *Service) startRamp(ctx context.Context, p types.DimmerRamp) error {
	if p.Channel < 0 || p.Channel >= s.bank.Channels() {
		return errcode.OutOfRange
	}
	top := s.bank.Resolution() - 1
	if p.To > top && s.bank.Policy() == bham.PolicyReject {
		return errcode.OutOfRange
	}
	s.stopRamp(p.Channel)

	s.nextGen++
	gen, ch := s.nextGen, p.Channel
	rctx, cancel := context.WithCancel(ctx)
	s.ramps[ch] = rampHandle{gen: gen, cancel: cancel}

	cur := s.bank.Levels(s.scratch)[ch]
	updates := s.updates
	send := func(u rampUpdate) bool {
		select {
		case updates <- u:
			return true
		case <-rctx.Done():
			return false
		}
	}
	go func() {
		ramp.Linear(cur, p.To, top, p.DurationMs, p.Steps, ramp.SleepCtx(rctx),
			func(level uint16) { send(rampUpdate{ch: ch, gen: gen, level: level}) })
		send(rampUpdate{ch: ch, gen: gen, done: true})
	}()
	return nil
}

// applyRamp runs on the service goroutine. Updates from a replaced or
// stopped ramp are dropped by generation.
func (s *Service) applyRamp(u rampUpdate) {
	h, ok := s.ramps[u.ch]
	if !ok || h.gen != u.gen || s.bank == nil {
		return
	}
	if u.done {
		h.cancel()
		delete(s.ramps, u.ch)
		return
	}
	if s.bank.SetChannel(u.ch, u.level) == nil {
		s.publishValue()
	}
}

func (s *Service) stopRamp(ch int) {
	if h, ok := s.ramps[ch]; ok {
		h.cancel()
		delete(s.ramps, ch)
	}
}

func (s *Service) stopRamps() {
	for ch := range s.ramps {
		s.stopRamp(ch)
	}
}

// -----------------------------------------------------------------------------
// Replies
// -----------------------------------------------------------------------------

func (s *Service) replyOK(m *bus.Message) {
	if m.CanReply() {
		s.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (s *Service) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}
