package main

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bham-go/bham"
	"bham-go/bus"
	"bham-go/capture"
	"bham-go/errcode"
	"bham-go/services/config"
	"bham-go/services/dimmer"
	"bham-go/services/heartbeat"
	"bham-go/types"
	"bham-go/x/strx"
)

// parseLevels reads "0,4,9,14".
func parseLevels(s string) ([]bham.Level, error) {
	fields := strings.Split(s, ",")
	out := make([]bham.Level, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "parseLevels", Msg: f, Err: err}
		}
		out = append(out, bham.Level(v))
	}
	return out, nil
}

// runOffline steps a bank directly, as fast as possible.
func runOffline(log *logrus.Logger, opts options, out io.Writer) error {
	policy, ok := bham.ParsePolicy(opts.policy)
	if !ok {
		return errcode.Wrap(errcode.InvalidParams, "bhamsim", "unknown policy "+opts.policy)
	}
	levels, err := parseLevels(opts.levels)
	if err != nil {
		return err
	}
	bank, err := bham.NewBank[uint32](bham.Config{
		Channels:   opts.channels,
		Samples:    opts.samples,
		Resolution: bham.Level(opts.resolution),
		Policy:     policy,
	})
	if err != nil {
		return err
	}
	if err := bank.Set(levels); err != nil {
		return err
	}
	rec, err := capture.NewRecorder(opts.channels, opts.ticks)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"channels":   bank.Channels(),
		"samples":    bank.Samples(),
		"resolution": bank.Resolution(),
		"policy":     bank.Policy().String(),
	}).Debug("bank ready")

	for i := 0; i < opts.ticks; i++ {
		_ = rec.Emit(bank.Step())
	}
	log.WithField("overruns", bank.Overruns()).Debug("simulation done")
	return report(log, rec, bank.Levels(nil), int(bank.Resolution()), opts, out)
}

// runLive wires the config and dimmer services over the bus and lets the
// dimmer's own ticker drive a recorder, fading channel 0 to full meanwhile.
func runLive(log *logrus.Logger, opts options, out io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	device := strx.Coalesce(opts.device, "host")
	ctx = context.WithValue(ctx, config.CtxDeviceKey, device)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	rec, err := capture.NewRecorder(32, 0)
	if err != nil {
		return err
	}
	svc := &dimmer.Service{Sink: rec}
	if err := svc.Start(ctx, b.NewConnection("dimmer")); err != nil {
		return err
	}

	// Status lines from the dimmer go to stderr under -v.
	var hbOut io.Writer = io.Discard
	if log.IsLevelEnabled(logrus.DebugLevel) {
		hbOut = os.Stderr
	}
	hb := &heartbeat.Service{Out: hbOut}
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		return err
	}

	client := b.NewConnection("bhamsim")
	st, err := waitReady(ctx, client, 2*time.Second)
	if err != nil {
		return err
	}
	log.WithField("device", device).WithField("status", st.Status).Info("dimmer ready")

	info, err := dimmerInfo(client)
	if err != nil {
		return err
	}
	fade := types.DimmerRamp{
		Channel:    0,
		To:         info.Resolution - 1,
		DurationMs: uint32(opts.live / 2 / time.Millisecond),
		Steps:      info.Resolution,
	}
	if err := control(ctx, client, "ramp", fade); err != nil {
		return err
	}
	log.WithField("to", fade.To).WithField("ms", fade.DurationMs).Info("fading channel 0")

	time.Sleep(opts.live)

	reply, err := request(ctx, client, "get", nil)
	if err != nil {
		return err
	}
	cancel()
	v, _ := reply.Payload.(types.DimmerValue)

	trimmed, _ := capture.NewRecorder(info.Channels, 0)
	for _, w := range rec.Words() {
		_ = trimmed.Emit(w)
	}
	opts.rows = false
	return report(log, trimmed, v.Levels, int(info.Resolution), opts, out)
}

func report(log *logrus.Logger, rec *capture.Recorder, levels []uint16, res int, opts options, out io.Writer) error {
	if opts.rows {
		if err := rec.WriteRows(out); err != nil {
			return err
		}
	}
	for ch := 0; ch < rec.Channels(); ch++ {
		on, total := rec.Duty(ch)
		f := logrus.Fields{"channel": ch, "on": on, "ticks": total}
		if ch < len(levels) {
			f["level"] = levels[ch]
			f["resolution"] = res
		}
		log.WithFields(f).Info("duty")
	}
	if opts.wav == "" {
		return nil
	}
	f, err := os.Create(opts.wav)
	if err != nil {
		return err
	}
	if err := rec.WriteWAV(f, opts.rate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithField("path", opts.wav).WithField("frames", rec.Len()).Info("wrote waveform")
	return nil
}

// -----------------------------------------------------------------------------
// bus helpers
// -----------------------------------------------------------------------------

func waitReady(ctx context.Context, conn *bus.Connection, d time.Duration) (types.State, error) {
	sub := conn.Subscribe(dimmer.StateTopic())
	defer conn.Unsubscribe(sub)
	timeout := time.After(d)
	for {
		select {
		case <-ctx.Done():
			return types.State{}, ctx.Err()
		case <-timeout:
			return types.State{}, errcode.Timeout
		case m := <-sub.Channel():
			st, _ := m.Payload.(types.State)
			switch st.Level {
			case "ready":
				return st, nil
			case "error":
				return st, errcode.Wrap(errcode.Code(st.Error), "dimmer", st.Status)
			}
		}
	}
}

func dimmerInfo(conn *bus.Connection) (types.DimmerInfo, error) {
	sub := conn.Subscribe(dimmer.InfoTopic())
	defer conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		info, ok := m.Payload.(types.DimmerInfo)
		if !ok {
			return info, errcode.InvalidPayload
		}
		return info, nil
	case <-time.After(time.Second):
		return types.DimmerInfo{}, errcode.Timeout
	}
}

func request(ctx context.Context, conn *bus.Connection, method string, payload any) (*bus.Message, error) {
	rctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return conn.RequestWait(rctx, conn.NewMessage(dimmer.ControlTopic(method), payload, false))
}

func control(ctx context.Context, conn *bus.Connection, method string, payload any) error {
	reply, err := request(ctx, conn, method, payload)
	if err != nil {
		return err
	}
	if e, ok := reply.Payload.(types.ErrorReply); ok {
		return errcode.Wrap(errcode.Code(e.Error), "dimmer."+method, "")
	}
	return nil
}
