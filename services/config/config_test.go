// config/config_test.go
package config

import (
	"context"
	"testing"
	"time"

	"bham-go/bus"
	"bham-go/errcode"
	"bham-go/types"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "bench" {
			return nil, false
		}
		return []byte(`{
			"dimmer": {"channels": 2, "samples": 15},
			"debug": true
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "bench")
	svc.Start(ctx, conn)

	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 2 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if !m.Retained {
				t.Fatalf("config message on %v not retained", m.Topic)
			}
			key, ok := m.Topic[1].(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic[1])
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 retained messages, got %v", got)
	}
	if v, ok := got["debug"].(bool); !ok || !v {
		t.Fatalf("debug payload = %#v", got["debug"])
	}

	var dc types.DimmerConfig
	if err := Decode(got["dimmer"], &dc); err != nil {
		t.Fatalf("Decode dimmer: %v", err)
	}
	if dc.Channels != 2 || dc.Samples != 15 {
		t.Fatalf("dimmer config = %+v", dc)
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	conn := bus.NewBus(4).NewConnection("test")
	err := NewConfigService().publishConfig(context.Background(), conn)
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err = %v, want invalid_params", err)
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	conn := bus.NewBus(4).NewConnection("test")
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "unknown-device")
	if err := NewConfigService().publishConfig(ctx, conn); errcode.Of(err) != errcode.NotReady {
		t.Fatalf("err = %v, want not_ready", err)
	}
}

func TestConfig_PublishConfig_BadJSON(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return []byte(`[1,2`), true }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	conn := bus.NewBus(4).NewConnection("test")
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "x")
	if err := NewConfigService().publishConfig(ctx, conn); errcode.Of(err) != errcode.InvalidPayload {
		t.Fatalf("err = %v, want invalid_payload", err)
	}
}

func TestEmbeddedConfigsDecode(t *testing.T) {
	for dev, raw := range embeddedConfigs {
		var m map[string]any
		if err := Decode(raw, &m); err != nil {
			t.Fatalf("%s: %v", dev, err)
		}
		var dc types.DimmerConfig
		if err := Decode(m["dimmer"], &dc); err != nil {
			t.Fatalf("%s dimmer: %v", dev, err)
		}
		if dc.Channels == 0 || len(dc.Levels) != dc.Channels {
			t.Fatalf("%s: dimmer config %+v", dev, dc)
		}
		var hb types.HeartbeatConfig
		if err := Decode(m["heartbeat"], &hb); err != nil || hb.IntervalMs == 0 {
			t.Fatalf("%s heartbeat: %+v, %v", dev, hb, err)
		}
	}
}

func TestDecodeTypedPayload(t *testing.T) {
	in := types.DimmerSet{Levels: []uint16{1, 2}}
	var out types.DimmerSet
	if err := Decode(in, &out); err != nil || len(out.Levels) != 2 {
		t.Fatalf("Decode typed = %+v, %v", out, err)
	}
	if err := Decode(`{"levels":[3]}`, &out); err != nil || out.Levels[0] != 3 {
		t.Fatalf("Decode string = %+v, %v", out, err)
	}
}
