package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Eight LEDs on one 74HC595; 64 levels at 15.36 kHz gives a 240 Hz frame.
const cfgPico = `{
  "dimmer": {
    "channels": 8,
    "samples": 64,
    "tick_hz": 15360,
    "policy": "clamp",
    "levels": [0, 1, 4, 9, 16, 25, 36, 63]
  },
  "hc595": {
    "chips": 1,
    "spi_hz": 8000000
  },
  "heartbeat": {
    "interval_ms": 2000
  }
}`

// Mirrors the classic four-pin bench demo.
const cfgHost = `{
  "dimmer": {
    "channels": 4,
    "samples": 15,
    "tick_hz": 3600,
    "levels": [0, 4, 9, 14]
  },
  "heartbeat": {
    "interval_ms": 500
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"host": []byte(cfgHost),
}
