package types

// ------------------------
// Board wiring (config/hc595, config/heartbeat)
// ------------------------

// ShiftRegConfig describes the 74HC595 chain behind the dimmer.
type ShiftRegConfig struct {
	Chips     int    `json:"chips"`
	ActiveLow bool   `json:"active_low,omitempty"` // LEDs wired to VCC
	SPIHz     uint32 `json:"spi_hz,omitempty"`
}

// HeartbeatConfig sets how often the console status line is written.
type HeartbeatConfig struct {
	IntervalMs uint32 `json:"interval_ms"`
}
