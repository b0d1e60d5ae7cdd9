package types

// ------------------------
// Dimmer configuration (config/dimmer)
// ------------------------

type DimmerConfig struct {
	Channels   int      `json:"channels"`
	Samples    int      `json:"samples,omitempty"`    // realignment window; 0 = default
	Resolution uint16   `json:"resolution,omitempty"` // 0 = samples
	TickHz     uint32   `json:"tick_hz,omitempty"`    // 0 = 4 kHz
	Policy     string   `json:"policy,omitempty"`     // "degrade", "clamp", "reject"
	Levels     []uint16 `json:"levels,omitempty"`     // initial levels
}

// DimmerInfo is published retained once the bank is built.
type DimmerInfo struct {
	Channels   int    `json:"channels"`
	Samples    int    `json:"samples"`
	Resolution uint16 `json:"resolution"`
	TickHz     uint32 `json:"tick_hz"`
	Policy     string `json:"policy"`
}

// ------------------------
// Dimmer payloads
// ------------------------

type DimmerValue struct {
	Levels   []uint16 `json:"levels"`
	Tick     int      `json:"tick"`
	Overruns uint32   `json:"overruns"`
}

type DimmerSet struct {
	Levels []uint16 `json:"levels"` // one per channel, 0..resolution-1
}

type DimmerChannelSet struct {
	Channel int    `json:"channel"`
	Level   uint16 `json:"level"`
}

type DimmerChannel struct {
	Channel int `json:"channel"`
}

type DimmerRamp struct {
	Channel    int    `json:"channel"`
	To         uint16 `json:"to"`
	DurationMs uint32 `json:"duration_ms"`
	Steps      uint16 `json:"steps"` // 0 snaps to To
}
