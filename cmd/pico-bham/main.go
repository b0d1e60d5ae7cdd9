//go:build rp2040

// Command pico-bham dims the LEDs on a 74HC595 chain from a Raspberry Pi
// Pico. SPI0 clocks the chain (GP18 SCK, GP19 SDO), GP17 latches it and a
// status line goes out on UART0 (GP0 TX, GP1 RX).
package main

import (
	"context"
	"machine"
	"runtime"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"bham-go/bus"
	"bham-go/drivers/hc595"
	"bham-go/services/config"
	"bham-go/services/dimmer"
	"bham-go/services/heartbeat"
	"bham-go/types"
)

const (
	pinSCK   = machine.GP18
	pinSDO   = machine.GP19
	pinLatch = machine.GP17
	pinTX    = machine.GP0
	pinRX    = machine.GP1

	consoleBaud  = 115200
	defaultSPIHz = 4_000_000
)

func main() {
	time.Sleep(1500 * time.Millisecond)
	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")

	println("[main] bootstrapping bus …")
	b := bus.NewBus(4)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	_ = uartx.UART0.Configure(uartx.UARTConfig{BaudRate: consoleBaud, TX: pinTX, RX: pinRX})

	sr := shiftRegConfig(b.NewConnection("main"), 500*time.Millisecond)
	spiHz := sr.SPIHz
	if spiHz == 0 {
		spiHz = defaultSPIHz
	}
	if err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: spiHz,
		SCK:       pinSCK,
		SDO:       pinSDO,
		Mode:      0,
	}); err != nil {
		println("[main] spi0 configure failed:", err.Error())
		return
	}
	pinLatch.Configure(machine.PinConfig{Mode: machine.PinOutput})

	chain := hc595.New(machine.SPI0, pinLatch)
	if err := chain.Configure(hc595.Config{Chips: sr.Chips, ActiveLow: sr.ActiveLow}); err != nil {
		println("[main] hc595:", err.Error(), "- falling back to one chip")
		_ = chain.Configure(hc595.Config{ActiveLow: sr.ActiveLow})
	}
	_ = chain.Clear()
	println("[main] hc595 chain ready, chips=", chain.Chips())

	println("[main] starting dimmer …")
	if err := (&dimmer.Service{Sink: chain}).Start(ctx, b.NewConnection("dimmer")); err != nil {
		println("[main] dimmer:", err.Error())
		return
	}
	if err := (&heartbeat.Service{Out: uartx.UART0}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("[main] heartbeat:", err.Error())
	}

	for {
		printMem()
		time.Sleep(10 * time.Second)
	}
}

// shiftRegConfig waits briefly for config/hc595 and falls back to the zero
// config (one chip, active high) when the board has none.
func shiftRegConfig(conn *bus.Connection, wait time.Duration) types.ShiftRegConfig {
	sub := conn.Subscribe(config.Topic("hc595"))
	defer conn.Unsubscribe(sub)

	var sr types.ShiftRegConfig
	select {
	case m := <-sub.Channel():
		if err := config.Decode(m.Payload, &sr); err != nil {
			println("[main] config/hc595 ignored:", err.Error())
		}
	case <-time.After(wait):
		println("[main] no config/hc595, assuming one chip")
	}
	return sr
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
