package transport

import (
	"fmt"

	"go.bug.st/serial"

	"github.com/opennetty/opennetty/internal/logging"
)

// SerialConfig selects the port and framing for a local serial
// transport, used by Nitoo and Zigbee USB dongles that expose the bus
// as a raw byte stream rather than over TCP.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
}

// DefaultSerialConfig returns the framing most USB OpenWebNet dongles
// use: 19200 8N1.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:     port,
		BaudRate: 19200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// OpenSerial opens a serial Connection per cfg.
func OpenSerial(cfg SerialConfig, logger logging.Logger) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrTransport, cfg.Port, err)
	}
	return newGenericConnection(port, logger), nil
}
