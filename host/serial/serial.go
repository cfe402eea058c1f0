package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string `koanf:"device" yaml:"device"`

	// Baud rate; the firmware runs UART0 at 115200
	Baud int `koanf:"baud" yaml:"baud"`

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int `koanf:"read_timeout_ms" yaml:"read_timeout_ms"`
}

// DefaultConfig returns the telemetry link settings for a board on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
