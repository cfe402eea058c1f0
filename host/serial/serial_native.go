//go:build !wasm

package serial

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	serialConfig := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// OpenFunc opens a port; Open is the default.
type OpenFunc func(cfg *Config) (Port, error)

// OpenRetry keeps trying to open the port with exponential backoff until it
// succeeds, maxWait elapses or ctx is cancelled. Boards re-enumerate after a
// reset, so the device node may be missing for a while.
func OpenRetry(ctx context.Context, cfg *Config, maxWait time.Duration, open OpenFunc) (Port, error) {
	if open == nil {
		open = Open
	}
	var port Port
	op := func() error {
		p, err := open(cfg)
		if err != nil {
			return err
		}
		port = p
		return nil
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     50 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         2 * time.Second,
		MaxElapsedTime:      maxWait,
		Clock:               backoff.SystemClock}
	b.Reset()
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return port, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards buffered data on the port
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
