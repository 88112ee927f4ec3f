package port

import (
	"errors"
	"fmt"
)

// Driver selects the port implementation.
const (
	DriverNative   = "native"
	DriverPortable = "portable"
)

var (
	// ErrUnavailable wraps any failure to open the configured device.
	ErrUnavailable = errors.New("port: unavailable")
	// ErrClosed is returned by Read and Write after Close, including
	// when Close unblocks an in-flight Read.
	ErrClosed = errors.New("port: closed")
)

// Config holds the immutable parameters for opening a serial port.
type Config struct {
	Device   string
	BaudRate int
	Driver   string // DriverNative or DriverPortable
}

// Channel is an open serial device handle. Read blocks until at least
// one byte is available or the channel is closed; neither Read nor
// Write adds buffering. A Channel is owned by exactly one loop and is
// never shared.
type Channel interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Open opens the configured device. Failures wrap ErrUnavailable with
// the device path so the operator can act on the message.
func Open(cfg Config) (Channel, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("%w: no device configured", ErrUnavailable)
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("%w: invalid baud rate %d", ErrUnavailable, cfg.BaudRate)
	}
	var (
		ch  Channel
		err error
	)
	switch cfg.Driver {
	case DriverNative, "":
		ch, err = openNative(cfg)
	case DriverPortable:
		ch, err = openPortable(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrUnavailable, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, cfg.Device, err)
	}
	return ch, nil
}
