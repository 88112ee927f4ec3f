package port

import (
	"errors"
	"io"
	"sync"

	serial "go.bug.st/serial"
)

// portableChannel wraps go.bug.st/serial for hosts where the native
// termios driver is not available.
type portableChannel struct {
	port      serial.Port
	done      chan struct{}
	closeOnce sync.Once
}

func openPortable(cfg Config) (Channel, error) {
	p, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, err
	}
	return &portableChannel{port: p, done: make(chan struct{})}, nil
}

func (c *portableChannel) Read(p []byte) (int, error) {
	n, err := c.port.Read(p)
	select {
	case <-c.done:
		return n, ErrClosed
	default:
	}
	if err != nil {
		var pe *serial.PortError
		if errors.Is(err, io.EOF) || (errors.As(err, &pe) && pe.Code() == serial.PortClosed) {
			return n, ErrClosed
		}
		return n, err
	}
	return n, nil
}

func (c *portableChannel) Write(p []byte) (int, error) {
	select {
	case <-c.done:
		return 0, ErrClosed
	default:
	}
	return c.port.Write(p)
}

// Close closes the device; go.bug.st/serial unblocks any pending Read,
// which then surfaces as ErrClosed.
func (c *portableChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.port.Close()
	})
	return err
}
