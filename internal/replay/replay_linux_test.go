package replay

import (
	"context"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/port"
)

func TestRunOverVirtualLink(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	ch, err := port.Open(port.Config{Device: slave.Name(), BaudRate: 115200, Driver: port.DriverNative})
	require.NoError(t, err)
	t.Cleanup(func() { ch.Close() })

	path := writeSource(t, "3121,1,F,LAUNCH_PAD\n3121,2,F,ASCENT\n")
	s := newTestSession(t, Config{SourcePath: path}, "\n")

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), ch) }()

	// Collect until both delimiters arrive at the far end.
	deadline := time.After(2 * time.Second)
	var wire []byte
	buf := make([]byte, 64)
	for countByte(wire, '\n') < 2 {
		select {
		case <-deadline:
			t.Fatalf("timeout, wire so far: %q", wire)
		default:
		}
		n, err := master.Read(buf)
		require.NoError(t, err)
		wire = append(wire, buf[:n]...)
	}

	require.Equal(t, "3121,1,F,LAUNCH_PAD\n3121,2,F,ASCENT\n", string(wire))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for replay to finish")
	}
}

func countByte(b []byte, c byte) int {
	n := 0
	for _, x := range b {
		if x == c {
			n++
		}
	}
	return n
}
