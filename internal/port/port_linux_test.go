package port

import (
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func openTestChannel(t *testing.T, driver string) (Channel, *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	ch, err := Open(Config{Device: slave.Name(), BaudRate: 115200, Driver: driver})
	require.NoError(t, err)
	t.Cleanup(func() { ch.Close() })
	return ch, master
}

func TestOpenUnknownDevice(t *testing.T) {
	_, err := Open(Config{Device: "/dev/does-not-exist-ttyUSB99", BaudRate: 9600})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(Config{Device: "", BaudRate: 9600})
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = Open(Config{Device: "/dev/null", BaudRate: 0})
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = Open(Config{Device: "/dev/null", BaudRate: 9600, Driver: "bogus"})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNativeOpenRejectsUnsupportedBaud(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	_, err = Open(Config{Device: slave.Name(), BaudRate: 12345, Driver: DriverNative})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNativeReadWrite(t *testing.T) {
	ch, peer := openTestChannel(t, DriverNative)

	// Peer writes, channel reads.
	_, err := peer.Write([]byte("ping\n"))
	require.NoError(t, err)

	got := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := ch.Read(buf)
		if err != nil {
			errs <- err
			return
		}
		got <- string(buf[:n])
	}()

	select {
	case s := <-got:
		require.Equal(t, "ping\n", s)
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read")
	}

	// Channel writes, peer reads.
	n, err := ch.Write([]byte("pong\n"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 64)
	n, err = peer.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "pong\n", string(buf[:n]))
}

func TestNativeCloseUnblocksRead(t *testing.T) {
	ch, _ := openTestChannel(t, DriverNative)

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		_, err := ch.Read(buf)
		done <- err
	}()

	// Give the goroutine a chance to block in poll.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, ch.Close())

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for Read to unblock after Close")
	}

	// Subsequent operations fail fast.
	_, err := ch.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)

	// Close is idempotent.
	require.NoError(t, ch.Close())
}

func TestPortableReadWrite(t *testing.T) {
	ch, peer := openTestChannel(t, DriverPortable)

	_, err := peer.Write([]byte("hello\n"))
	require.NoError(t, err)

	got := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := ch.Read(buf)
		if err != nil {
			errs <- err
			return
		}
		got <- string(buf[:n])
	}()

	select {
	case s := <-got:
		require.Equal(t, "hello\n", s)
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read")
	}

	_, err = ch.Write([]byte("back\n"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := peer.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "back\n", string(buf[:n]))
}
