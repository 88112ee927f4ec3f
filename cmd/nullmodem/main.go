//go:build linux

// Command nullmodem provisions a pair of linked virtual serial ports by
// bridging two pty pairs, so a transmit and a receive process can talk
// without hardware. It prints the two device paths and relays bytes in
// both directions until interrupted.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "nullmodem: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	masterA, slaveA, err := pty.Open()
	if err != nil {
		return fmt.Errorf("open pty A: %w", err)
	}
	defer masterA.Close()
	defer slaveA.Close()

	masterB, slaveB, err := pty.Open()
	if err != nil {
		return fmt.Errorf("open pty B: %w", err)
	}
	defer masterB.Close()
	defer slaveB.Close()

	fmt.Printf("link ready: %s <-> %s\n", slaveA.Name(), slaveB.Name())

	errs := make(chan error, 2)
	go relay(masterA, masterB, errs)
	go relay(masterB, masterA, errs)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		return nil
	case err := <-errs:
		if err == io.EOF {
			return nil
		}
		return err
	}
}

func relay(dst io.Writer, src io.Reader, errs chan<- error) {
	_, err := io.Copy(dst, src)
	errs <- err
}
