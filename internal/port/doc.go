// Package port opens serial devices as raw byte channels for the
// telemetry replay and capture loops.
//
// Two drivers are provided:
//   - "native" (Linux only): raw syscall-based serial I/O with no
//     buffering delays, configured through termios. Reads block in
//     poll(2) on the device fd and a self-pipe, so Close promptly
//     unblocks a blocked Read.
//   - "portable": go.bug.st/serial, for non-Linux hosts or when the
//     native driver cannot be used.
//
// The channel adds no buffering beyond what the device driver provides;
// record framing lives in the framing and capture packages.
package port
