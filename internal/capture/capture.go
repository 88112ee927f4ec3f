// Package capture recovers record boundaries from a live, chunked byte
// stream whose read boundaries carry no relation to record boundaries.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/framing"
	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/port"
)

// ErrRecordTooLarge is returned when an undelimited run exceeds the
// configured maximum record length.
var ErrRecordTooLarge = errors.New("capture: record exceeds maximum length")

// Config holds tunables for one reception run.
type Config struct {
	// ReadChunk caps the size of a single port read.
	ReadChunk int
	// MaxRecordBytes bounds how many accumulated bytes may pile up
	// without a delimiter before the run fails with ErrRecordTooLarge.
	// Zero disables the bound.
	MaxRecordBytes int
}

// Receiver reassembles delimiter-framed records from a port channel.
// The accumulator keeps unconsumed bytes across reads, so a delimiter
// split between two reads is still matched.
type Receiver struct {
	cfg   Config
	codec *framing.Codec
	log   zerolog.Logger

	buf []byte
}

func NewReceiver(cfg Config, codec *framing.Codec, log zerolog.Logger) *Receiver {
	if cfg.ReadChunk <= 0 {
		cfg.ReadChunk = 1024
	}
	return &Receiver{cfg: cfg, codec: codec, log: log}
}

// Run reads from ch until the channel closes, the context is cancelled,
// or the record bound is exceeded. Every completed record is passed to
// emit in arrival order. A read error is treated as link closure: it is
// logged and the run ends cleanly, discarding any unterminated bytes in
// the accumulator as incomplete.
func (r *Receiver) Run(ctx context.Context, ch port.Channel, emit func(framing.Record)) error {
	chunk := make([]byte, r.cfg.ReadChunk)
	delim := r.codec.Delimiter()
	for {
		n, err := ch.Read(chunk)
		if n > 0 {
			r.buf = append(r.buf, chunk[:n]...)
			for {
				idx := bytes.Index(r.buf, delim)
				if idx < 0 {
					break
				}
				rec := make(framing.Record, idx)
				copy(rec, r.buf[:idx])
				r.buf = r.buf[idx+len(delim):]
				emit(rec)
			}
			if r.cfg.MaxRecordBytes > 0 && len(r.buf) > r.cfg.MaxRecordBytes {
				return fmt.Errorf("%w: %d buffered bytes without a delimiter (limit %d)",
					ErrRecordTooLarge, len(r.buf), r.cfg.MaxRecordBytes)
			}
		}
		if err != nil {
			if errors.Is(err, port.ErrClosed) || ctx.Err() != nil {
				r.log.Debug().Int("pending_bytes", len(r.buf)).Msg("link closed, reception done")
				return nil
			}
			r.log.Warn().Err(err).Int("pending_bytes", len(r.buf)).
				Msg("read failed, treating link as closed")
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		// A zero-byte read is not an error; retry.
	}
}
