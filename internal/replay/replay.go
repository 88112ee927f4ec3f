// Package replay streams a pre-recorded telemetry file out over a port
// channel, one record at a time, optionally forever.
package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/framing"
	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/port"
)

// ErrSourceRead wraps a missing or unreadable source file. It is fatal
// at startup; no partial transmission is attempted.
var ErrSourceRead = errors.New("replay: source unreadable")

// Config holds the immutable parameters for one replay run.
type Config struct {
	// SourcePath is the telemetry file to replay.
	SourcePath string
	// Loop restarts from the first record after the last one is sent.
	Loop bool
	// Interval paces consecutive records. Zero streams back-to-back.
	Interval time.Duration
	// MaxWriteAttempts bounds retries of a partially written record
	// before the write is surfaced as an error.
	MaxWriteAttempts int
}

// Session owns the ordered record sequence loaded from the source file
// and the replay cursor. It is created once per transmit run.
type Session struct {
	cfg     Config
	codec   *framing.Codec
	log     zerolog.Logger
	records []framing.Record
	cursor  int
}

// NewSession reads the whole source file and decodes it into records.
// A missing or unreadable source fails with ErrSourceRead. An empty
// source is valid and yields a session whose run is a no-op pass.
func NewSession(cfg Config, codec *framing.Codec, log zerolog.Logger) (*Session, error) {
	raw, err := os.ReadFile(cfg.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceRead, cfg.SourcePath, err)
	}
	if cfg.MaxWriteAttempts <= 0 {
		cfg.MaxWriteAttempts = 5
	}
	return &Session{
		cfg:     cfg,
		codec:   codec,
		log:     log,
		records: codec.Decode(raw),
	}, nil
}

// Len returns the number of records loaded from the source.
func (s *Session) Len() int { return len(s.records) }

// Run replays the record sequence onto ch. Each record goes out in file
// order, delimiter-terminated, one write per record. Under loop mode
// the cursor resets to zero after the final record; otherwise the run
// ends there. Cancellation is checked between records and during the
// pacing sleep, so no record after the cancellation point is sent. A
// write error aborts the current pass; retrying into a broken channel
// risks duplicate or corrupted framing.
func (s *Session) Run(ctx context.Context, ch port.Channel) error {
	if len(s.records) == 0 {
		return nil
	}
	for {
		for s.cursor = 0; s.cursor < len(s.records); s.cursor++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rec := s.records[s.cursor]
			if err := s.writeRecord(ch, rec); err != nil {
				return fmt.Errorf("write record %d: %w", s.cursor, err)
			}
			s.log.Info().Int("record", s.cursor).Bytes("data", rec).Msg("sent")
			if s.cfg.Interval > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.cfg.Interval):
				}
			}
		}
		if !s.cfg.Loop {
			return nil
		}
	}
}

// writeRecord writes one encoded record, retrying the unwritten
// remainder of a partial write up to MaxWriteAttempts times.
func (s *Session) writeRecord(ch port.Channel, rec framing.Record) error {
	buf := s.codec.Encode(rec)
	for attempt := 1; ; attempt++ {
		n, err := ch.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
		if len(buf) == 0 {
			return nil
		}
		if attempt >= s.cfg.MaxWriteAttempts {
			return fmt.Errorf("short write: %d bytes unwritten after %d attempts", len(buf), attempt)
		}
	}
}
