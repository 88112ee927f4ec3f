// Package framing splits and joins delimiter-bounded telemetry records.
//
// Records are opaque byte sequences; the codec interprets nothing inside
// them. Delimiter matching is exact byte matching, greedy left-to-right
// and non-overlapping.
package framing

import (
	"bytes"
	"errors"
)

// ErrEmptyDelimiter is returned by NewCodec for a zero-length delimiter.
var ErrEmptyDelimiter = errors.New("framing: delimiter must not be empty")

// Record is one logical telemetry unit, transported verbatim between
// delimiter boundaries.
type Record []byte

// Codec frames records with a fixed delimiter.
type Codec struct {
	delim []byte
}

// NewCodec returns a codec bound to delim. The delimiter may be any
// non-empty byte sequence, including multi-byte ones like "\r\n".
func NewCodec(delim []byte) (*Codec, error) {
	if len(delim) == 0 {
		return nil, ErrEmptyDelimiter
	}
	c := &Codec{delim: make([]byte, len(delim))}
	copy(c.delim, delim)
	return c, nil
}

// Delimiter returns the configured delimiter bytes.
func (c *Codec) Delimiter() []byte { return c.delim }

// Decode splits raw into records on every delimiter occurrence. A single
// trailing empty record produced by a terminal delimiter is dropped, so
// "A,B," and "A,B" decode identically. Empty input yields no records.
func (c *Codec) Decode(raw []byte) []Record {
	if len(raw) == 0 {
		return nil
	}
	parts := bytes.Split(raw, c.delim)
	if len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	records := make([]Record, len(parts))
	for i, p := range parts {
		records[i] = Record(p)
	}
	return records
}

// Encode returns rec followed by the delimiter exactly once.
func (c *Codec) Encode(rec Record) []byte {
	out := make([]byte, 0, len(rec)+len(c.delim))
	out = append(out, rec...)
	return append(out, c.delim...)
}
