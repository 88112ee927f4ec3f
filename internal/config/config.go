// Package config assembles and validates the run configuration for one
// emulator process.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Modes of operation. A process runs exactly one.
const (
	ModeTransmit = "transmit"
	ModeReceive  = "receive"
)

// Config is the full configuration surface of one run. Values come
// from defaults, then an optional TOML file, then CLI flag overrides,
// and are immutable once validated.
type Config struct {
	Port     string `toml:"port"`
	BaudRate int    `toml:"baud_rate"`
	Mode     string `toml:"mode"`
	Driver   string `toml:"driver"`

	// Transmit-only.
	SourcePath string `toml:"source_path"`
	Loop       bool   `toml:"loop"`
	Interval   string `toml:"interval"`

	Delimiter        string `toml:"delimiter"`
	ReadChunk        int    `toml:"read_chunk"`
	MaxRecordBytes   int    `toml:"max_record_bytes"`
	MaxWriteAttempts int    `toml:"max_write_attempts"`
}

// Default returns the baseline configuration before any file or flag
// input.
func Default() Config {
	return Config{
		BaudRate:         9600,
		Driver:           "native",
		Interval:         "1s",
		Delimiter:        "\n",
		ReadChunk:        1024,
		MaxRecordBytes:   64 * 1024,
		MaxWriteAttempts: 5,
	}
}

// Load reads a TOML file over the defaults. Fields absent from the
// file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks the assembled configuration. Messages name the
// offending field and value so the operator can act.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("config: port is required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("config: baud_rate must be positive, got %d", c.BaudRate)
	}
	if c.Mode != ModeTransmit && c.Mode != ModeReceive {
		return fmt.Errorf("config: mode must be %q or %q, got %q", ModeTransmit, ModeReceive, c.Mode)
	}
	if c.Driver != "native" && c.Driver != "portable" {
		return fmt.Errorf("config: driver must be \"native\" or \"portable\", got %q", c.Driver)
	}
	if c.Delimiter == "" {
		return fmt.Errorf("config: delimiter must not be empty")
	}
	if c.Mode == ModeTransmit {
		if strings.TrimSpace(c.SourcePath) == "" {
			return fmt.Errorf("config: source_path is required in transmit mode")
		}
		if _, err := c.ParseInterval(); err != nil {
			return err
		}
	}
	if c.ReadChunk <= 0 {
		return fmt.Errorf("config: read_chunk must be positive, got %d", c.ReadChunk)
	}
	if c.MaxRecordBytes < 0 {
		return fmt.Errorf("config: max_record_bytes must be >= 0, got %d", c.MaxRecordBytes)
	}
	if c.MaxWriteAttempts <= 0 {
		return fmt.Errorf("config: max_write_attempts must be positive, got %d", c.MaxWriteAttempts)
	}
	return nil
}

// ParseInterval parses the pacing interval. An empty value means no
// pacing.
func (c Config) ParseInterval() (time.Duration, error) {
	if strings.TrimSpace(c.Interval) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("config: parse interval %q: %w", c.Interval, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: interval must be >= 0, got %s", d)
	}
	return d, nil
}

// DelimiterBytes resolves the configured delimiter with backslash
// escapes expanded, so "\r\n" is expressible from a shell flag.
func (c Config) DelimiterBytes() ([]byte, error) {
	return ParseDelimiter(c.Delimiter)
}

// ParseDelimiter expands \n, \r, \t, \0 and \\ escapes in s. Any other
// content passes through verbatim.
func ParseDelimiter(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			out = append(out, s[i])
			continue
		}
		i++
		if i == len(s) {
			return nil, fmt.Errorf("config: delimiter ends with bare backslash")
		}
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '0':
			out = append(out, 0)
		case '\\':
			out = append(out, '\\')
		default:
			return nil, fmt.Errorf("config: unknown delimiter escape \\%c", s[i])
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("config: delimiter must not be empty")
	}
	return out, nil
}
