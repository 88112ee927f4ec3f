package telemetry

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, cfg Config) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(cfg).WriteCSV(&buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSVShape(t *testing.T) {
	rows := generate(t, Config{Packets: 55, Start: time.Date(2025, 11, 14, 13, 0, 0, 0, time.UTC)})
	require.Len(t, rows, 56) // header + packets
	require.Equal(t, Header, rows[0])
	for i, row := range rows[1:] {
		require.Len(t, row, len(Header), "packet %d", i+1)
	}
}

func TestPacketCountAndMissionTimeAdvance(t *testing.T) {
	start := time.Date(2025, 11, 14, 13, 0, 0, 0, time.UTC)
	rows := generate(t, Config{Packets: 3, Start: start})

	require.Equal(t, "1", rows[1][2])
	require.Equal(t, "2", rows[2][2])
	require.Equal(t, "3", rows[3][2])

	require.Equal(t, "13:00:00", rows[1][1])
	require.Equal(t, "13:00:01", rows[2][1])
	require.Equal(t, "13:00:02", rows[3][1])
}

func TestStateProgression(t *testing.T) {
	rows := generate(t, Config{Packets: 55})

	require.Equal(t, "LAUNCH_PAD", rows[1][4])
	require.Equal(t, "ASCENT", rows[11][4])
	require.Equal(t, "APOGEE", rows[21][4])
	require.Equal(t, "DESCENT", rows[31][4])
	require.Equal(t, "PROBE_RELEASE", rows[41][4])
	require.Equal(t, "LANDED", rows[51][4])
	// The final state is held past the end of the table.
	require.Equal(t, "LANDED", rows[55][4])
}

func TestChecksumMatchesRow(t *testing.T) {
	rows := generate(t, Config{Packets: 10})
	for i, row := range rows[1:] {
		want, err := strconv.Atoi(row[len(row)-1])
		require.NoError(t, err)
		require.Equal(t, want, Checksum(row[:len(row)-1]), "packet %d", i+1)
	}
}

func TestChecksumProperties(t *testing.T) {
	// 8-bit range.
	cs := Checksum([]string{"3121", "13:00:00", "1", "F", "LAUNCH_PAD"})
	require.GreaterOrEqual(t, cs, 0)
	require.LessOrEqual(t, cs, 0xFF)

	// Only the first 150 characters participate.
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	require.Equal(t, Checksum([]string{string(long[:200])}), Checksum([]string{string(long)}))
}

func TestDeterministicWithSeed(t *testing.T) {
	a := generate(t, Config{Packets: 20, Seed: 42})
	b := generate(t, Config{Packets: 20, Seed: 42})
	require.Equal(t, a, b)
}
