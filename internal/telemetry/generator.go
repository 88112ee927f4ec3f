// Package telemetry generates CanSat-style telemetry files for replay
// runs, so a transmit session can be exercised without recorded flight
// data.
package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"
)

// Flight states, entered in order; the state advances every ten packets
// and the final state is held.
var States = []string{"LAUNCH_PAD", "ASCENT", "APOGEE", "DESCENT", "PROBE_RELEASE", "LANDED"}

// Header is the column set of one telemetry packet, in wire order.
var Header = []string{
	"TEAM_ID", "MISSION_TIME", "PACKET_COUNT", "MODE", "STATE",
	"ALTITUDE", "TEMPERATURE", "PRESSURE", "VOLTAGE",
	"GYRO_R", "GYRO_P", "GYRO_Y",
	"ACCEL_R", "ACCEL_P", "ACCEL_Y",
	"MAG_R", "MAG_P", "MAG_Y",
	"AUTO_GYRO_ROTATION_RATE", "GPS_TIME", "GPS_ALTITUDE",
	"GPS_LATITUDE", "GPS_LONGITUDE", "GPS_SATS", "CMD_ECHO", "CHECKSUM",
}

// altitudeRanges gives the plausible altitude band per flight state.
var altitudeRanges = map[string][2]float64{
	"LAUNCH_PAD":    {0, 0.1},
	"ASCENT":        {10, 1000},
	"APOGEE":        {1000, 1100},
	"DESCENT":       {500, 1000},
	"PROBE_RELEASE": {50, 500},
	"LANDED":        {0, 0.1},
}

// Config parameterizes a generated flight.
type Config struct {
	TeamID  string
	Start   time.Time
	Packets int
	Seed    int64
}

// Generator produces one simulated flight as CSV rows.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

func NewGenerator(cfg Config) *Generator {
	if cfg.TeamID == "" {
		cfg.TeamID = "3121"
	}
	if cfg.Packets <= 0 {
		cfg.Packets = 55
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// WriteCSV writes the header row followed by cfg.Packets telemetry
// rows, one per simulated second.
func (g *Generator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("telemetry: write header: %w", err)
	}
	at := g.cfg.Start
	for i := 0; i < g.cfg.Packets; i++ {
		if err := cw.Write(g.row(i, at)); err != nil {
			return fmt.Errorf("telemetry: write packet %d: %w", i+1, err)
		}
		at = at.Add(time.Second)
	}
	cw.Flush()
	return cw.Error()
}

func (g *Generator) row(i int, at time.Time) []string {
	state := States[min(i/10, len(States)-1)]
	alt := altitudeRanges[state]
	missionTime := at.Format("15:04:05")
	cmd := "CAL"
	if state == "LAUNCH_PAD" {
		cmd = "CXON"
	}
	row := []string{
		g.cfg.TeamID,
		missionTime,
		strconv.Itoa(i + 1),
		"F",
		state,
		g.f1(alt[0], alt[1]),
		g.f1(-5.0, 35.0),                      // temperature, C
		g.f1(80.0, 120.0),                     // pressure, kPa
		g.f2(3.5, 4.2),                        // battery voltage
		g.f2(-5, 5), g.f2(-5, 5), g.f2(-5, 5), // gyro r/p/y
		g.f2(-2, 2), g.f2(-2, 2), g.f2(-2, 2), // accel r/p/y
		g.f2(-1, 1), g.f2(-1, 1), g.f2(-1, 1), // mag r/p/y
		strconv.Itoa(g.rng.Intn(361)), // auto-gyro rotation rate
		missionTime,                   // GPS time tracks mission time
		g.f2(0, 1000),
		g.fdp(-90, 90, 4),
		g.fdp(-180, 180, 4),
		strconv.Itoa(3 + g.rng.Intn(10)), // GPS sats, 3..12
		cmd,
	}
	return append(row, strconv.Itoa(Checksum(row)))
}

// Checksum folds a packet into the original ground station's 8-bit
// check value: sum the ASCII values of the comma-joined fields (with a
// trailing comma) over at most 150 characters, mask to 16 bits, then
// complement the sum of the two result bytes.
func Checksum(fields []string) int {
	joined := ""
	for _, f := range fields {
		joined += f + ","
	}
	sum := 0
	for i, ch := range []byte(joined) {
		if i >= 150 || ch == 0 {
			break
		}
		sum += int(ch)
	}
	sum &= 0xFFFF
	return ^((sum & 0xFF) + (sum >> 8 & 0xFF)) & 0xFF
}

func (g *Generator) f1(lo, hi float64) string {
	return strconv.FormatFloat(lo+g.rng.Float64()*(hi-lo), 'f', 1, 64)
}

func (g *Generator) f2(lo, hi float64) string {
	return strconv.FormatFloat(lo+g.rng.Float64()*(hi-lo), 'f', 2, 64)
}

func (g *Generator) fdp(lo, hi float64, dp int) string {
	return strconv.FormatFloat(lo+g.rng.Float64()*(hi-lo), 'f', dp, 64)
}
