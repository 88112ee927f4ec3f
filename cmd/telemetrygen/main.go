// Command telemetrygen writes a simulated CanSat flight to a CSV file
// suitable for replay with serialport-emulator.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/telemetry"
)

func main() {
	var (
		out     = flag.String("out", "telemetry_data.csv", "output file (- for stdout)")
		teamID  = flag.String("team", "3121", "team identifier")
		packets = flag.Int("packets", 55, "number of telemetry packets")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	gen := telemetry.NewGenerator(telemetry.Config{
		TeamID:  *teamID,
		Start:   time.Now().Truncate(time.Second),
		Packets: *packets,
		Seed:    *seed,
	})

	w := os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "telemetrygen: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	if err := gen.WriteCSV(w); err != nil {
		fmt.Fprintf(os.Stderr, "telemetrygen: %v\n", err)
		os.Exit(1)
	}
	if *out != "-" {
		fmt.Printf("wrote %d packets to %s\n", *packets, *out)
	}
}
