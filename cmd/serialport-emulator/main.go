// Command serialport-emulator replays a telemetry file over a serial
// port, or captures delimiter-framed records arriving on one. One
// process runs exactly one of the two loops.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/capture"
	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/config"
	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/framing"
	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/observability"
	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/port"
	"github.com/Bamantara-EEPISAT/serialport-emulator/internal/replay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "serialport-emulator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "optional TOML config file")
		portDev    = flag.String("port", "", "serial device (e.g. /dev/ttyUSB0)")
		baud       = flag.Int("baud", 0, "baud rate")
		mode       = flag.String("mode", "", "transmit or receive")
		driver     = flag.String("driver", "", "port driver: native or portable")
		file       = flag.String("file", "", "telemetry source file (transmit mode)")
		loop       = flag.Bool("loop", false, "retransmit the source file indefinitely")
		delimiter  = flag.String("delimiter", "", `record delimiter, supports \n \r \t \0 escapes`)
		interval   = flag.String("interval", "", "pacing between records, e.g. 1s or 250ms (0 for none)")
	)
	flag.Parse()

	cfg, err := assemble(*configPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *portDev
		case "baud":
			cfg.BaudRate = *baud
		case "mode":
			cfg.Mode = *mode
		case "driver":
			cfg.Driver = *driver
		case "file":
			cfg.SourcePath = *file
		case "loop":
			cfg.Loop = *loop
		case "delimiter":
			cfg.Delimiter = *delimiter
		case "interval":
			cfg.Interval = *interval
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	delim, err := cfg.DelimiterBytes()
	if err != nil {
		return err
	}
	codec, err := framing.NewCodec(delim)
	if err != nil {
		return err
	}

	log := observability.InitLogger("serialport-emulator")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch, err := port.Open(port.Config{Device: cfg.Port, BaudRate: cfg.BaudRate, Driver: cfg.Driver})
	if err != nil {
		return err
	}
	defer ch.Close()

	// Close the channel on cancellation so a blocked read returns.
	go func() {
		<-ctx.Done()
		ch.Close()
	}()

	log.Info().Str("port", cfg.Port).Int("baud", cfg.BaudRate).Str("mode", cfg.Mode).Msg("link open")

	switch cfg.Mode {
	case config.ModeTransmit:
		pacing, err := cfg.ParseInterval()
		if err != nil {
			return err
		}
		return transmit(ctx, cfg, pacing, codec, ch, log)
	case config.ModeReceive:
		rx := capture.NewReceiver(capture.Config{
			ReadChunk:      cfg.ReadChunk,
			MaxRecordBytes: cfg.MaxRecordBytes,
		}, codec, log)
		return rx.Run(ctx, ch, func(rec framing.Record) {
			os.Stdout.Write(append(rec, '\n'))
		})
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func assemble(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func transmit(ctx context.Context, cfg config.Config, pacing time.Duration,
	codec *framing.Codec, ch port.Channel, log zerolog.Logger) error {

	session, err := replay.NewSession(replay.Config{
		SourcePath:       cfg.SourcePath,
		Loop:             cfg.Loop,
		Interval:         pacing,
		MaxWriteAttempts: cfg.MaxWriteAttempts,
	}, codec, log)
	if err != nil {
		return err
	}
	log.Info().Int("records", session.Len()).Bool("loop", cfg.Loop).
		Str("source", cfg.SourcePath).Msg("replay starting")

	err = session.Run(ctx, ch)
	// Cancellation may also surface as a closed-port write when the
	// signal handler closes the channel mid-write.
	if errors.Is(err, context.Canceled) || (ctx.Err() != nil && errors.Is(err, port.ErrClosed)) {
		log.Info().Msg("replay cancelled")
		return nil
	}
	return err
}
