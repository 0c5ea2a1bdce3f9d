package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/petems/alsacap/internal/alsa"
	"github.com/petems/alsacap/internal/app"
	"github.com/petems/alsacap/internal/config"
	"github.com/petems/alsacap/internal/device"
	"github.com/petems/alsacap/internal/filesrc"
	"github.com/petems/alsacap/internal/logging"
	"github.com/petems/alsacap/internal/record"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

const (
	statsInterval = 5 * time.Second
	// fileIdleLimit ends a non-looping file capture once the clip is spent.
	fileIdleLimit = 10
)

func main() {
	var (
		configPath = flag.String("config", config.Path(), "config file")
		deviceID   = flag.String("device", "", "capture device: default, hw:C,D, plughw:C,D or file:<path>")
		rate       = flag.Int("rate", 0, "requested sample rate")
		channels   = flag.Int("channels", 0, "channel count to open")
		channel    = flag.Int("channel", 0, "channel kept in the mono output")
		formats    = flag.String("formats", "", "comma separated sample formats in preference order")
		out        = flag.String("out", "", `output: "-" for raw stdout, *.wav or a raw file`)
		duration   = flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
		loop       = flag.Bool("loop", false, "repeat file devices")
		logLevel   = flag.String("log-level", "", "trace, debug, info, warn or error")
		list       = flag.Bool("list", false, "list capture devices and exit")
	)
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Audio.DeviceID = *deviceID
		case "rate":
			cfg.Audio.SampleRate = *rate
		case "channels":
			cfg.Audio.Channels = *channels
		case "channel":
			cfg.Audio.Channel = *channel
		case "formats":
			cfg.Audio.Formats = strings.Split(*formats, ",")
		case "out":
			cfg.Output.Path = *out
		case "loop":
			cfg.Audio.Loop = *loop
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	log := logging.NewWithLevel(cfg.LogLevel)

	if *list {
		if err := listDevices(); err != nil {
			log.Fatal().Err(err).Msg("Failed to list devices")
		}
		return
	}

	if err := run(cfg, *duration, log); err != nil {
		log.Fatal().Err(err).Msg("Capture failed")
	}
}

func run(cfg *config.Config, duration time.Duration, log zerolog.Logger) error {
	params, err := cfg.Audio.CaptureParameters()
	if err != nil {
		return err
	}

	log.Info().Str("version", Version).Str("commit", Commit).Msg("alsacap starting...")

	capture, err := device.Open(params, device.Options{Loop: cfg.Audio.Loop}, log)
	if err != nil {
		return err
	}
	defer capture.Close()

	sink, err := record.Open(cfg.Output.Path, capture.SampleRate())
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close output")
		}
	}()

	idleLimit := 0
	if filesrc.IsFileDevice(params.Device) && !cfg.Audio.Loop {
		idleLimit = fileIdleLimit
	}

	application := app.New(app.Config{
		Capture:       capture,
		Sink:          sink,
		Logger:        log,
		StatusUpdater: statusLog{log: log},
		IdleLimit:     idleLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	ctx, done := context.WithCancel(ctx)

	g.Go(func() error {
		defer done()
		err := application.Run(ctx)
		if errors.Is(err, app.ErrIdle) && idleLimit > 0 {
			log.Info().Msg("End of file reached")
			return nil
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logStats(log, application.Stats())
				return nil
			case <-ticker.C:
				logStats(log, application.Stats())
			}
		}
	})

	return g.Wait()
}

func logStats(log zerolog.Logger, s app.Stats) {
	log.Info().
		Uint64("periods", s.Periods).
		Uint64("bytes", s.Bytes).
		Uint64("empty_reads", s.EmptyReads).
		Msg("Capture stats")
}

func listDevices() error {
	devices, err := alsa.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		fmt.Printf("%-10s %-16s %s\n", d.Name, d.ID, d.Title)
	}
	return nil
}

// statusLog reports loop state changes through the logger.
type statusLog struct {
	log zerolog.Logger
}

func (s statusLog) SetIdle()      { s.log.Debug().Msg("Capture idle") }
func (s statusLog) SetCapturing() { s.log.Debug().Msg("Capturing") }
func (s statusLog) SetError()     { s.log.Warn().Msg("Capture stopped on error") }
