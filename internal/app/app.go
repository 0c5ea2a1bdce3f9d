//go:build unix

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/petems/alsacap/internal/audio"
	"github.com/petems/alsacap/internal/record"
)

const (
	defaultPollTimeout = 100 * time.Millisecond
	// maxPollErrors is how many consecutive POLLERR wakeups are tolerated.
	// A stream in overrun reports POLLERR until the next read restarts it;
	// an unplugged device reports it forever.
	maxPollErrors = 3
)

var (
	ErrRunning    = errors.New("capture loop already running")
	ErrDeviceGone = errors.New("audio device reported an error condition")
	ErrIdle       = errors.New("audio device stopped producing frames")
)

// Source is an open capture that can be polled for readiness.
type Source interface {
	Fd() int
	ReadPeriod(dst []byte) int
	PeriodBytes() int
}

// StatusUpdater is an interface for updating status (e.g., a progress line)
type StatusUpdater interface {
	SetIdle()
	SetCapturing()
	SetError()
}

type Config struct {
	Capture       Source
	Sink          record.Sink
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
	// PollTimeout bounds each wait so cancellation is noticed. Zero means 100ms.
	PollTimeout time.Duration
	// IdleLimit stops the loop after that many consecutive empty reads.
	// Zero disables the check.
	IdleLimit int
}

// Stats counts what the loop has moved so far.
type Stats struct {
	Periods    uint64
	Bytes      uint64
	EmptyReads uint64
}

type App struct {
	poll        func(fds []unix.PollFd, timeout int) (int, error)
	capture     Source
	sink        record.Sink
	log         zerolog.Logger
	status      StatusUpdater
	pollTimeout time.Duration
	idleLimit   int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	periods atomic.Uint64
	bytes   atomic.Uint64
	empty   atomic.Uint64
}

func New(cfg Config) *App {
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	return &App{
		poll:        unix.Poll,
		capture:     cfg.Capture,
		sink:        cfg.Sink,
		log:         cfg.Logger,
		status:      cfg.StatusUpdater,
		pollTimeout: timeout,
		idleLimit:   cfg.IdleLimit,
	}
}

// Run waits for the capture to become readable, reads one period at a time
// and hands every non-empty period to the sink. It returns nil once ctx is
// cancelled or Shutdown is called.
func (a *App) Run(ctx context.Context) (err error) {
	ctx, err = a.begin(ctx)
	if err != nil {
		return err
	}
	defer a.end()

	defer func() {
		if a.status == nil {
			return
		}
		if err != nil {
			a.status.SetError()
		} else {
			a.status.SetIdle()
		}
	}()

	fd := a.capture.Fd()
	if fd < 0 {
		a.log.Error().Msg("Capture has no readiness descriptor")
		return audio.ErrNoReadiness
	}

	buf := make([]byte, a.capture.PeriodBytes())
	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	timeout := int(a.pollTimeout.Milliseconds())
	idle, pollErrs := 0, 0

	a.log.Info().Int("fd", fd).Int("period_bytes", len(buf)).Msg("Capture started")
	if a.status != nil {
		a.status.SetCapturing()
	}

	for {
		if ctx.Err() != nil {
			a.log.Info().Uint64("periods", a.periods.Load()).Msg("Capture stopped")
			return nil
		}

		pfd[0].Revents = 0
		n, err := a.poll(pfd, timeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			a.log.Error().Err(err).Msg("Poll failed")
			return fmt.Errorf("poll audio descriptor: %w", err)
		}
		if n == 0 {
			continue
		}

		re := pfd[0].Revents
		if re&(unix.POLLHUP|unix.POLLNVAL) != 0 {
			a.log.Error().Int("revents", int(re)).Msg("Audio descriptor failed")
			return fmt.Errorf("%w: revents %#x", ErrDeviceGone, re)
		}
		if re&unix.POLLERR != 0 {
			pollErrs++
			if pollErrs > maxPollErrors {
				a.log.Error().Int("revents", int(re)).Int("poll_errors", pollErrs).Msg("Audio descriptor keeps failing")
				return fmt.Errorf("%w: revents %#x", ErrDeviceGone, re)
			}
			a.log.Warn().Int("revents", int(re)).Msg("Audio descriptor reported an error, reading to recover")
		} else {
			pollErrs = 0
		}
		if re&unix.POLLIN == 0 {
			continue
		}

		got := a.capture.ReadPeriod(buf)
		if got == 0 {
			a.empty.Add(1)
			idle++
			if a.idleLimit > 0 && idle >= a.idleLimit {
				a.log.Warn().Int("empty_reads", idle).Msg("No frames from device")
				return ErrIdle
			}
			continue
		}
		idle = 0

		if err := a.sink.WritePeriod(buf[:got]); err != nil {
			a.log.Error().Err(err).Msg("Sink write failed")
			return fmt.Errorf("write period: %w", err)
		}
		a.periods.Add(1)
		a.bytes.Add(uint64(got))
	}
}

func (a *App) begin(ctx context.Context) (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil, ErrRunning
	}
	ctx, a.cancel = context.WithCancel(ctx)
	a.running = true
	a.done = make(chan struct{})
	return ctx, nil
}

func (a *App) end() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancel()
	a.cancel = nil
	a.running = false
	close(a.done)
}

// Stats returns the counters accumulated across runs.
func (a *App) Stats() Stats {
	return Stats{
		Periods:    a.periods.Load(),
		Bytes:      a.bytes.Load(),
		EmptyReads: a.empty.Load(),
	}
}

func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Shutdown stops a running loop and waits for it to return, or for ctx to
// expire.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.cancel()
	done := a.done
	a.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
