//go:build unix

package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/petems/alsacap/internal/audio"
)

// Mock implementations for testing

// mockSource is readable whenever its pipe holds a byte. Each ReadPeriod
// consumes one byte and returns the next scripted period.
type mockSource struct {
	r, w    *os.File
	fd      int
	mu      sync.Mutex
	periods [][]byte
}

func newMockSource(t *testing.T, periods ...[]byte) *mockSource {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return &mockSource{r: r, w: w, fd: int(r.Fd()), periods: periods}
}

// tick makes the source readable n more times.
func (m *mockSource) tick(t *testing.T, n int) {
	t.Helper()
	_, err := m.w.Write(make([]byte, n))
	require.NoError(t, err)
}

func (m *mockSource) Fd() int          { return m.fd }
func (m *mockSource) PeriodBytes() int { return 4 }

func (m *mockSource) ReadPeriod(dst []byte) int {
	var b [1]byte
	if _, err := m.r.Read(b[:]); err != nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.periods) == 0 {
		return 0
	}
	p := m.periods[0]
	m.periods = m.periods[1:]
	return copy(dst, p)
}

type mockSink struct {
	mu      sync.Mutex
	periods [][]byte
	err     error
	// onWrite runs after every successful write with the period count.
	onWrite func(n int)
}

func (m *mockSink) WritePeriod(p []byte) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.periods = append(m.periods, append([]byte(nil), p...))
	n := len(m.periods)
	m.mu.Unlock()
	if m.onWrite != nil {
		m.onWrite(n)
	}
	return nil
}

func (m *mockSink) Close() error { return nil }

type mockStatus struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockStatus) record(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, s)
}

func (m *mockStatus) SetIdle()      { m.record("idle") }
func (m *mockStatus) SetCapturing() { m.record("capturing") }
func (m *mockStatus) SetError()     { m.record("error") }

func (m *mockStatus) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func newApp(src Source, sink *mockSink, status *mockStatus) *App {
	cfg := Config{
		Capture:     src,
		Sink:        sink,
		Logger:      zerolog.Nop(),
		PollTimeout: 10 * time.Millisecond,
	}
	if status != nil {
		cfg.StatusUpdater = status
	}
	return New(cfg)
}

func TestRunForwardsPeriods(t *testing.T) {
	src := newMockSource(t, []byte{0, 1, 0, 2}, nil, []byte{0, 3})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &mockSink{onWrite: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	status := &mockStatus{}
	app := newApp(src, sink, status)

	src.tick(t, 3)
	require.NoError(t, app.Run(ctx))

	assert.Equal(t, [][]byte{{0, 1, 0, 2}, {0, 3}}, sink.periods)
	assert.Equal(t, Stats{Periods: 2, Bytes: 6, EmptyReads: 1}, app.Stats())
	assert.Equal(t, []string{"capturing", "idle"}, status.Calls())
	assert.False(t, app.IsRunning())
}

func TestRunWithoutDescriptor(t *testing.T) {
	src := newMockSource(t)
	src.fd = -1
	status := &mockStatus{}

	err := newApp(src, &mockSink{}, status).Run(context.Background())
	assert.ErrorIs(t, err, audio.ErrNoReadiness)
	assert.Equal(t, []string{"error"}, status.Calls())
}

func TestRunStopsOnHangup(t *testing.T) {
	src := newMockSource(t)
	require.NoError(t, src.w.Close())

	status := &mockStatus{}
	err := newApp(src, &mockSink{}, status).Run(context.Background())
	assert.ErrorIs(t, err, ErrDeviceGone)
	assert.Equal(t, []string{"capturing", "error"}, status.Calls())
}

func TestRunSinkError(t *testing.T) {
	src := newMockSource(t, []byte{1, 2})
	boom := errors.New("disk full")

	app := newApp(src, &mockSink{err: boom}, nil)
	src.tick(t, 1)
	err := app.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, app.Stats().Periods)
}

func TestRunIdleLimit(t *testing.T) {
	src := newMockSource(t)
	app := New(Config{
		Capture:     src,
		Sink:        &mockSink{},
		Logger:      zerolog.Nop(),
		PollTimeout: 10 * time.Millisecond,
		IdleLimit:   3,
	})

	src.tick(t, 5)
	err := app.Run(context.Background())
	assert.ErrorIs(t, err, ErrIdle)
	assert.Equal(t, uint64(3), app.Stats().EmptyReads)
}

func TestShutdownStopsRun(t *testing.T) {
	src := newMockSource(t)
	app := newApp(src, &mockSink{}, nil)

	errc := make(chan error, 1)
	go func() { errc <- app.Run(context.Background()) }()

	require.Eventually(t, app.IsRunning, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, app.Shutdown(ctx))
	assert.False(t, app.IsRunning())
	assert.NoError(t, <-errc)
}

func TestShutdownWhenIdle(t *testing.T) {
	app := newApp(newMockSource(t), &mockSink{}, nil)
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestRunTwice(t *testing.T) {
	src := newMockSource(t)
	app := newApp(src, &mockSink{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- app.Run(ctx) }()
	require.Eventually(t, app.IsRunning, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, app.Run(context.Background()), ErrRunning)

	cancel()
	assert.NoError(t, <-errc)
}

// scriptedSource hands out periods in order and never blocks.
type scriptedSource struct {
	periods [][]byte
	reads   int
}

func (s *scriptedSource) Fd() int          { return 100 }
func (s *scriptedSource) PeriodBytes() int { return 4 }

func (s *scriptedSource) ReadPeriod(dst []byte) int {
	s.reads++
	if len(s.periods) == 0 {
		return 0
	}
	p := s.periods[0]
	s.periods = s.periods[1:]
	return copy(dst, p)
}

// scriptPoll answers each poll with the next revents value, repeating the
// last one once the script runs out.
func scriptPoll(revents ...int16) func([]unix.PollFd, int) (int, error) {
	i := 0
	return func(fds []unix.PollFd, _ int) (int, error) {
		re := revents[min(i, len(revents)-1)]
		i++
		fds[0].Revents = re
		return 1, nil
	}
}

func TestRunRecoversFromOverrun(t *testing.T) {
	// an overrun reads as an empty period, then the stream delivers again
	src := &scriptedSource{periods: [][]byte{nil, {0, 7}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &mockSink{onWrite: func(int) { cancel() }}
	status := &mockStatus{}
	app := newApp(src, sink, status)
	app.poll = scriptPoll(unix.POLLIN|unix.POLLERR, unix.POLLIN)

	require.NoError(t, app.Run(ctx))

	assert.Equal(t, 2, src.reads)
	assert.Equal(t, [][]byte{{0, 7}}, sink.periods)
	assert.Equal(t, Stats{Periods: 1, Bytes: 2, EmptyReads: 1}, app.Stats())
	assert.Equal(t, []string{"capturing", "idle"}, status.Calls())
}

func TestRunStopsOnPersistentPollError(t *testing.T) {
	src := &scriptedSource{}
	app := newApp(src, &mockSink{}, nil)
	app.poll = scriptPoll(unix.POLLIN | unix.POLLERR)

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, ErrDeviceGone)
	assert.Equal(t, maxPollErrors, src.reads)
	assert.Equal(t, uint64(maxPollErrors), app.Stats().EmptyReads)
}

func TestRunPollErrorCountResets(t *testing.T) {
	src := &scriptedSource{periods: [][]byte{nil, nil, {1, 1}, nil, nil, nil, {2, 2}}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &mockSink{onWrite: func(n int) {
		if n == 2 {
			cancel()
		}
	}}
	app := newApp(src, sink, nil)
	errIn := int16(unix.POLLIN | unix.POLLERR)
	app.poll = scriptPoll(errIn, errIn, unix.POLLIN, errIn, errIn, errIn, unix.POLLIN)

	require.NoError(t, app.Run(ctx))
	assert.Equal(t, [][]byte{{1, 1}, {2, 2}}, sink.periods)
}

func TestRunStopsOnInvalidDescriptor(t *testing.T) {
	for _, re := range []int16{unix.POLLNVAL, unix.POLLHUP | unix.POLLIN} {
		src := &scriptedSource{periods: [][]byte{{1, 1}}}
		app := newApp(src, &mockSink{}, nil)
		app.poll = scriptPoll(re)

		err := app.Run(context.Background())
		assert.ErrorIs(t, err, ErrDeviceGone, "revents %#x", re)
		assert.Zero(t, src.reads, "revents %#x", re)
	}
}
