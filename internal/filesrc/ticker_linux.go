//go:build linux

package filesrc

import (
	"time"

	"golang.org/x/sys/unix"
)

// ticker is a periodic timerfd; it reads as ready once per period.
type ticker struct {
	fd int
}

func newTicker(period time.Duration) (*ticker, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	ts := unix.NsecToTimespec(period.Nanoseconds())
	if err := unix.TimerfdSettime(fd, 0, &unix.ItimerSpec{Interval: ts, Value: ts}, nil); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &ticker{fd: fd}, nil
}

// drain consumes pending expirations so the descriptor stops polling ready.
func (t *ticker) drain() {
	var b [8]byte
	_, _ = unix.Read(t.fd, b[:])
}

func (t *ticker) close() error {
	return unix.Close(t.fd)
}
