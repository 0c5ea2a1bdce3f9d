//go:build !linux

package filesrc

import (
	"errors"
	"time"
)

type ticker struct {
	fd int
}

func newTicker(time.Duration) (*ticker, error) {
	return nil, errors.ErrUnsupported
}

func (t *ticker) drain() {}

func (t *ticker) close() error { return nil }
