package alsa

import "errors"

var (
	ErrUnavailable   = errors.New("alsa support not built")
	ErrBadDeviceName = errors.New("unrecognised alsa device name")
	ErrNotConfigured = errors.New("hardware parameters not installed")
	ErrShortBuffer   = errors.New("buffer smaller than requested frames")
)
