//go:build !linux || noalsa

package alsa

import "github.com/petems/alsacap/internal/audio"

// Available reports whether the ALSA backend was compiled in.
func Available() bool { return false }

// Driver is a placeholder that refuses to open anything.
type Driver struct{}

// Open always fails with ErrUnavailable.
func (Driver) Open(name string) (audio.PCM, error) {
	return nil, ErrUnavailable
}
