// Package device picks the capture backend for a device identifier.
package device

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/petems/alsacap/internal/alsa"
	"github.com/petems/alsacap/internal/audio"
	"github.com/petems/alsacap/internal/filesrc"
)

// Options tune the backend chosen by DriverFor.
type Options struct {
	// Loop repeats file devices instead of ending at the last frame.
	Loop bool
}

// DriverFor returns the driver that serves id: "file:" identifiers are
// emulated from an audio file, everything else goes to ALSA.
func DriverFor(id string, opts Options) (audio.Driver, error) {
	if filesrc.IsFileDevice(id) {
		return filesrc.Driver{Loop: opts.Loop}, nil
	}
	if !alsa.Available() {
		return nil, fmt.Errorf("device %s: %w", id, alsa.ErrUnavailable)
	}
	return alsa.Driver{}, nil
}

// Open selects the driver for params.Device and opens a ready capture.
func Open(params *audio.CaptureParameters, opts Options, log zerolog.Logger) (*audio.Capture, error) {
	drv, err := DriverFor(params.Device, opts)
	if err != nil {
		return nil, err
	}
	return audio.Open(drv, params, log)
}
