package audio

import "fmt"

// Access is the sample layout requested from the driver, numbered as ALSA numbers it.
type Access int32

const (
	AccessMmapInterleaved    Access = 0
	AccessMmapNonInterleaved Access = 1
	AccessMmapComplex        Access = 2
	AccessRWInterleaved      Access = 3
	AccessRWNonInterleaved   Access = 4
)

// PeriodsPerSecond fixes the read cadence at 10ms.
const PeriodsPerSecond = 100

// Driver opens capture streams by device identifier.
type Driver interface {
	// Open opens device for blocking capture.
	Open(device string) (PCM, error)
}

// PCM is one open capture stream.
type PCM interface {
	// NewHWParams allocates a negotiation context bound to this stream.
	NewHWParams() (HWParams, error)
	// SetHWParams installs hw as the active hardware configuration.
	SetHWParams(hw HWParams) error
	// Params reports the buffer and period size, in frames, chosen by the driver.
	Params() (bufferSize, periodSize int, err error)
	Prepare() error
	Start() error
	// ReadFrames reads up to frames interleaved frames into buf and returns
	// how many were read.
	ReadFrames(buf []byte, frames int) (int, error)
	PollDescriptors() ([]int, error)
	Close() error
}

// HWParams narrows the hardware configuration space of a PCM. A failed
// setter leaves the context as it was.
type HWParams interface {
	// Any resets the context to the full capability envelope of the device.
	Any() error
	SetAccess(a Access) error
	SetFormat(f Format) error
	// SetRateNear selects the supported rate closest to rate and returns it.
	SetRateNear(rate int) (int, error)
	SetChannels(n int) error
}

// CaptureParameters describes the stream a caller wants. SampleRate is
// overwritten with the negotiated rate once the capture opens.
type CaptureParameters struct {
	Device     string
	Formats    []Format // most preferred first
	SampleRate int
	Channels   int
	// Channel is the index of the channel kept when reducing to mono.
	Channel int
}

// FramesPerPeriod returns the number of frames in one 10ms period.
func (p *CaptureParameters) FramesPerPeriod() int {
	return p.SampleRate / PeriodsPerSecond
}

// Validate checks the parameters before any driver call is made.
func (p *CaptureParameters) Validate() error {
	switch {
	case p.Device == "":
		return fmt.Errorf("%w: empty device name", ErrInvalidParameters)
	case len(p.Formats) == 0:
		return fmt.Errorf("%w: empty format list", ErrInvalidParameters)
	case p.SampleRate < PeriodsPerSecond:
		return fmt.Errorf("%w: sample rate %d below %d", ErrInvalidParameters, p.SampleRate, PeriodsPerSecond)
	case p.Channels < 1:
		return fmt.Errorf("%w: channel count %d", ErrInvalidParameters, p.Channels)
	case p.Channel < 0 || p.Channel >= p.Channels:
		return fmt.Errorf("%w: channel %d outside 0..%d", ErrInvalidParameters, p.Channel, p.Channels-1)
	}
	for _, f := range p.Formats {
		if f.extractable() {
			return nil
		}
	}
	return fmt.Errorf("%w: none of %v", ErrUnsupportedFormat, p.Formats)
}
