package audio

import (
	"fmt"

	"github.com/rs/zerolog"
)

// State is the lifecycle position of a Capture.
type State int

const (
	StateUnopened State = iota
	StateNegotiating
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateNegotiating:
		return "negotiating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Capture owns one open capture device and reads it one 10ms period at a
// time. It is not safe for concurrent use: a single loop must own it, and
// must not call ReadPeriod while Close runs.
type Capture struct {
	drv    Driver
	params *CaptureParameters
	log    zerolog.Logger

	pcm        PCM
	state      State
	format     Format
	bufferSize int
	periodSize int
	scratch    []byte
}

// New returns an unopened capture for params. The capture writes the
// negotiated rate back into params when it opens.
func New(drv Driver, params *CaptureParameters, log zerolog.Logger) *Capture {
	return &Capture{
		drv:    drv,
		params: params,
		log:    log,
	}
}

// Open creates a capture and opens it. A device that cannot be negotiated
// or that exposes no readiness descriptor is released and reported as an
// error; the caller should treat it as unusable.
func Open(drv Driver, params *CaptureParameters, log zerolog.Logger) (*Capture, error) {
	c := New(drv, params, log)
	if err := c.Open(); err != nil {
		return nil, err
	}
	if c.Fd() == -1 {
		c.Close()
		return nil, fmt.Errorf("cannot poll audio device %s: %w", params.Device, ErrNoReadiness)
	}
	return c, nil
}

// Open negotiates the hardware configuration and starts capturing. Any
// failure releases the device and leaves the capture closed for good.
func (c *Capture) Open() (err error) {
	switch c.state {
	case StateNegotiating, StateReady:
		return ErrAlreadyOpen
	case StateClosed:
		return ErrClosed
	}

	if err := c.params.Validate(); err != nil {
		c.state = StateClosed
		c.log.Error().Str("device", c.params.Device).Err(err).Msg("Refusing to open audio device")
		return err
	}

	dev := c.params.Device
	c.log.Info().Str("device", dev).Msg("Opening audio device")
	c.state = StateNegotiating

	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	pcm, err := c.drv.Open(dev)
	if err != nil {
		return c.fail("cannot open audio device", err)
	}
	c.pcm = pcm

	hw, err := c.pcm.NewHWParams()
	if err != nil {
		return c.fail("cannot allocate hardware parameter structure", err)
	}
	if err := hw.Any(); err != nil {
		return c.fail("cannot initialize hardware parameter structure", err)
	}
	if err := hw.SetAccess(AccessRWInterleaved); err != nil {
		return c.fail("cannot set access type", err)
	}
	if err := c.selectFormat(hw); err != nil {
		return err
	}

	rate, err := hw.SetRateNear(c.params.SampleRate)
	if err != nil {
		return c.fail("cannot set sample rate", err)
	}
	c.params.SampleRate = rate

	if err := hw.SetChannels(c.params.Channels); err != nil {
		return c.fail("cannot set channel count", err)
	}
	if err := c.pcm.SetHWParams(hw); err != nil {
		return c.fail("cannot set parameters", err)
	}

	c.bufferSize, c.periodSize, err = c.pcm.Params()
	if err != nil {
		return c.fail("cannot get parameters", err)
	}

	if err := c.pcm.Prepare(); err != nil {
		return c.fail("cannot prepare audio interface for use", err)
	}
	if err := c.pcm.Start(); err != nil {
		return c.fail("cannot start audio interface for use", err)
	}

	if c.params.FramesPerPeriod() < 1 {
		return c.fail("cannot capture 10ms periods", fmt.Errorf("%w: negotiated rate %d", ErrInvalidParameters, rate))
	}
	c.scratch = make([]byte, scratchSize(c.format, c.params.Channels, c.params.SampleRate))
	c.state = StateReady

	c.log.Info().
		Str("device", dev).
		Int("buffer_size", c.bufferSize).
		Int("period_size", c.periodSize).
		Int("rate", c.params.SampleRate).
		Stringer("format", c.format).
		Msg("Audio device ready")
	return nil
}

// selectFormat takes the first format in preference order that the driver
// accepts.
func (c *Capture) selectFormat(hw HWParams) error {
	dev := c.params.Device
	for _, f := range c.params.Formats {
		if !f.extractable() {
			c.log.Warn().Str("device", dev).Stringer("format", f).Msg("Skipping format that cannot be reduced to 16-bit mono")
			continue
		}
		if err := hw.SetFormat(f); err != nil {
			c.log.Debug().Str("device", dev).Stringer("format", f).Err(err).Msg("cannot set sample format")
			continue
		}
		c.log.Info().Str("device", dev).Stringer("format", f).Msg("Sample format set")
		c.format = f
		return nil
	}
	return c.fail("cannot set sample format", ErrNoFormat)
}

func (c *Capture) fail(what string, err error) error {
	c.log.Error().Str("device", c.params.Device).Err(err).Msg(what)
	return fmt.Errorf("%s %s: %w", what, c.params.Device, err)
}

// Close releases the device. It is safe to call any number of times.
func (c *Capture) Close() error {
	c.state = StateClosed
	if c.pcm == nil {
		return nil
	}
	err := c.pcm.Close()
	c.pcm = nil
	if err != nil {
		return fmt.Errorf("cannot close audio device %s: %w", c.params.Device, err)
	}
	return nil
}

// ReadPeriod reads one 10ms period and writes it to dst as mono 16-bit
// big-endian samples. It returns the number of bytes written, which is 0
// when the capture is not open, the driver fails, or no frames are ready.
// dst must hold at least PeriodBytes bytes.
func (c *Capture) ReadPeriod(dst []byte) int {
	if c.pcm == nil {
		return 0
	}

	frames := c.params.FramesPerPeriod()
	if len(dst) < frames*2 {
		panic(fmt.Sprintf("audio: destination holds %d samples, period needs %d", len(dst)/2, frames))
	}

	n, err := c.pcm.ReadFrames(c.scratch, frames)
	c.log.Trace().
		Str("device", c.params.Device).
		Int("in_size", c.periodSize*c.format.PhysicalWidth()/8).
		Int("read_frames", n).
		Err(err).
		Msg("Audio device read")
	if err != nil || n <= 0 {
		return 0
	}
	if n > frames {
		n = frames
	}
	return extractMono16(dst, c.scratch, n, c.format, c.params.Channels, c.params.Channel)
}

// Fd returns the descriptor to poll for readability before calling
// ReadPeriod, or -1 when none is available. Only the first descriptor of a
// device is considered.
func (c *Capture) Fd() int {
	if c.pcm == nil {
		return -1
	}
	fds, err := c.pcm.PollDescriptors()
	if err != nil {
		c.log.Error().Str("device", c.params.Device).Err(err).Msg("cannot get poll descriptors")
		return -1
	}
	if len(fds) == 0 {
		return -1
	}
	return fds[0]
}

func (c *Capture) State() State     { return c.state }
func (c *Capture) Device() string   { return c.params.Device }
func (c *Capture) Format() Format   { return c.format }
func (c *Capture) SampleRate() int  { return c.params.SampleRate }
func (c *Capture) Channels() int    { return c.params.Channels }
func (c *Capture) BufferSize() int  { return c.bufferSize }
func (c *Capture) PeriodSize() int  { return c.periodSize }
func (c *Capture) ScratchSize() int { return len(c.scratch) }

// FramesPerPeriod returns the frames read by one ReadPeriod call.
func (c *Capture) FramesPerPeriod() int { return c.params.FramesPerPeriod() }

// PeriodBytes returns the output size of a full period.
func (c *Capture) PeriodBytes() int { return c.params.FramesPerPeriod() * 2 }
