// Package audiotest provides an in-memory capture driver for tests.
package audiotest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/petems/alsacap/internal/audio"
)

// ErrRejected is returned by every negotiation step the fake device refuses.
var ErrRejected = errors.New("invalid argument")

// Step names accepted by Driver.FailAt.
const (
	StepOpen     = "open"
	StepAlloc    = "alloc"
	StepAny      = "any"
	StepAccess   = "access"
	StepRate     = "rate"
	StepChannels = "channels"
	StepApply    = "apply"
	StepParams   = "params"
	StepPrepare  = "prepare"
	StepStart    = "start"
	StepPoll     = "poll"
)

// Driver is a fake capture device. The zero value accepts nothing; set the
// exported fields to describe the hardware.
type Driver struct {
	Formats     []audio.Format // accepted sample formats
	Rates       []int          // supported rates, SetRateNear snaps to the nearest
	MaxChannels int
	BufferSize  int
	PeriodSize  int
	// Fds are returned by PollDescriptors. Nil means a single descriptor 3.
	Fds []int
	// FailAt names one step that fails with ErrRejected.
	FailAt string

	// Opened records every PCM handed out.
	Opened []*PCM
}

// Open implements audio.Driver.
func (d *Driver) Open(device string) (audio.PCM, error) {
	if d.FailAt == StepOpen {
		return nil, fmt.Errorf("%s: %w", device, ErrRejected)
	}
	p := &PCM{drv: d, Device: device}
	d.Opened = append(d.Opened, p)
	return p, nil
}

// Last returns the most recently opened PCM.
func (d *Driver) Last() *PCM {
	if len(d.Opened) == 0 {
		return nil
	}
	return d.Opened[len(d.Opened)-1]
}

// ReadResult is one scripted answer to ReadFrames.
type ReadResult struct {
	Data   []byte // raw interleaved frames copied into the caller's buffer
	Frames int    // returned frame count, may be negative
	Err    error
}

// PCM is a fake capture stream.
type PCM struct {
	drv    *Driver
	Device string

	// FormatAttempts lists every format passed to SetFormat, in order.
	FormatAttempts []audio.Format
	Format         audio.Format
	Rate           int
	Channels       int
	Applied        bool
	Prepared       bool
	Started        bool
	CloseCalls     int

	// Reads are consumed one per ReadFrames call. When empty, ReadFrames
	// returns zero frames.
	Reads []ReadResult
	// Requested records the frame count of every ReadFrames call.
	Requested []int
}

func (p *PCM) fail(step string) error {
	if p.drv.FailAt == step {
		return fmt.Errorf("%s: %w", step, ErrRejected)
	}
	return nil
}

func (p *PCM) NewHWParams() (audio.HWParams, error) {
	if err := p.fail(StepAlloc); err != nil {
		return nil, err
	}
	return &hwParams{pcm: p}, nil
}

func (p *PCM) SetHWParams(hw audio.HWParams) error {
	if err := p.fail(StepApply); err != nil {
		return err
	}
	h := hw.(*hwParams)
	p.Format, p.Rate, p.Channels = h.format, h.rate, h.channels
	p.Applied = true
	return nil
}

func (p *PCM) Params() (int, int, error) {
	if err := p.fail(StepParams); err != nil {
		return 0, 0, err
	}
	return p.drv.BufferSize, p.drv.PeriodSize, nil
}

func (p *PCM) Prepare() error {
	if err := p.fail(StepPrepare); err != nil {
		return err
	}
	p.Prepared = true
	return nil
}

func (p *PCM) Start() error {
	if err := p.fail(StepStart); err != nil {
		return err
	}
	p.Started = true
	return nil
}

func (p *PCM) ReadFrames(buf []byte, frames int) (int, error) {
	p.Requested = append(p.Requested, frames)
	if len(p.Reads) == 0 {
		return 0, nil
	}
	r := p.Reads[0]
	p.Reads = p.Reads[1:]
	copy(buf, r.Data)
	return r.Frames, r.Err
}

func (p *PCM) PollDescriptors() ([]int, error) {
	if err := p.fail(StepPoll); err != nil {
		return nil, err
	}
	if p.drv.Fds == nil {
		return []int{3}, nil
	}
	return p.drv.Fds, nil
}

func (p *PCM) Close() error {
	p.CloseCalls++
	return nil
}

type hwParams struct {
	pcm      *PCM
	format   audio.Format
	rate     int
	channels int
}

func (h *hwParams) Any() error {
	return h.pcm.fail(StepAny)
}

func (h *hwParams) SetAccess(a audio.Access) error {
	if err := h.pcm.fail(StepAccess); err != nil {
		return err
	}
	if a != audio.AccessRWInterleaved {
		return ErrRejected
	}
	return nil
}

func (h *hwParams) SetFormat(f audio.Format) error {
	h.pcm.FormatAttempts = append(h.pcm.FormatAttempts, f)
	if !slices.Contains(h.pcm.drv.Formats, f) {
		return ErrRejected
	}
	h.format = f
	return nil
}

func (h *hwParams) SetRateNear(rate int) (int, error) {
	if err := h.pcm.fail(StepRate); err != nil {
		return 0, err
	}
	if len(h.pcm.drv.Rates) == 0 {
		return 0, ErrRejected
	}
	best := h.pcm.drv.Rates[0]
	for _, r := range h.pcm.drv.Rates[1:] {
		if abs(r-rate) < abs(best-rate) {
			best = r
		}
	}
	h.rate = best
	return best, nil
}

func (h *hwParams) SetChannels(n int) error {
	if err := h.pcm.fail(StepChannels); err != nil {
		return err
	}
	if n < 1 || n > h.pcm.drv.MaxChannels {
		return ErrRejected
	}
	h.channels = n
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
