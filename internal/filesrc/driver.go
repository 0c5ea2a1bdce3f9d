package filesrc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/petems/alsacap/internal/audio"
)

// Scheme prefixes device identifiers served by this package.
const Scheme = "file:"

// periodsPerBuffer sets the reported buffer size in periods.
const periodsPerBuffer = 4

var (
	ErrNotFileDevice = errors.New("not a file device")
	ErrRejected      = errors.New("invalid argument")
	ErrNotRunning    = errors.New("device not started")
)

// Supported lists the sample formats the emulated device accepts.
var Supported = []audio.Format{
	audio.FormatS16LE,
	audio.FormatS16BE,
	audio.FormatS32LE,
	audio.FormatS32BE,
}

// IsFileDevice reports whether id names a file-backed device.
func IsFileDevice(id string) bool {
	return strings.HasPrefix(id, Scheme)
}

// Driver opens "file:<path>" devices. With Loop set the file repeats
// forever; otherwise reads return io.EOF once it is exhausted.
type Driver struct {
	Loop bool
}

// Open implements audio.Driver.
func (d Driver) Open(device string) (audio.PCM, error) {
	path, ok := strings.CutPrefix(device, Scheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFileDevice, device)
	}
	clip, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewPCM(clip, d.Loop), nil
}

// NewPCM serves an already decoded clip.
func NewPCM(clip *Clip, loop bool) *PCM {
	return &PCM{clip: clip, loop: loop}
}

// PCM is an emulated capture stream. Its poll descriptor becomes readable
// every 10ms once started.
type PCM struct {
	clip *Clip
	loop bool

	format     audio.Format
	configured bool
	pos        int
	ticker     *ticker
}

func (p *PCM) NewHWParams() (audio.HWParams, error) {
	return &hwParams{pcm: p}, nil
}

func (p *PCM) SetHWParams(hw audio.HWParams) error {
	h, ok := hw.(*hwParams)
	if !ok || h.pcm != p {
		return fmt.Errorf("hardware parameters belong to another device: %w", ErrRejected)
	}
	if !h.haveFormat {
		return fmt.Errorf("no sample format chosen: %w", ErrRejected)
	}
	p.format = h.format
	p.configured = true
	return nil
}

func (p *PCM) Params() (int, int, error) {
	if !p.configured {
		return 0, 0, ErrRejected
	}
	period := p.clip.SampleRate / audio.PeriodsPerSecond
	return period * periodsPerBuffer, period, nil
}

func (p *PCM) Prepare() error {
	if !p.configured {
		return ErrRejected
	}
	p.pos = 0
	return nil
}

func (p *PCM) Start() error {
	if !p.configured {
		return ErrRejected
	}
	if p.ticker != nil {
		return nil
	}
	t, err := newTicker(time.Second / audio.PeriodsPerSecond)
	if err != nil {
		return err
	}
	p.ticker = t
	return nil
}

// ReadFrames copies up to frames frames of the clip into buf in the
// negotiated format.
func (p *PCM) ReadFrames(buf []byte, frames int) (int, error) {
	if p.ticker == nil {
		return 0, ErrNotRunning
	}
	p.ticker.drain()

	width := p.format.PhysicalWidth() / 8
	channels := p.clip.Channels
	if len(buf) < frames*width*channels {
		return 0, io.ErrShortBuffer
	}

	var order binary.ByteOrder = binary.LittleEndian
	if p.format.BigEndian() {
		order = binary.BigEndian
	}

	n := 0
	for n < frames {
		if p.pos >= p.clip.Frames() {
			if !p.loop {
				break
			}
			p.pos = 0
		}
		frame := p.clip.Samples[p.pos*channels : (p.pos+1)*channels]
		for ch, s := range frame {
			off := (n*channels + ch) * width
			if width == 4 {
				order.PutUint32(buf[off:], uint32(s))
			} else {
				order.PutUint16(buf[off:], uint16(s>>16))
			}
		}
		p.pos++
		n++
	}

	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (p *PCM) PollDescriptors() ([]int, error) {
	if p.ticker == nil {
		return nil, nil
	}
	return []int{p.ticker.fd}, nil
}

func (p *PCM) Close() error {
	if p.ticker == nil {
		return nil
	}
	err := p.ticker.close()
	p.ticker = nil
	return err
}

type hwParams struct {
	pcm        *PCM
	format     audio.Format
	haveFormat bool
}

func (h *hwParams) Any() error {
	h.haveFormat = false
	return nil
}

func (h *hwParams) SetAccess(a audio.Access) error {
	if a != audio.AccessRWInterleaved {
		return fmt.Errorf("access %d: %w", a, ErrRejected)
	}
	return nil
}

func (h *hwParams) SetFormat(f audio.Format) error {
	if !slices.Contains(Supported, f) {
		return fmt.Errorf("format %s: %w", f, ErrRejected)
	}
	h.format, h.haveFormat = f, true
	return nil
}

// SetRateNear always settles on the file's own rate.
func (h *hwParams) SetRateNear(rate int) (int, error) {
	return h.pcm.clip.SampleRate, nil
}

func (h *hwParams) SetChannels(n int) error {
	if n != h.pcm.clip.Channels {
		return fmt.Errorf("%d channels, file has %d: %w", n, h.pcm.clip.Channels, ErrRejected)
	}
	return nil
}
