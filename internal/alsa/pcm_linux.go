//go:build linux && !noalsa

package alsa

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/petems/alsacap/internal/audio"
)

// Available reports whether the ALSA backend was compiled in.
func Available() bool { return true }

// Driver opens kernel PCM capture devices.
type Driver struct{}

// Open opens the capture node for name in blocking mode.
func (Driver) Open(name string) (audio.PCM, error) {
	n, err := ParseName(name)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(n.Path(), unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", n.Path(), err)
	}

	p := &pcm{fd: fd, name: n}
	var version int32
	if err := ioctl(fd, ioctlPVersion, unsafe.Pointer(&version)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("query protocol version of %s: %w", n.Path(), err)
	}
	p.version = int(version)
	return p, nil
}

type pcm struct {
	fd      int
	name    Name
	version int

	hw         hwParams
	configured bool
}

func (p *pcm) refine(hw *hwParams) error {
	hw.rmask = ^uint32(0)
	return ioctl(p.fd, ioctlHWRefine, unsafe.Pointer(hw))
}

func (p *pcm) NewHWParams() (audio.HWParams, error) {
	if p.fd < 0 {
		return nil, unix.EBADF
	}
	return &hwContext{pcm: p}, nil
}

func (p *pcm) SetHWParams(hw audio.HWParams) error {
	h, ok := hw.(*hwContext)
	if !ok || h.pcm != p {
		return fmt.Errorf("hardware parameters belong to another device: %w", unix.EINVAL)
	}
	next := h.p
	next.rmask = ^uint32(0)
	if err := ioctl(p.fd, ioctlHWParams, unsafe.Pointer(&next)); err != nil {
		return err
	}
	p.hw = next
	p.configured = true
	return nil
}

func (p *pcm) Params() (int, int, error) {
	if !p.configured {
		return 0, 0, ErrNotConfigured
	}
	return p.hw.value(paramBufferSize), p.hw.value(paramPeriodSize), nil
}

func (p *pcm) Prepare() error {
	return ioctl(p.fd, ioctlPrepare, nil)
}

func (p *pcm) Start() error {
	return ioctl(p.fd, ioctlStart, nil)
}

// ReadFrames blocks until frames frames are captured or the stream
// fails. An overrun restarts the stream and is reported as an error with
// no frames.
func (p *pcm) ReadFrames(buf []byte, frames int) (int, error) {
	if !p.configured {
		return 0, ErrNotConfigured
	}
	if frames <= 0 {
		return 0, nil
	}
	if len(buf) < frames*p.hw.value(paramFrameBits)/8 {
		return 0, ErrShortBuffer
	}

	x := xferi{buf: unsafe.Pointer(&buf[0]), frames: uint(frames)}
	err := ioctl(p.fd, ioctlReadIFrames, unsafe.Pointer(&x))
	runtime.KeepAlive(buf)

	if errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ESTRPIPE) {
		if rerr := p.restart(); rerr != nil {
			return 0, fmt.Errorf("%w (restart: %v)", err, rerr)
		}
		return 0, err
	}
	if err != nil {
		return 0, err
	}
	return x.result, nil
}

func (p *pcm) restart() error {
	if err := p.Prepare(); err != nil {
		return err
	}
	return p.Start()
}

func (p *pcm) PollDescriptors() ([]int, error) {
	if p.fd < 0 {
		return nil, unix.EBADF
	}
	return []int{p.fd}, nil
}

func (p *pcm) Close() error {
	if p.fd < 0 {
		return nil
	}
	_ = ioctl(p.fd, ioctlDrop, nil)
	if p.configured {
		_ = ioctl(p.fd, ioctlHWFree, nil)
	}
	err := unix.Close(p.fd)
	p.fd = -1
	p.configured = false
	return err
}

// hwContext is a negotiation context. Every change is refined on a copy
// and kept only if the kernel accepts it.
type hwContext struct {
	pcm *pcm
	p   hwParams
}

func (h *hwContext) try(change func(p *hwParams)) error {
	next := h.p
	change(&next)
	if err := h.pcm.refine(&next); err != nil {
		return err
	}
	h.p = next
	return nil
}

func (h *hwContext) Any() error {
	h.p.setAny()
	return h.pcm.refine(&h.p)
}

func (h *hwContext) SetAccess(a audio.Access) error {
	return h.try(func(p *hwParams) { p.setMaskBit(paramAccess, uint(a)) })
}

func (h *hwContext) SetFormat(f audio.Format) error {
	return h.try(func(p *hwParams) { p.setMaskBit(paramFormat, uint(f)) })
}

func (h *hwContext) SetChannels(n int) error {
	return h.try(func(p *hwParams) { p.setRange(paramChannels, uint32(n), uint32(n), true) })
}

func (h *hwContext) SetRateNear(rate int) (int, error) {
	lo, hi := h.p.interval(paramRate).bounds()
	want := clamp(uint32(max(rate, 0)), lo, hi)

	exact := func(v uint32) error {
		return h.try(func(p *hwParams) { p.setRange(paramRate, v, v, false) })
	}
	err := exact(want)
	if err == nil {
		return int(want), nil
	}

	chosen, ok := nearest(want, h.probeRate(lo, want), h.probeRate(want, hi))
	if !ok {
		return 0, err
	}
	if err := exact(chosen); err != nil {
		return 0, err
	}
	return int(chosen), nil
}

// probeRate refines a copy of the context to rates in [lo, hi] and returns
// the admitted range, without changing the context.
func (h *hwContext) probeRate(lo, hi uint32) *interval {
	next := h.p
	next.setRange(paramRate, lo, hi, false)
	if h.pcm.refine(&next) != nil {
		return nil
	}
	return next.interval(paramRate)
}

func (p *pcm) String() string {
	return fmt.Sprintf("%s (protocol %d.%d.%d)", p.name, p.version>>16&0xff, p.version>>8&0xff, p.version&0xff)
}
