package alsa

// Parameter indices of struct snd_pcm_hw_params.
const (
	paramAccess    = 0
	paramFormat    = 1
	paramSubformat = 2

	paramSampleBits  = 8
	paramFrameBits   = 9
	paramChannels    = 10
	paramRate        = 11
	paramPeriodTime  = 12
	paramPeriodSize  = 13
	paramPeriodBytes = 14
	paramPeriods     = 15
	paramBufferTime  = 16
	paramBufferSize  = 17
	paramBufferBytes = 18
	paramTickTime    = 19

	paramFirstMask     = paramAccess
	paramLastMask      = paramSubformat
	paramFirstInterval = paramSampleBits
	paramLastInterval  = paramTickTime
)

const (
	intervalOpenMin = 1 << iota
	intervalOpenMax
	intervalInteger
	intervalEmpty
)

// mask mirrors struct snd_mask.
type mask struct {
	bits [8]uint32
}

func (m *mask) fill() {
	for i := range m.bits {
		m.bits[i] = ^uint32(0)
	}
}

func (m *mask) none() {
	m.bits = [8]uint32{}
}

func (m *mask) set(bit uint) {
	m.bits[bit>>5] |= 1 << (bit & 31)
}

func (m *mask) test(bit uint) bool {
	return m.bits[bit>>5]&(1<<(bit&31)) != 0
}

// interval mirrors struct snd_interval; flags holds its bitfields.
type interval struct {
	min   uint32
	max   uint32
	flags uint32
}

func (i *interval) fill() {
	*i = interval{max: ^uint32(0)}
}

func (i *interval) setRange(lo, hi uint32, integer bool) {
	i.min, i.max, i.flags = lo, hi, 0
	if integer {
		i.flags |= intervalInteger
	}
}

// bounds returns the closed range the interval admits.
func (i *interval) bounds() (lo, hi uint32) {
	lo, hi = i.min, i.max
	if i.flags&intervalOpenMin != 0 {
		lo++
	}
	if i.flags&intervalOpenMax != 0 && hi > 0 {
		hi--
	}
	return lo, hi
}

func (i *interval) single() bool {
	lo, hi := i.bounds()
	return i.flags&intervalEmpty == 0 && lo == hi
}

// hwParams mirrors struct snd_pcm_hw_params, including its reserved space,
// so it can be handed to the kernel as is.
type hwParams struct {
	flags     uint32
	masks     [paramLastMask - paramFirstMask + 1]mask
	mres      [5]mask
	intervals [paramLastInterval - paramFirstInterval + 1]interval
	ires      [9]interval
	rmask     uint32
	cmask     uint32
	info      uint32
	msbits    uint32
	rateNum   uint32
	rateDen   uint32
	fifoSize  uint
	reserved  [64]byte
}

// setAny opens every parameter to its widest range, as
// snd_pcm_hw_params_any does before the first refine.
func (p *hwParams) setAny() {
	*p = hwParams{}
	for i := range p.masks {
		p.masks[i].fill()
	}
	for i := range p.intervals {
		p.intervals[i].fill()
	}
	p.rmask = ^uint32(0)
	p.info = ^uint32(0)
}

func (p *hwParams) mask(param int) *mask {
	return &p.masks[param-paramFirstMask]
}

func (p *hwParams) interval(param int) *interval {
	return &p.intervals[param-paramFirstInterval]
}

// setMaskBit restricts a mask parameter to a single value.
func (p *hwParams) setMaskBit(param int, bit uint) {
	m := p.mask(param)
	m.none()
	m.set(bit)
	p.rmask |= 1 << param
}

// setRange restricts an interval parameter to [lo, hi].
func (p *hwParams) setRange(param int, lo, hi uint32, integer bool) {
	p.interval(param).setRange(lo, hi, integer)
	p.rmask |= 1 << param
}

// value returns the lower bound of an interval parameter, which is its
// value once the kernel has fixed it.
func (p *hwParams) value(param int) int {
	lo, _ := p.interval(param).bounds()
	return int(lo)
}
