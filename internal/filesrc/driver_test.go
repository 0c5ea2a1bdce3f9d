package filesrc

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/alsacap/internal/audio"
)

func TestDriverRejectsOtherSchemes(t *testing.T) {
	_, err := Driver{}.Open("hw:0,0")
	assert.ErrorIs(t, err, ErrNotFileDevice)
	assert.True(t, IsFileDevice("file:/tmp/a.wav"))
	assert.False(t, IsFileDevice("default"))
}

func TestNegotiation(t *testing.T) {
	p := NewPCM(&Clip{SampleRate: 22050, Channels: 2, Samples: make([]int32, 10)}, false)

	hw, err := p.NewHWParams()
	require.NoError(t, err)
	require.NoError(t, hw.Any())
	require.NoError(t, hw.SetAccess(audio.AccessRWInterleaved))
	assert.ErrorIs(t, hw.SetAccess(audio.AccessMmapInterleaved), ErrRejected)
	assert.ErrorIs(t, hw.SetFormat(audio.FormatS24LE), ErrRejected)
	require.NoError(t, hw.SetFormat(audio.FormatS32BE))

	rate, err := hw.SetRateNear(48000)
	require.NoError(t, err)
	assert.Equal(t, 22050, rate)

	assert.ErrorIs(t, hw.SetChannels(1), ErrRejected)
	require.NoError(t, hw.SetChannels(2))

	_, _, err = p.Params()
	assert.ErrorIs(t, err, ErrRejected)

	require.NoError(t, p.SetHWParams(hw))
	buffer, period, err := p.Params()
	require.NoError(t, err)
	assert.Equal(t, 220, period)
	assert.Equal(t, 880, buffer)
}

func TestSetHWParamsNeedsFormat(t *testing.T) {
	p := NewPCM(&Clip{SampleRate: 8000, Channels: 1, Samples: make([]int32, 10)}, false)
	hw, err := p.NewHWParams()
	require.NoError(t, err)

	assert.ErrorIs(t, p.SetHWParams(hw), ErrRejected)
}

func TestReadFramesBeforeStart(t *testing.T) {
	p := NewPCM(&Clip{SampleRate: 8000, Channels: 1, Samples: make([]int32, 10)}, false)

	_, err := p.ReadFrames(make([]byte, 40), 10)
	assert.ErrorIs(t, err, ErrNotRunning)

	fds, err := p.PollDescriptors()
	require.NoError(t, err)
	assert.Empty(t, fds)
	require.NoError(t, p.Close())
}

// started returns a PCM negotiated to f with a ticker that never fires.
func started(t *testing.T, clip *Clip, loop bool, f audio.Format) *PCM {
	t.Helper()
	p := NewPCM(clip, loop)
	p.format = f
	p.configured = true
	p.ticker = &ticker{fd: -1}
	return p
}

func TestReadFramesEncodesFormat(t *testing.T) {
	clip := &Clip{SampleRate: 8000, Channels: 2, Samples: []int32{0x11223344, -0x10000, 0x7FFF0000, 5}}

	p := started(t, clip, false, audio.FormatS32LE)
	buf := make([]byte, 16)
	n, err := p.ReadFrames(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint32(0x11223344), binary.LittleEndian.Uint32(buf))
	assert.Equal(t, uint32(0xFFFF0000), binary.LittleEndian.Uint32(buf[4:]))

	p = started(t, clip, false, audio.FormatS16BE)
	buf = make([]byte, 8)
	n, err = p.ReadFrames(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x11, 0x22, 0xFF, 0xFF, 0x7F, 0xFF, 0x00, 0x00}, buf)
}

func TestReadFramesEndOfClip(t *testing.T) {
	clip := &Clip{SampleRate: 8000, Channels: 1, Samples: []int32{1 << 16, 2 << 16, 3 << 16}}
	p := started(t, clip, false, audio.FormatS16LE)
	buf := make([]byte, 4)

	n, err := p.ReadFrames(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = p.ReadFrames(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.ReadFrames(buf, 2)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)
}

func TestReadFramesLoops(t *testing.T) {
	clip := &Clip{SampleRate: 8000, Channels: 1, Samples: []int32{1 << 16, 2 << 16, 3 << 16}}
	p := started(t, clip, true, audio.FormatS16BE)
	buf := make([]byte, 10)

	n, err := p.ReadFrames(buf, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte{0, 1, 0, 2, 0, 3, 0, 1, 0, 2}, buf)
}

func TestReadFramesShortBuffer(t *testing.T) {
	clip := &Clip{SampleRate: 8000, Channels: 2, Samples: make([]int32, 8)}
	p := started(t, clip, false, audio.FormatS32LE)

	_, err := p.ReadFrames(make([]byte, 8), 2)
	assert.ErrorIs(t, err, io.ErrShortBuffer)
}
