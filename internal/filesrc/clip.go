// Package filesrc turns an audio file into an emulated capture device, so
// the capture path can run without sound hardware.
package filesrc

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

var (
	ErrUnsupportedFile = errors.New("unsupported audio file")
	ErrNotWavFile      = errors.New("not a PCM wav file")
	ErrEmptyFile       = errors.New("audio file holds no samples")
)

// Clip is a decoded audio file held in memory as interleaved full-scale
// 32-bit samples.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []int32
}

// Frames returns the number of frames in the clip.
func (c *Clip) Frames() int {
	return len(c.Samples) / c.Channels
}

// Load decodes a .wav, .mp3 or .ogg file.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var clip *Clip
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		clip, err = decodeWAV(f)
	case ".mp3":
		clip, err = decodeMP3(f)
	case ".ogg", ".oga":
		clip, err = decodeVorbis(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if clip.Channels < 1 || clip.Frames() == 0 {
		return nil, fmt.Errorf("decoding %s: %w", path, ErrEmptyFile)
	}
	return clip, nil
}

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() || dec.WavAudioFormat != 1 {
		return nil, ErrNotWavFile
	}

	depth := int(dec.BitDepth)
	switch depth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrNotWavFile, depth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return fromIntBuffer(buf, int(dec.SampleRate), int(dec.NumChans), depth), nil
}

func fromIntBuffer(buf *goaudio.IntBuffer, rate, channels, depth int) *Clip {
	shift := uint(32 - depth)
	samples := make([]int32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int32(v) << shift
	}
	return &Clip{SampleRate: rate, Channels: channels, Samples: samples}
}

func decodeMP3(r io.Reader) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	// go-mp3 always yields 16-bit little-endian stereo
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}

	samples := make([]int32, len(data)/2)
	for i := range samples {
		samples[i] = int32(int16(uint16(data[2*i])|uint16(data[2*i+1])<<8)) << 16
	}
	return &Clip{SampleRate: dec.SampleRate(), Channels: 2, Samples: samples}, nil
}

func decodeVorbis(r io.Reader) (*Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}

	samples := make([]int32, len(data))
	for i, v := range data {
		samples[i] = floatToInt32(v)
	}
	return &Clip{SampleRate: format.SampleRate, Channels: format.Channels, Samples: samples}, nil
}

func floatToInt32(v float32) int32 {
	f := math.Max(-1, math.Min(1, float64(v)))
	return int32(math.Round(f * math.MaxInt32))
}
