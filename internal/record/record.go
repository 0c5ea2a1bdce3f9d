// Package record writes captured 10ms periods of network-order 16-bit
// mono samples to files or streams.
package record

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sink consumes periods produced by a capture.
type Sink interface {
	WritePeriod(p []byte) error
	Close() error
}

// Open picks a sink for path: "-" streams raw bytes to stdout, a .wav
// suffix writes a WAV file and anything else writes raw bytes to a file.
func Open(path string, sampleRate int) (Sink, error) {
	switch {
	case path == "-":
		return NewRaw(os.Stdout, nil), nil
	case strings.EqualFold(filepath.Ext(path), ".wav"):
		return NewWAV(path, sampleRate)
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output: %w", err)
		}
		return NewRaw(f, f), nil
	}
}

// WAV writes periods to a mono 16-bit WAV file.
type WAV struct {
	f       *os.File
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	samples int
}

// NewWAV creates path and writes a WAV header for sampleRate.
func NewWAV(path string, sampleRate int) (*WAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav: %w", err)
	}
	return &WAV{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, 1, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// WritePeriod decodes the big-endian samples in p and appends them.
func (w *WAV) WritePeriod(p []byte) error {
	n := len(p) / 2
	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]
	for i := 0; i < n; i++ {
		w.buf.Data[i] = int(int16(binary.BigEndian.Uint16(p[2*i:])))
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write wav: %w", err)
	}
	w.samples += n
	return nil
}

// Samples returns the number of samples written so far.
func (w *WAV) Samples() int { return w.samples }

// Close finalises the header and closes the file.
func (w *WAV) Close() error {
	err := w.enc.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Raw passes periods through unchanged, buffered.
type Raw struct {
	w *bufio.Writer
	c io.Closer
}

// NewRaw writes to w and closes c, if not nil, on Close.
func NewRaw(w io.Writer, c io.Closer) *Raw {
	return &Raw{w: bufio.NewWriter(w), c: c}
}

func (r *Raw) WritePeriod(p []byte) error {
	_, err := r.w.Write(p)
	return err
}

func (r *Raw) Close() error {
	err := r.w.Flush()
	if r.c != nil {
		if cerr := r.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
