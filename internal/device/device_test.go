package device

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petems/alsacap/internal/alsa"
	"github.com/petems/alsacap/internal/audio"
	"github.com/petems/alsacap/internal/filesrc"
)

func TestDriverForFile(t *testing.T) {
	drv, err := DriverFor("file:/tmp/clip.wav", Options{Loop: true})
	require.NoError(t, err)
	assert.Equal(t, filesrc.Driver{Loop: true}, drv)
}

func TestDriverForHardware(t *testing.T) {
	drv, err := DriverFor("hw:0,0", Options{})
	if !alsa.Available() {
		assert.ErrorIs(t, err, alsa.ErrUnavailable)
		return
	}
	require.NoError(t, err)
	assert.Equal(t, alsa.Driver{}, drv)
}

func TestOpenMissingFile(t *testing.T) {
	params := &audio.CaptureParameters{
		Device:     "file:" + t.TempDir() + "/missing.wav",
		Formats:    []audio.Format{audio.FormatS16LE},
		SampleRate: 8000,
		Channels:   1,
	}
	_, err := Open(params, Options{}, zerolog.Nop())
	assert.Error(t, err)
}
