package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/petems/alsacap/internal/audio"
)

type Config struct {
	Audio    AudioConfig  `json:"audio"`
	Output   OutputConfig `json:"output"`
	LogLevel string       `json:"log_level"` // zerolog level name
}

type AudioConfig struct {
	DeviceID   string   `json:"device_id"` // "default", "hw:1,0", "file:/path/clip.wav"
	Formats    []string `json:"formats"`   // preference order, e.g. "S32_LE"
	SampleRate int      `json:"sample_rate"`
	Channels   int      `json:"channels"`
	Channel    int      `json:"channel"` // channel extracted to the mono output
	Loop       bool     `json:"loop"`    // file devices only
}

type OutputConfig struct {
	Path string `json:"path"` // "-" for raw stdout, *.wav for a WAV file
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			DeviceID:   "default",
			Formats:    []string{"S32_LE", "S16_LE"},
			SampleRate: 48000,
			Channels:   2,
			Channel:    0,
		},
		Output: OutputConfig{
			Path: "-",
		},
		LogLevel: "info",
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFile(configPath())
}

// LoadFile reads the config at path over the defaults. A missing file is
// not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	return c.SaveFile(configPath())
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// CaptureParameters converts the audio section into capture parameters.
func (a AudioConfig) CaptureParameters() (*audio.CaptureParameters, error) {
	formats, err := audio.ParseFormats(a.Formats)
	if err != nil {
		return nil, err
	}
	p := &audio.CaptureParameters{
		Device:     a.DeviceID,
		Formats:    formats,
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
		Channel:    a.Channel,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the platform-specific config file path
func Path() string {
	return configPath()
}

func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "alsacap", "config.json")
}
