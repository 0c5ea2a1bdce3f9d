package audio

import (
	"fmt"
	"strings"
)

// Format is a PCM sample format, numbered as ALSA numbers them.
type Format int32

const (
	FormatS8        Format = 0
	FormatU8        Format = 1
	FormatS16LE     Format = 2
	FormatS16BE     Format = 3
	FormatU16LE     Format = 4
	FormatU16BE     Format = 5
	FormatS24LE     Format = 6
	FormatS24BE     Format = 7
	FormatU24LE     Format = 8
	FormatU24BE     Format = 9
	FormatS32LE     Format = 10
	FormatS32BE     Format = 11
	FormatU32LE     Format = 12
	FormatU32BE     Format = 13
	FormatFloatLE   Format = 14
	FormatFloatBE   Format = 15
	FormatFloat64LE Format = 16
	FormatFloat64BE Format = 17
	FormatMuLaw     Format = 20
	FormatALaw      Format = 21
	FormatS24_3LE   Format = 32
	FormatS24_3BE   Format = 33
)

type formatInfo struct {
	name      string
	width     int // physical bits per sample
	bigEndian bool
	signed    bool
}

var formats = map[Format]formatInfo{
	FormatS8:        {"S8", 8, false, true},
	FormatU8:        {"U8", 8, false, false},
	FormatS16LE:     {"S16_LE", 16, false, true},
	FormatS16BE:     {"S16_BE", 16, true, true},
	FormatU16LE:     {"U16_LE", 16, false, false},
	FormatU16BE:     {"U16_BE", 16, true, false},
	FormatS24LE:     {"S24_LE", 32, false, true},
	FormatS24BE:     {"S24_BE", 32, true, true},
	FormatU24LE:     {"U24_LE", 32, false, false},
	FormatU24BE:     {"U24_BE", 32, true, false},
	FormatS32LE:     {"S32_LE", 32, false, true},
	FormatS32BE:     {"S32_BE", 32, true, true},
	FormatU32LE:     {"U32_LE", 32, false, false},
	FormatU32BE:     {"U32_BE", 32, true, false},
	FormatFloatLE:   {"FLOAT_LE", 32, false, true},
	FormatFloatBE:   {"FLOAT_BE", 32, true, true},
	FormatFloat64LE: {"FLOAT64_LE", 64, false, true},
	FormatFloat64BE: {"FLOAT64_BE", 64, true, true},
	FormatMuLaw:     {"MU_LAW", 8, false, false},
	FormatALaw:      {"A_LAW", 8, false, false},
	FormatS24_3LE:   {"S24_3LE", 24, false, true},
	FormatS24_3BE:   {"S24_3BE", 24, true, true},
}

func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

// PhysicalWidth returns the number of bits one sample occupies in memory,
// or 0 for an unknown format.
func (f Format) PhysicalWidth() int {
	return formats[f].width
}

// BigEndian reports whether samples are stored most significant byte first.
func (f Format) BigEndian() bool {
	return formats[f].bigEndian
}

// Signed reports whether samples are two's complement integers or floats.
func (f Format) Signed() bool {
	return formats[f].signed
}

// extractable reports whether the single-channel 16-bit extraction path
// can handle f: a plain signed integer filling its whole container.
func (f Format) extractable() bool {
	switch f {
	case FormatS16LE, FormatS16BE, FormatS32LE, FormatS32BE:
		return true
	}
	return false
}

// ParseFormat maps an ALSA format name such as "S32_LE" or "s16be" to a Format.
func ParseFormat(name string) (Format, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	for f, info := range formats {
		if strings.ReplaceAll(info.name, "_", "") == norm {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ParseFormats parses a preference list, keeping its order.
func ParseFormats(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
