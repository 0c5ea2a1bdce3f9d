package alsa

import (
	"fmt"
	"strconv"
	"strings"
)

// Name addresses one PCM device on one sound card.
type Name struct {
	Card   int
	Device int
}

// ParseName accepts "default", "hw:C", "hw:C,D", "hw:CARD=C,DEV=D",
// the same forms with a "plughw:" prefix, and /dev/snd/pcmC<c>D<d>c paths.
// plughw names open the raw device; no plugin conversion is performed.
func ParseName(name string) (Name, error) {
	switch {
	case name == "default":
		return Name{}, nil
	case strings.HasPrefix(name, "/dev/snd/"):
		var n Name
		if _, err := fmt.Sscanf(name, "/dev/snd/pcmC%dD%dc", &n.Card, &n.Device); err != nil || n.Path() != name {
			return Name{}, fmt.Errorf("%w: %q", ErrBadDeviceName, name)
		}
		return n, nil
	}

	var rest string
	if r, ok := strings.CutPrefix(name, "hw:"); ok {
		rest = r
	} else if r, ok := strings.CutPrefix(name, "plughw:"); ok {
		rest = r
	} else {
		return Name{}, fmt.Errorf("%w: %q", ErrBadDeviceName, name)
	}

	parts := strings.Split(rest, ",")
	if len(parts) > 2 {
		return Name{}, fmt.Errorf("%w: %q", ErrBadDeviceName, name)
	}

	var n Name
	for i, part := range parts {
		key, value, hasKey := strings.Cut(part, "=")
		if !hasKey {
			value = key
			key = [...]string{"CARD", "DEV"}[i]
		}
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return Name{}, fmt.Errorf("%w: %q", ErrBadDeviceName, name)
		}
		switch strings.ToUpper(key) {
		case "CARD":
			n.Card = v
		case "DEV":
			n.Device = v
		default:
			return Name{}, fmt.Errorf("%w: %q", ErrBadDeviceName, name)
		}
	}
	return n, nil
}

// Path returns the capture device node.
func (n Name) Path() string {
	return fmt.Sprintf("/dev/snd/pcmC%dD%dc", n.Card, n.Device)
}

func (n Name) String() string {
	return fmt.Sprintf("hw:%d,%d", n.Card, n.Device)
}
