package alsa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const procPCM = "/proc/asound/pcm"

// DeviceInfo describes one PCM device listed by the kernel.
type DeviceInfo struct {
	Name     Name
	ID       string
	Title    string
	Playback bool
	Capture  bool
}

// ListDevices returns the capture-capable PCM devices of every sound card.
func ListDevices() ([]DeviceInfo, error) {
	f, err := os.Open(procPCM)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer f.Close()

	all, err := parsePCMList(f)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]DeviceInfo, 0, len(all))
	for _, d := range all {
		if d.Capture {
			result = append(result, d)
		}
	}
	return result, nil
}

// parsePCMList reads lines such as
//
//	00-00: ALC892 Analog : ALC892 Analog : playback 1 : capture 1
func parsePCMList(r io.Reader) ([]DeviceInfo, error) {
	var devices []DeviceInfo
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed pcm entry %q", line)
		}

		var d DeviceInfo
		if _, err := fmt.Sscanf(fields[0], "%d-%d", &d.Name.Card, &d.Name.Device); err != nil {
			return nil, fmt.Errorf("malformed pcm entry %q: %w", line, err)
		}
		d.ID = strings.TrimSpace(fields[1])
		if len(fields) > 2 {
			d.Title = strings.TrimSpace(fields[2])
		}
		for i := 3; i < len(fields); i++ {
			switch kind, _, _ := strings.Cut(strings.TrimSpace(fields[i]), " "); kind {
			case "playback":
				d.Playback = true
			case "capture":
				d.Capture = true
			}
		}
		devices = append(devices, d)
	}
	return devices, sc.Err()
}
