package alsa

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nearest picks the admitted rate closest to want, given the range admitted
// at or below want and the range admitted at or above it. Either may be nil.
// Ties go to the lower rate.
func nearest(want uint32, below, above *interval) (uint32, bool) {
	var best uint32
	found := false
	if below != nil {
		_, hi := below.bounds()
		best, found = hi, true
	}
	if above != nil {
		lo, _ := above.bounds()
		if !found || lo-want < want-best {
			best, found = lo, true
		}
	}
	return best, found
}
