package audio

import "encoding/binary"

func byteOrder(f Format) binary.ByteOrder {
	if f.BigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// extractMono16 writes channel of each interleaved frame in src to dst as a
// 16-bit network-order sample. Wider samples keep their high 16 bits; the
// other channels are dropped, not mixed. It returns the bytes written.
func extractMono16(dst, src []byte, frames int, f Format, channels, channel int) int {
	width := f.PhysicalWidth() / 8
	shift := uint(f.PhysicalWidth() - 16)
	order := byteOrder(f)
	stride := width * channels

	for i := 0; i < frames; i++ {
		off := i*stride + channel*width
		var s int32
		if width == 4 {
			s = int32(order.Uint32(src[off:]))
		} else {
			s = int32(int16(order.Uint16(src[off:])))
		}
		binary.BigEndian.PutUint16(dst[i*2:], uint16(int16(s>>shift)))
	}
	return frames * 2
}

// scratchSize is the byte size of one period of raw device frames.
func scratchSize(f Format, channels, rate int) int {
	return (f.PhysicalWidth() / 8) * channels * (rate / PeriodsPerSecond)
}
