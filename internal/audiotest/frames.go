package audiotest

import "encoding/binary"

// Interleave32 encodes frames of 32-bit samples, one inner slice per frame,
// in the given byte order.
func Interleave32(order binary.AppendByteOrder, frames ...[]int32) []byte {
	var out []byte
	for _, frame := range frames {
		for _, s := range frame {
			out = order.AppendUint32(out, uint32(s))
		}
	}
	return out
}

// Interleave16 is Interleave32 for 16-bit samples.
func Interleave16(order binary.AppendByteOrder, frames ...[]int16) []byte {
	var out []byte
	for _, frame := range frames {
		for _, s := range frame {
			out = order.AppendUint16(out, uint16(s))
		}
	}
	return out
}

// Ramp returns n stereo frames whose left sample is i<<16|0x1234 and right
// sample is -i<<16.
func Ramp(n int) [][]int32 {
	frames := make([][]int32, n)
	for i := range frames {
		frames[i] = []int32{int32(i)<<16 | 0x1234, -int32(i) << 16}
	}
	return frames
}
