package oto

import (
	"encoding/binary"
	"math"

	"github.com/vsariola/looper"
)

// AudioBufferTo16BitLE converts a stereo buffer to interleaved 16-bit
// little-endian integers, appending them to dst. Samples outside [-1, 1] are
// clipped.
func AudioBufferTo16BitLE(buff looper.AudioBuffer, dst []byte) []byte {
	for _, frame := range buff {
		for _, v := range frame {
			var uv int16
			if v < -1.0 {
				uv = -math.MaxInt16
			} else if v > 1.0 {
				uv = math.MaxInt16
			} else {
				uv = int16(v * math.MaxInt16)
			}
			dst = binary.LittleEndian.AppendUint16(dst, uint16(uv))
		}
	}
	return dst
}
