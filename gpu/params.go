// SPDX-License-Identifier: EPL-2.0

package gpu

import (
	"encoding/binary"
	"math"
)

// ParamsSize is the uniform block size; uniform bindings are 16-byte aligned.
const ParamsSize = 16

// Params is the uniform block read by the mixing kernel.
type Params struct {
	NumTracks uint32
	BufferLen uint32
}

// Bytes lays the block out as the kernel's Params struct (two padding words).
func (p Params) Bytes() []byte {
	out := make([]byte, ParamsSize)
	binary.LittleEndian.PutUint32(out[0:4], p.NumTracks)
	binary.LittleEndian.PutUint32(out[4:8], p.BufferLen)

	return out
}

// ParseParams is the inverse of Bytes.
func ParseParams(b []byte) Params {
	return Params{
		NumTracks: binary.LittleEndian.Uint32(b[0:4]),
		BufferLen: binary.LittleEndian.Uint32(b[4:8]),
	}
}

// Float32Bytes encodes samples as little-endian f32.
func Float32Bytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}

	return out
}

// BytesFloat32 decodes little-endian f32 into dst and returns the count.
func BytesFloat32(dst []float32, b []byte) int {
	n := min(len(dst), len(b)/4)
	for i := range n {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}

	return n
}
