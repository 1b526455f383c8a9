// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"encoding/binary"
	"math"
)

// WAV format tags.
const (
	FormatPCM   = 1
	FormatFloat = 3
)

// WAV builds a canonical WAV file around an already encoded data chunk.
func WAV(sampleRate, channels, bitDepth int, formatTag uint16, data []byte) []byte {
	frame := channels * bitDepth / 8
	out := make([]byte, 44+len(data))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(data)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatTag)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*frame))
	binary.LittleEndian.PutUint16(out[32:34], uint16(frame))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitDepth))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(data)))
	copy(out[44:], data)

	return out
}

// WAV16 builds a 16-bit PCM WAV file in memory.
func WAV16(sampleRate, channels int, samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	return WAV(sampleRate, channels, 16, FormatPCM, data)
}

// WAV8 builds an 8-bit PCM WAV file. Samples are stored unsigned, 128
// being silence.
func WAV8(sampleRate, channels int, samples []uint8) []byte {
	return WAV(sampleRate, channels, 8, FormatPCM, samples)
}

// WAVFloat32 builds a 32-bit IEEE float WAV file.
func WAVFloat32(sampleRate, channels int, samples []float32) []byte {
	data := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(s))
	}
	return WAV(sampleRate, channels, 32, FormatFloat, data)
}

// Ramp returns n samples stepping by step from start.
func Ramp(n int, start, step float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = start + float32(i)*step
	}
	return out
}
