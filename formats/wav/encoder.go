// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/audmix/utils"
)

const (
	// HeaderSize is the length of the canonical RIFF/WAVE PCM header.
	HeaderSize = 44

	outChannels      = 2
	outBitsPerSample = 16
	outBlockAlign    = outChannels * outBitsPerSample / 8
)

// putHeader fills the canonical header for a 16-bit stereo PCM stream
// carrying dataSize bytes.
func putHeader(header []byte, sampleRate int, dataSize uint32) {
	// RIFF header (12 bytes)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	// fmt chunk (24 bytes)
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], outChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate)*outBlockAlign)
	binary.LittleEndian.PutUint16(header[32:34], outBlockAlign)
	binary.LittleEndian.PutUint16(header[34:36], outBitsPerSample)

	// data chunk header (8 bytes)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)
}

// WriteStereo16 writes interleaved stereo float samples as a 16-bit PCM WAV.
// Samples are clamped here and nowhere earlier.
func WriteStereo16(w io.Writer, sampleRate int, samples []float32) error {
	header := make([]byte, HeaderSize)
	putHeader(header, sampleRate, uint32(len(samples)*2))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w", err)
	}

	const chunkSize = 8192
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), chunkSize)*2)

	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		buf = buf[:len(chunk)*2]

		for j, s := range chunk {
			binary.LittleEndian.PutUint16(buf[j*2:], uint16(utils.Float32ToInt16(s)))
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

// Encode returns a complete WAV file for samples at sampleRate.
func Encode(samples []float32, sampleRate int) []byte {
	out := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(samples)*2))
	// bytes.Buffer writes cannot fail.
	_ = WriteStereo16(out, sampleRate, samples)

	return out.Bytes()
}
