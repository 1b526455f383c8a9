// SPDX-License-Identifier: EPL-2.0

// Package wav decodes WAV input and encodes the mixed master buffer.
//
// # Decoding
//
// Decoding is delegated to github.com/go-audio/wav, so files with extra
// chunks (LIST, fact, ...) are handled. Integer PCM at 16, 24 and 32 bits
// is accepted:
//
//	src, err := wav.Decoder{}.Decode(bytes.NewReader(data))
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// Integer samples come back as float32 in [-1.0, 1.0). Float samples are
// passed through, with NaN and infinities read as silence.
//
// # Encoding
//
// Encode produces the canonical 44-byte header followed by 16-bit stereo
// PCM. The channel count is always 2 and the sample stream is expected to
// be interleaved:
//
//	out := wav.Encode(master, 44100)
//
// Every sample is clamped to [-1.0, 1.0], scaled by 32767 and truncated.
// WriteStereo16 does the same against an io.Writer.
//
// # Errors
//
//   - ErrNotWavFile: missing RIFF/WAVE structure
//   - ErrUnsupportedWavLayout: no usable fmt chunk
//   - ErrOnlyPCMSupported: compressed payloads, 64-bit float and odd depths
package wav
