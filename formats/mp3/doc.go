// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio through
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit little-endian stereo, so every Source
// returned here reports two channels regardless of the channel mode in the
// stream:
//
//	src, err := mp3.Decoder{}.Decode(bytes.NewReader(data))
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
package mp3
