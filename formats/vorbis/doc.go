// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio through
// github.com/jfreymuth/oggvorbis.
//
// The native channel count of the stream is preserved; channel
// normalization is left to audio.StereoNormalizer.
//
//	src, err := vorbis.Decoder{}.Decode(bytes.NewReader(data))
package vorbis
