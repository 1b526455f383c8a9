// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample buffer model shared by the decoders and
// the mixing backends.
//
// This package contains:
//   - Source and Decoder, the contract every format decoder implements
//   - Registry for looking decoders up by format key
//   - StereoNormalizer for channel normalization
//   - Track, a fully materialized interleaved stereo stream
//   - VolumeFactors for percent to linear gain conversion
//
// # Channel Normalization
//
// Every track is mixed as interleaved stereo. Mono input is duplicated into
// both channels; for two or more channels, channel 0 becomes left and
// channel 1 becomes right and the rest are discarded:
//
//	stereo := audio.NewStereoNormalizer(src)
//	buf := make([]float32, 4096)
//	n, err := stereo.ReadSamples(buf)
//
// ReadTrack drains a whole source this way:
//
//	track, err := audio.ReadTrack(src)
//
// # Volumes
//
// Volumes are integer percentages paired with tracks by index. A track
// with no matching entry plays at full volume:
//
//	factors := audio.VolumeFactors([]uint8{100, 50}, 3) // [1.0, 0.5, 1.0]
//
// Samples are never clamped here; clamping happens once, at encode time.
package audio
