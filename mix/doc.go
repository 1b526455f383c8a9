// SPDX-License-Identifier: EPL-2.0

// Package mix reduces decoded tracks into a single master buffer.
//
// Two reducers implement the same arithmetic: output[i] is the sum over
// tracks, in track order, of sample i times that track's volume factor,
// with samples past the end of a shorter track counting as silence. The
// master buffer is as long as the longest track and is never clamped.
//
// CPUReducer splits the index range across goroutines. GPUReducer uploads
// the tracks to a gpu.Device and runs the mix_tracks compute kernel. For
// the same input both produce the same values.
package mix
