// SPDX-License-Identifier: EPL-2.0

// Package audmix mixes several encoded audio files into one WAV file.
//
// Inputs are raw encoded bytes tagged with their format. They are decoded
// in parallel into interleaved stereo tracks, each scaled by a volume
// percentage, summed sample by sample and written out as a 16-bit PCM
// stereo WAV.
//
// # Supported Formats
//
// Input decoding uses the format subpackages:
//   - WAV (PCM 16/24/32-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF via formats/aiff
//
// The output is always WAV.
//
// # Quick Start
//
//	c, err := audmix.New(ctx, []audmix.File{
//	    {Bytes: voice, Type: audmix.WAV},
//	    {Bytes: music, Type: audmix.MPEG},
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Voice at full volume, music at 30%.
//	out, err := c.Combine(ctx, []uint8{100, 30})
//
// # Backends
//
// Mixing is delegated to a mix.Reducer. The default CPUReducer splits the
// work across goroutines. A GPUReducer runs the same arithmetic as a WGSL
// compute kernel on a gpu.Device:
//
//	dev, _ := gpu.OpenDevice(ctx, softgpu.Adapter{})
//	r, _ := mix.NewGPUReducer(dev)
//	defer r.Close()
//
//	c, _ := audmix.New(ctx, files, audmix.WithReducer(r))
//
// Both give the same result for the same input.
//
// # Sample Rates
//
// Tracks are not resampled. Every track is mixed as if it already ran at
// the output rate (44100 Hz unless WithSampleRate says otherwise);
// SampleRates reports what the decoders saw.
package audmix
