// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Track is one fully decoded input, normalized to interleaved stereo.
// A Track is never modified after it is built, so it can be shared by
// concurrent readers.
type Track struct {
	// Samples holds [left, right] pairs.
	Samples []float32
	// SampleRate is the rate reported by the source decoder. Tracks are
	// mixed as if they already run at the output rate.
	SampleRate int
}

// NewTrack wraps already-interleaved stereo samples.
func NewTrack(samples []float32, sampleRate int) (Track, error) {
	if len(samples)%2 != 0 {
		return Track{}, ErrOddTrackSize
	}

	return Track{Samples: samples, SampleRate: sampleRate}, nil
}

// Len is the number of float samples (not frames).
func (t Track) Len() int { return len(t.Samples) }

// Frames is the number of stereo frames.
func (t Track) Frames() int { return len(t.Samples) / 2 }

// At returns sample i, or silence past the end of the track.
func (t Track) At(i int) float32 {
	if i < len(t.Samples) {
		return t.Samples[i]
	}
	return 0
}

// ReadTrack drains src into a stereo Track. Samples are not clamped.
func ReadTrack(src Source) (Track, error) {
	stereo := NewStereoNormalizer(src)

	bufSize := src.BufSize()
	if bufSize < 2 {
		bufSize = 4096
	}
	bufSize &^= 1

	buf := make([]float32, bufSize)
	samples := make([]float32, 0, bufSize*4)

	for {
		n, err := stereo.ReadSamples(buf)
		samples = append(samples, buf[:n]...)

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Track{}, fmt.Errorf("reading track: %w", err)
		}
		if n == 0 {
			// Sources that report (0, nil) forever would spin here.
			break
		}
	}

	// A truncated final frame is dropped.
	samples = samples[:len(samples)&^1]

	return Track{Samples: samples, SampleRate: src.SampleRate()}, nil
}
