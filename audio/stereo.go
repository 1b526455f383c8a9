// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// StereoNormalizer presents any Source as interleaved stereo.
//
// Mono sources have their single channel duplicated into left and right.
// Sources with two or more channels keep channel 0 as left and channel 1
// as right; every other channel is dropped. No downmix is attempted.
type StereoNormalizer struct {
	src Source
	tmp []float32
}

func NewStereoNormalizer(src Source) *StereoNormalizer {
	return &StereoNormalizer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (s *StereoNormalizer) SampleRate() int { return s.src.SampleRate() }
func (s *StereoNormalizer) Channels() int   { return 2 }
func (s *StereoNormalizer) BufSize() int    { return s.src.BufSize() }
func (s *StereoNormalizer) Close() error {
	err := s.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// ReadSamples fills dst with whole stereo frames. len(dst) should be even;
// a trailing odd slot is left untouched.
func (s *StereoNormalizer) ReadSamples(dst []float32) (int, error) {
	channels := s.src.Channels()
	if channels < 1 {
		return 0, ErrNoChannels
	}

	frames := len(dst) / 2
	if frames == 0 {
		return 0, nil
	}

	if channels == 2 {
		// Pass-through
		return s.src.ReadSamples(dst[:frames*2])
	}

	need := frames * channels
	if cap(s.tmp) < need {
		s.tmp = make([]float32, max(need, 8192))
	}
	s.tmp = s.tmp[:need]

	n, err := s.src.ReadSamples(s.tmp)
	if n == 0 {
		return 0, err
	}
	got := n / channels

	if channels == 1 {
		for f := range got {
			v := s.tmp[f]
			dst[f<<1] = v
			dst[f<<1+1] = v
		}
		return got * 2, err
	}

	for f := range got {
		base := f * channels
		dst[f<<1] = s.tmp[base]
		dst[f<<1+1] = s.tmp[base+1]
	}

	return got * 2, err
}
