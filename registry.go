// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
)

// DefaultRegistry returns a registry with a decoder for every FileType.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(WAV.String(), wav.Decoder{})
	r.Register(MPEG.String(), mp3.Decoder{})
	r.Register(OGG.String(), vorbis.Decoder{})
	r.Register(AIFF.String(), aiff.Decoder{})

	return r
}
