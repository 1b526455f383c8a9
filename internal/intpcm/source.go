// SPDX-License-Identifier: EPL-2.0

// Package intpcm adapts go-audio PCM decoders to audio.Source.
package intpcm

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
)

var (
	ErrUnsupportedBitDepth = errors.New("unsupported PCM bit depth")
	ErrUnsupportedEncoding = errors.New("unsupported PCM encoding")
)

// Encoding says how the ints handed out by a go-audio decoder map to
// sample values.
type Encoding int

const (
	// Signed two's complement samples. 8-bit samples may arrive as raw
	// bytes and are reinterpreted.
	Signed Encoding = iota
	// Unsigned 8-bit samples centred on 128, as in WAV.
	Unsigned
	// Float holds the bit pattern of an IEEE 754 float32.
	Float
)

func (e Encoding) String() string {
	switch e {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Float:
		return "float"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// Reader is the part of the go-audio wav and aiff decoders we read from.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer PCM into float32 in [-1, 1).
type Source struct {
	dec        Reader
	format     *goaudio.Format
	sampleRate int
	channels   int
	convert    func(int) float32
	intBuf     *goaudio.IntBuffer
}

// Scale returns the divisor that maps a signed sample of bitDepth bits onto [-1, 1).
func Scale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

// NewSource reads samples of bitDepth bits in the given encoding from dec.
func NewSource(dec Reader, format *goaudio.Format, bitDepth int, enc Encoding) (*Source, error) {
	convert, err := converter(bitDepth, enc)
	if err != nil {
		return nil, err
	}

	return &Source{
		dec:        dec,
		format:     format,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		convert:    convert,
	}, nil
}

func converter(bitDepth int, enc Encoding) (func(int) float32, error) {
	switch enc {
	case Float:
		if bitDepth != 32 {
			return nil, fmt.Errorf("%w: %d-bit float", ErrUnsupportedBitDepth, bitDepth)
		}
		return func(v int) float32 {
			f := math.Float32frombits(uint32(v))
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				return 0
			}
			return f
		}, nil

	case Unsigned:
		if bitDepth != 8 {
			return nil, fmt.Errorf("%w: %d-bit unsigned", ErrUnsupportedBitDepth, bitDepth)
		}
		return func(v int) float32 { return float32(int(uint8(v))-128) / 128 }, nil

	case Signed:
		scale, err := Scale(bitDepth)
		if err != nil {
			return nil, err
		}
		if bitDepth == 8 {
			return func(v int) float32 { return float32(int8(uint8(v))) / scale }, nil
		}
		return func(v int) float32 { return float32(v) / scale }, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Close() error    { return nil }
func (s *Source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.format,
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("reading pcm: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = s.convert(v)
	}

	// go-audio signals the end of data with a short read, not io.EOF.
	if n < len(dst) || err != nil {
		return n, io.EOF
	}

	return n, nil
}
