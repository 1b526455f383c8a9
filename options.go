// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"runtime"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/mix"
	"go.uber.org/zap"
)

// DefaultSampleRate is the rate written to the output header.
const DefaultSampleRate = 44100

type options struct {
	reducer       mix.Reducer
	sampleRate    int
	decodeWorkers int
	logger        *zap.Logger
	registry      *audio.Registry
}

type Option func(*options)

// WithReducer selects the mixing backend. The default is a CPUReducer.
func WithReducer(r mix.Reducer) Option {
	return func(o *options) {
		if r != nil {
			o.reducer = r
		}
	}
}

// WithSampleRate sets the rate recorded in the output header.
func WithSampleRate(hz int) Option {
	return func(o *options) {
		if hz > 0 {
			o.sampleRate = hz
		}
	}
}

// WithDecodeWorkers bounds how many files decode at once.
func WithDecodeWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.decodeWorkers = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry replaces the decoders looked up by FileType.String.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		sampleRate:    DefaultSampleRate,
		decodeWorkers: runtime.GOMAXPROCS(0),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.reducer == nil {
		o.reducer = mix.NewCPUReducer(mix.WithLogger(o.logger))
	}

	return o
}
