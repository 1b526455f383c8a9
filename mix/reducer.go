// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"context"
	"runtime"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/gpu"
	"go.uber.org/zap"
)

// Reducer sums tracks into one buffer of MaxLen(tracks) samples.
//
// factors pairs with tracks by index. A track without a factor is mixed
// at audio.FullVolume.
type Reducer interface {
	Reduce(ctx context.Context, tracks []audio.Track, factors []float32) ([]float32, error)
}

// MaxLen is the length of the longest track.
func MaxLen(tracks []audio.Track) int {
	n := 0
	for _, t := range tracks {
		n = max(n, t.Len())
	}
	return n
}

func factorsFor(factors []float32, n int) []float32 {
	if len(factors) >= n {
		return factors[:n]
	}

	out := make([]float32, n)
	copy(out, factors)
	for i := len(factors); i < n; i++ {
		out[i] = audio.FullVolume
	}
	return out
}

// DefaultChunkSize is the number of output samples one CPU task sums.
const DefaultChunkSize = 16384

type options struct {
	chunkSize     int
	workers       int
	workgroupSize uint32
	maxGroupsX    uint32
	logger        *zap.Logger
}

func newOptions(opts []Option) options {
	o := options{
		chunkSize:     DefaultChunkSize,
		workers:       runtime.GOMAXPROCS(0),
		workgroupSize: gpu.MixWorkgroupSize,
		maxGroupsX:    gpu.DefaultMaxGroupsX,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Option configures a reducer. Options that do not apply to a reducer are
// ignored by it.
type Option func(*options)

// WithChunkSize sets how many output samples a CPU task handles.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithWorkers bounds the goroutines the CPU reducer runs at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithWorkgroupSize sets the GPU kernel workgroup size.
func WithWorkgroupSize(n uint32) Option {
	return func(o *options) { o.workgroupSize = n }
}

// WithMaxGroupsX caps the X dimension of the GPU dispatch grid. The device
// limit still applies when it is lower.
func WithMaxGroupsX(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxGroupsX = n
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
