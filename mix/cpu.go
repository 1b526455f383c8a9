// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"context"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// CPUReducer mixes on goroutines, one chunk of output indices per task.
// Every index sums the tracks in order, so the result does not depend on
// the number of workers or the chunk size.
type CPUReducer struct {
	opts options
}

var _ Reducer = (*CPUReducer)(nil)

func NewCPUReducer(opts ...Option) *CPUReducer {
	return &CPUReducer{opts: newOptions(opts)}
}

type span struct {
	start, end int
}

func (r *CPUReducer) Reduce(ctx context.Context, tracks []audio.Track, factors []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	begin := time.Now()
	n := MaxLen(tracks)
	out := make([]float32, n)
	if n == 0 {
		return out, nil
	}
	factors = factorsFor(factors, len(tracks))

	size := r.opts.chunkSize
	spans := make([]span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		spans = append(spans, span{start: start, end: min(start+size, n)})
	}

	it := iter.Iterator[span]{MaxGoroutines: r.opts.workers}
	it.ForEach(spans, func(s *span) {
		if ctx.Err() != nil {
			return
		}
		sumSpan(out, tracks, factors, s.start, s.end)
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.opts.logger.Debug("cpu mix done",
		zap.Int("tracks", len(tracks)),
		zap.Int("samples", n),
		zap.Int("chunks", len(spans)),
		zap.Duration("elapsed", time.Since(begin)),
	)

	return out, nil
}

func sumSpan(out []float32, tracks []audio.Track, factors []float32, start, end int) {
	for i := start; i < end; i++ {
		var sum float32
		for t, tr := range tracks {
			// float32() stops the product fusing into the add.
			sum += float32(tr.At(i) * factors[t])
		}
		out[i] = sum
	}
}
