// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/wav"
	"github.com/ik5/audmix/mix"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Combiner holds decoded tracks ready to be mixed. Tracks are never
// modified, so Combine may be called repeatedly and from several
// goroutines.
type Combiner struct {
	tracks []audio.Track
	opts   options
}

// New decodes every file in parallel and keeps the results as stereo
// tracks, in input order.
//
// Each file is looked up in the registry by its Type. The failing file
// with the lowest index yields a *DecodeError; an unknown type fails with
// ErrUnsupportedType inside that DecodeError. Once a file fails, files
// after it are not decoded.
//
// Example:
//
//	c, err := audmix.New(ctx, files, audmix.WithDecodeWorkers(4))
//	var de *audmix.DecodeError
//	if errors.As(err, &de) {
//	    log.Printf("file %d is broken: %v", de.Index, de.Err)
//	}
func New(ctx context.Context, files []File, opts ...Option) (*Combiner, error) {
	o := newOptions(opts)
	begin := time.Now()

	tracks := make([]audio.Track, len(files))
	errs := make([]error, len(files))

	// Lowest failing index so far.
	var firstFail atomic.Int64
	firstFail.Store(int64(len(files)))

	it := iter.Iterator[File]{MaxGoroutines: o.decodeWorkers}
	it.ForEachIdx(files, func(i int, f *File) {
		if ctx.Err() != nil || int64(i) > firstFail.Load() {
			return
		}

		track, err := decodeFile(o.registry, *f)
		if err != nil {
			errs[i] = err
			for {
				cur := firstFail.Load()
				if int64(i) >= cur || firstFail.CompareAndSwap(cur, int64(i)) {
					break
				}
			}
			return
		}
		tracks[i] = track
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i := int(firstFail.Load()); i < len(files) {
		return nil, &DecodeError{Index: i, Type: files[i].Type, Err: errs[i]}
	}

	for i, t := range tracks {
		o.logger.Debug("track decoded",
			zap.Int("index", i),
			zap.Stringer("type", files[i].Type),
			zap.Int("samples", t.Len()),
			zap.Int("sample_rate", t.SampleRate),
		)
		if t.SampleRate != o.sampleRate && t.Len() > 0 {
			o.logger.Warn("track sample rate differs from output, mixing without resampling",
				zap.Int("index", i),
				zap.Int("track_rate", t.SampleRate),
				zap.Int("output_rate", o.sampleRate),
			)
		}
	}

	o.logger.Debug("decode done",
		zap.Int("files", len(files)),
		zap.Duration("elapsed", time.Since(begin)),
	)

	return &Combiner{tracks: tracks, opts: o}, nil
}

func decodeFile(reg *audio.Registry, f File) (audio.Track, error) {
	dec, ok := reg.Get(f.Type.String())
	if !ok {
		return audio.Track{}, fmt.Errorf("%w: %s", ErrUnsupportedType, f.Type)
	}

	src, err := dec.Decode(bytes.NewReader(f.Bytes))
	if err != nil {
		return audio.Track{}, err
	}
	defer src.Close()

	return audio.ReadTrack(src)
}

// Tracks is the number of decoded inputs.
func (c *Combiner) Tracks() int { return len(c.tracks) }

// SampleRates lists the rate each input was decoded at.
func (c *Combiner) SampleRates() []int {
	rates := make([]int, len(c.tracks))
	for i, t := range c.tracks {
		rates[i] = t.SampleRate
	}
	return rates
}

// Combine mixes the tracks and encodes the result as a WAV File.
//
// volumes pairs with the inputs by index as a percentage: 100 keeps a
// track unchanged, 0 mutes it and values above 100 amplify. Tracks without
// an entry play at 100; extra entries are ignored. The output is as long
// as the longest track and clipping only happens when quantizing to 16
// bits.
//
// Combine fails with ErrEmptyInput when no track has samples.
func (c *Combiner) Combine(ctx context.Context, volumes []uint8) (File, error) {
	var buf bytes.Buffer
	if err := c.CombineTo(ctx, &buf, volumes); err != nil {
		return File{}, err
	}

	return File{Bytes: buf.Bytes(), Type: WAV}, nil
}

// CombineTo is Combine writing the WAV straight to w.
func (c *Combiner) CombineTo(ctx context.Context, w io.Writer, volumes []uint8) error {
	if mix.MaxLen(c.tracks) == 0 {
		return ErrEmptyInput
	}
	if len(volumes) > len(c.tracks) {
		c.opts.logger.Debug("ignoring extra volumes",
			zap.Int("volumes", len(volumes)),
			zap.Int("tracks", len(c.tracks)),
		)
	}

	begin := time.Now()
	factors := audio.VolumeFactors(volumes, len(c.tracks))

	master, err := c.opts.reducer.Reduce(ctx, c.tracks, factors)
	if err != nil {
		return fmt.Errorf("mixing %d tracks: %w", len(c.tracks), err)
	}

	if err := wav.WriteStereo16(w, c.opts.sampleRate, master); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}

	c.opts.logger.Debug("combine done",
		zap.Int("tracks", len(c.tracks)),
		zap.Int("samples", len(master)),
		zap.Duration("elapsed", time.Since(begin)),
	)

	return nil
}
