// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/gpu"
	"go.uber.org/zap"
)

// GPUReducer mixes with the mix_tracks compute kernel.
//
// The shader and pipeline are built once and shared by every call; each
// call allocates its own buffers and releases them before returning. A
// failed call does not affect later calls.
type GPUReducer struct {
	handle   *gpu.Handle
	module   gpu.ShaderModule
	pipeline gpu.ComputePipeline
	opts     options

	closeOnce sync.Once
}

var _ Reducer = (*GPUReducer)(nil)

// NewGPUReducer takes ownership of dev and builds the mixing pipeline on
// it. The device is released by Close, or before returning if the
// pipeline cannot be built.
func NewGPUReducer(dev gpu.Device, opts ...Option) (*GPUReducer, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", gpu.ErrDevice)
	}

	h := gpu.NewHandle(dev)
	defer h.Release()

	return NewSharedGPUReducer(h, opts...)
}

// NewSharedGPUReducer builds a reducer on a device that other reducers may
// also use. It holds its own reference on h until Close.
func NewSharedGPUReducer(h *gpu.Handle, opts ...Option) (*GPUReducer, error) {
	own, err := h.Acquire()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrDevice, err)
	}
	dev, err := own.Device()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrDevice, err)
	}

	o := newOptions(opts)
	module, pipeline, err := gpu.BuildMixPipeline(dev, o.workgroupSize)
	if err != nil {
		own.Release()
		return nil, err
	}

	o.logger.Debug("gpu pipeline ready",
		zap.Uint32("workgroup_size", o.workgroupSize),
		zap.Uint32("max_groups_x", o.maxGroupsX),
	)

	return &GPUReducer{
		handle:   own,
		module:   module,
		pipeline: pipeline,
		opts:     o,
	}, nil
}

// Close releases the pipeline and the device.
func (r *GPUReducer) Close() error {
	r.closeOnce.Do(func() {
		r.pipeline.Release()
		r.module.Release()
		r.handle.Release()
	})
	return nil
}

// resources collects per-call objects so they are released together.
type resources struct {
	buffers []gpu.Buffer
	groups  []gpu.BindGroup
}

func (res *resources) buffer(dev gpu.Device, label string, size uint64, usage gputypes.BufferUsage) (gpu.Buffer, error) {
	b, err := dev.CreateBuffer(&gpu.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("creating %s buffer: %w", label, err)
	}
	res.buffers = append(res.buffers, b)
	return b, nil
}

func (res *resources) release() {
	for _, g := range res.groups {
		g.Release()
	}
	for _, b := range res.buffers {
		b.Release()
	}
}

func (r *GPUReducer) Reduce(ctx context.Context, tracks []audio.Track, factors []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dev, err := r.handle.Device()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClosed, err)
	}

	begin := time.Now()
	n := MaxLen(tracks)
	if n == 0 {
		return make([]float32, 0), nil
	}
	factors = factorsFor(factors, len(tracks))

	limits := dev.Limits()
	total := uint64(n) * uint64(len(tracks))
	if total > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d tracks of %d samples", gpu.ErrBufferTooLarge, len(tracks), n)
	}
	if limits.MaxStorageBufferSize > 0 && total*4 > limits.MaxStorageBufferSize {
		return nil, fmt.Errorf("%w: %d bytes of samples, device allows %d",
			gpu.ErrBufferTooLarge, total*4, limits.MaxStorageBufferSize)
	}

	grid, err := gpu.NewGrid(n, r.opts.workgroupSize, min(r.opts.maxGroupsX, limits.MaxWorkgroupsPerDimension))
	if err != nil {
		return nil, err
	}
	if !grid.Fits(limits) {
		return nil, fmt.Errorf("%w: %dx%d workgroups", gpu.ErrGridTooLarge, grid.X, grid.Y)
	}

	// One zero-padded slot of n samples per track.
	flat := make([]float32, total)
	for t, tr := range tracks {
		copy(flat[t*n:], tr.Samples)
	}

	res := &resources{}
	defer res.release()

	outSize := uint64(n) * 4
	samples, err := res.buffer(dev, "samples", total*4, gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	volumes, err := res.buffer(dev, "volumes", uint64(len(factors))*4, gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	params, err := res.buffer(dev, "params", gpu.ParamsSize, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	output, err := res.buffer(dev, "output", outSize, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return nil, err
	}
	staging, err := res.buffer(dev, "staging", outSize, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	q := dev.Queue()
	if err := q.WriteBuffer(samples, 0, gpu.Float32Bytes(flat)); err != nil {
		return nil, fmt.Errorf("uploading samples: %w", err)
	}
	if err := q.WriteBuffer(volumes, 0, gpu.Float32Bytes(factors)); err != nil {
		return nil, fmt.Errorf("uploading volumes: %w", err)
	}
	block := gpu.Params{NumTracks: uint32(len(tracks)), BufferLen: uint32(n)}
	if err := q.WriteBuffer(params, 0, block.Bytes()); err != nil {
		return nil, fmt.Errorf("uploading params: %w", err)
	}

	group, err := dev.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:    "mix",
		Pipeline: r.pipeline,
		Entries: []gpu.BindGroupEntry{
			{Binding: gpu.BindingSamples, Buffer: samples},
			{Binding: gpu.BindingVolumes, Buffer: volumes},
			{Binding: gpu.BindingOutput, Buffer: output},
			{Binding: gpu.BindingParams, Buffer: params},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating bind group: %w", err)
	}
	res.groups = append(res.groups, group)

	enc, err := dev.CreateCommandEncoder("mix")
	if err != nil {
		return nil, fmt.Errorf("creating command encoder: %w", err)
	}
	pass := enc.BeginComputePass()
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, group)
	pass.DispatchWorkgroups(grid.X, grid.Y, 1)
	pass.End()
	enc.CopyBufferToBuffer(output, 0, staging, 0, outSize)

	cmds, err := enc.Finish()
	if err != nil {
		return nil, fmt.Errorf("encoding mix: %w", err)
	}
	if err := q.Submit(cmds); err != nil {
		return nil, fmt.Errorf("submitting mix: %w", err)
	}

	sig := gpu.MapRead(staging)
	if err := sig.Wait(ctx, dev.Poll); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			// The device may still answer once the buffers are gone.
			sig.Abandon()
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", gpu.ErrSync, err)
	}

	data, err := staging.MappedRange()
	if err != nil {
		staging.Unmap()
		return nil, fmt.Errorf("%w: %w", gpu.ErrSync, err)
	}
	out := make([]float32, n)
	gpu.BytesFloat32(out, data)
	staging.Unmap()

	r.opts.logger.Debug("gpu mix done",
		zap.Int("tracks", len(tracks)),
		zap.Int("samples", n),
		zap.Uint32("groups_x", grid.X),
		zap.Uint32("groups_y", grid.Y),
		zap.Uint64("invocations", grid.Invocations()),
		zap.Duration("elapsed", time.Since(begin)),
	)

	return out, nil
}
