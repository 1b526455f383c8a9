// SPDX-License-Identifier: EPL-2.0

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/ik5/audmix/gpu"
)

type queue struct {
	dev *Device
}

func (q *queue) WriteBuffer(dst gpu.Buffer, offset uint64, data []byte) error {
	b, ok := dst.(*buffer)
	if !ok || b == nil {
		return fmt.Errorf("%w: foreign buffer", ErrValidation)
	}
	if !hasUsage(b.usage, gputypes.BufferUsageCopyDst) {
		return fmt.Errorf("%w: %s: write needs CopyDst", ErrValidation, b.label)
	}
	if offset%4 != 0 || offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: %s: write of %d at %d", ErrValidation, b.label, len(data), offset)
	}
	if err := q.dev.alive(); err != nil {
		return err
	}
	if err := b.checkSubmit(); err != nil {
		return err
	}

	if b.raw == nil {
		b.mu.Lock()
		copy(b.host[offset:], data)
		b.mu.Unlock()
		return nil
	}

	q.dev.queue.WriteBuffer(b.raw, offset, data)
	return nil
}

func (q *queue) Submit(cmds ...gpu.CommandBuffer) error {
	d := q.dev

	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok || cb == nil {
			return fmt.Errorf("%w: foreign command buffer", ErrValidation)
		}
		if cb.submitted {
			return fmt.Errorf("%w: %s: command buffer submitted twice", ErrValidation, cb.label)
		}
		for _, b := range cb.buffers {
			if err := b.checkSubmit(); err != nil {
				return err
			}
		}
	}

	// Fences are queued in the order the hal queue sees the submissions.
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrDeviceLost
	}

	for _, c := range cmds {
		cb := c.(*commandBuffer)
		cb.submitted = true

		fence, err := d.raw.CreateFence()
		if err != nil {
			d.raw.FreeCommandBuffer(cb.raw)
			return fmt.Errorf("creating fence for %s: %w", cb.label, err)
		}
		if err := d.queue.Submit([]hal.CommandBuffer{cb.raw}, fence, 1); err != nil {
			d.raw.DestroyFence(fence)
			d.raw.FreeCommandBuffer(cb.raw)
			return fmt.Errorf("submitting %s: %w", cb.label, err)
		}

		d.work = append(d.work, task{sub: &submission{
			label:     cb.label,
			fence:     fence,
			cmds:      cb.raw,
			readbacks: cb.readbacks,
		}})
	}

	return nil
}

// readback copies a device buffer into a host buffer after the fence.
type readback struct {
	src, dst             *buffer
	srcOffset, dstOffset uint64
	size                 uint64
}

type submission struct {
	label     string
	fence     hal.Fence
	cmds      hal.CommandBuffer
	readbacks []readback
}

// finish runs once the fence signalled, or failed with err.
func (s *submission) finish(d *Device, err error) {
	for _, rb := range s.readbacks {
		rb.dst.mu.Lock()
		released := rb.dst.released
		rb.dst.mu.Unlock()
		if released {
			continue
		}

		if err != nil {
			rb.dst.fail(fmt.Errorf("%s: %w", s.label, err))
			continue
		}

		tmp := make([]byte, rb.size)
		if rerr := d.queue.ReadBuffer(rb.src.raw, rb.srcOffset, tmp); rerr != nil {
			rb.dst.fail(fmt.Errorf("%s: reading %s: %w", s.label, rb.src.label, rerr))
			continue
		}

		rb.dst.mu.Lock()
		copy(rb.dst.host[rb.dstOffset:], tmp)
		rb.dst.mu.Unlock()
	}

	d.raw.DestroyFence(s.fence)
	d.raw.FreeCommandBuffer(s.cmds)
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	raw, err := d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("command encoder %s: %w", label, err)
	}
	if err := raw.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("beginning %s: %w", label, err)
	}

	return &encoder{dev: d, label: label, raw: raw}, nil
}

type encoder struct {
	dev       *Device
	label     string
	raw       hal.CommandEncoder
	buffers   []*buffer
	readbacks []readback
	finished  bool
	err       error
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) BeginComputePass() gpu.ComputePass {
	return &computePass{
		enc: e,
		raw: e.raw.BeginComputePass(&hal.ComputePassDescriptor{Label: e.label}),
	}
}

func (e *encoder) CopyBufferToBuffer(src gpu.Buffer, srcOffset uint64, dst gpu.Buffer, dstOffset uint64, size uint64) {
	s, ok1 := src.(*buffer)
	d, ok2 := dst.(*buffer)
	switch {
	case !ok1 || !ok2:
		e.fail(fmt.Errorf("%w: foreign buffer in copy", ErrValidation))
	case s.raw == nil || d.raw != nil:
		e.fail(fmt.Errorf("%w: copy %s to %s: only device to MapRead copies", ErrUnsupported, s.label, d.label))
	case !hasUsage(s.usage, gputypes.BufferUsageCopySrc):
		e.fail(fmt.Errorf("%w: %s: copy source needs CopySrc", ErrValidation, s.label))
	case !hasUsage(d.usage, gputypes.BufferUsageCopyDst):
		e.fail(fmt.Errorf("%w: %s: copy destination needs CopyDst", ErrValidation, d.label))
	case size%4 != 0 || srcOffset%4 != 0 || dstOffset%4 != 0:
		e.fail(fmt.Errorf("%w: copy not 4-byte aligned", ErrValidation))
	case srcOffset+size > s.size || dstOffset+size > d.size:
		e.fail(fmt.Errorf("%w: copy of %d bytes out of bounds", ErrValidation, size))
	default:
		e.buffers = append(e.buffers, s, d)
		e.readbacks = append(e.readbacks, readback{src: s, dst: d, srcOffset: srcOffset, dstOffset: dstOffset, size: size})
	}
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	if e.finished {
		return nil, fmt.Errorf("%w: %s: encoder finished twice", ErrValidation, e.label)
	}
	e.finished = true
	if e.err != nil {
		e.raw.DiscardEncoding()
		return nil, e.err
	}

	raw, err := e.raw.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("ending %s: %w", e.label, err)
	}

	return &commandBuffer{label: e.label, raw: raw, buffers: e.buffers, readbacks: e.readbacks}, nil
}

type commandBuffer struct {
	label     string
	raw       hal.CommandBuffer
	buffers   []*buffer
	readbacks []readback
	submitted bool
}

type computePass struct {
	enc      *encoder
	raw      hal.ComputePassEncoder
	pipeline bool
	ended    bool
}

func (p *computePass) SetPipeline(pl gpu.ComputePipeline) {
	hp, ok := pl.(*pipeline)
	if !ok || hp == nil {
		p.enc.fail(fmt.Errorf("%w: foreign pipeline", ErrValidation))
		return
	}
	p.raw.SetPipeline(hp.raw)
	p.pipeline = true
}

func (p *computePass) SetBindGroup(index uint32, g gpu.BindGroup) {
	bg, ok := g.(*bindGroup)
	if !ok || bg == nil {
		p.enc.fail(fmt.Errorf("%w: foreign bind group", ErrValidation))
		return
	}
	p.raw.SetBindGroup(index, bg.raw, nil)
	p.enc.buffers = append(p.enc.buffers, bg.buffers...)
}

func (p *computePass) DispatchWorkgroups(x, y, z uint32) {
	limit := p.enc.dev.limits.MaxWorkgroupsPerDimension
	switch {
	case p.ended:
		p.enc.fail(fmt.Errorf("%w: dispatch after End", ErrValidation))
	case !p.pipeline:
		p.enc.fail(fmt.Errorf("%w: dispatch without pipeline", ErrValidation))
	case x > limit || y > limit || z > limit:
		p.enc.fail(fmt.Errorf("%w: %dx%dx%d, limit %d", gpu.ErrGridTooLarge, x, y, z, limit))
	default:
		p.raw.Dispatch(x, y, z)
	}
}

func (p *computePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.raw.End()
}
