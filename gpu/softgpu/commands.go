// SPDX-License-Identifier: EPL-2.0

package softgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/ik5/audmix/gpu"
)

type queue struct {
	dev *Device
}

func (q *queue) WriteBuffer(dst gpu.Buffer, offset uint64, data []byte) error {
	b, ok := dst.(*buffer)
	if !ok {
		return fmt.Errorf("%w: foreign buffer", ErrValidation)
	}
	if !hasUsage(b.usage, gputypes.BufferUsageCopyDst) {
		return fmt.Errorf("%w: %s: write needs CopyDst", ErrMissingUsage, b.label)
	}
	if offset+uint64(len(data)) > b.Size() {
		return fmt.Errorf("%w: %s: write of %d at %d", ErrOutOfBounds, b.label, len(data), offset)
	}
	if err := b.checkSubmit(); err != nil {
		return err
	}

	// Staged so the write lands in submission order.
	staged := append([]byte(nil), data...)
	return q.dev.enqueue(task{
		buffers: []*buffer{b},
		run: func() error {
			if err := b.checkRun(); err != nil {
				return err
			}
			copy(b.data[offset:], staged)
			return nil
		},
	})
}

func (q *queue) Submit(cmds ...gpu.CommandBuffer) error {
	for _, c := range cmds {
		cb, ok := c.(*commandBuffer)
		if !ok || cb == nil {
			return fmt.Errorf("%w: foreign command buffer", ErrValidation)
		}
		if cb.submitted {
			return fmt.Errorf("%w: %s: command buffer submitted twice", ErrValidation, cb.label)
		}
		for _, cmd := range cb.cmds {
			if err := cmd.validate(q.dev.limits); err != nil {
				return err
			}
			for _, b := range cmd.buffers() {
				if err := b.checkSubmit(); err != nil {
					return err
				}
			}
		}
	}

	// One submission lands on the timeline as a unit.
	var tasks []task
	for _, c := range cmds {
		cb := c.(*commandBuffer)
		cb.submitted = true
		for _, cmd := range cb.cmds {
			tasks = append(tasks, task{
				buffers: cmd.buffers(),
				run:     func() error { return cmd.run(q.dev) },
			})
		}
	}

	return q.dev.enqueue(tasks...)
}

type command interface {
	validate(l gpu.Limits) error
	buffers() []*buffer
	run(d *Device) error
}

type encoder struct {
	dev      *Device
	label    string
	cmds     []command
	finished bool
	err      error
}

func (e *encoder) BeginComputePass() gpu.ComputePass {
	return &computePass{enc: e}
}

func (e *encoder) CopyBufferToBuffer(src gpu.Buffer, srcOffset uint64, dst gpu.Buffer, dstOffset uint64, size uint64) {
	s, ok1 := src.(*buffer)
	d, ok2 := dst.(*buffer)
	if !ok1 || !ok2 {
		e.fail(fmt.Errorf("%w: foreign buffer in copy", ErrValidation))
		return
	}
	e.cmds = append(e.cmds, &copyCmd{src: s, srcOffset: srcOffset, dst: d, dstOffset: dstOffset, size: size})
}

func (e *encoder) Finish() (gpu.CommandBuffer, error) {
	if e.finished {
		return nil, fmt.Errorf("%w: %s: encoder finished twice", ErrValidation, e.label)
	}
	e.finished = true
	if e.err != nil {
		return nil, e.err
	}

	return &commandBuffer{label: e.label, cmds: e.cmds}, nil
}

func (e *encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

type commandBuffer struct {
	label     string
	cmds      []command
	submitted bool
}

type computePass struct {
	enc      *encoder
	pipeline *pipeline
	groups   map[uint32]*bindGroup
	ended    bool
}

func (p *computePass) SetPipeline(pl gpu.ComputePipeline) {
	sp, ok := pl.(*pipeline)
	if !ok {
		p.enc.fail(fmt.Errorf("%w: foreign pipeline", ErrValidation))
		return
	}
	p.pipeline = sp
}

func (p *computePass) SetBindGroup(index uint32, g gpu.BindGroup) {
	bg, ok := g.(*bindGroup)
	if !ok {
		p.enc.fail(fmt.Errorf("%w: foreign bind group", ErrValidation))
		return
	}
	if p.groups == nil {
		p.groups = make(map[uint32]*bindGroup)
	}
	p.groups[index] = bg
}

func (p *computePass) DispatchWorkgroups(x, y, z uint32) {
	if p.ended {
		p.enc.fail(fmt.Errorf("%w: dispatch after End", ErrValidation))
		return
	}
	if p.pipeline == nil {
		p.enc.fail(fmt.Errorf("%w: dispatch without pipeline", ErrValidation))
		return
	}

	p.enc.cmds = append(p.enc.cmds, &dispatchCmd{
		pipeline: p.pipeline,
		group:    p.groups[0],
		groups:   [3]uint32{x, y, z},
	})
}

func (p *computePass) End() { p.ended = true }

type copyCmd struct {
	src, dst             *buffer
	srcOffset, dstOffset uint64
	size                 uint64
}

func (c *copyCmd) validate(gpu.Limits) error {
	switch {
	case !hasUsage(c.src.usage, gputypes.BufferUsageCopySrc):
		return fmt.Errorf("%w: %s: copy source needs CopySrc", ErrMissingUsage, c.src.label)
	case !hasUsage(c.dst.usage, gputypes.BufferUsageCopyDst):
		return fmt.Errorf("%w: %s: copy destination needs CopyDst", ErrMissingUsage, c.dst.label)
	case c.size%4 != 0 || c.srcOffset%4 != 0 || c.dstOffset%4 != 0:
		return fmt.Errorf("%w: copy not 4-byte aligned", ErrValidation)
	case c.srcOffset+c.size > c.src.Size() || c.dstOffset+c.size > c.dst.Size():
		return fmt.Errorf("%w: copy of %d bytes", ErrOutOfBounds, c.size)
	}
	return nil
}

func (c *copyCmd) buffers() []*buffer { return []*buffer{c.src, c.dst} }

func (c *copyCmd) run(*Device) error {
	if err := c.src.checkRun(); err != nil {
		return err
	}
	if err := c.dst.checkRun(); err != nil {
		return err
	}
	copy(c.dst.data[c.dstOffset:c.dstOffset+c.size], c.src.data[c.srcOffset:c.srcOffset+c.size])
	return nil
}
