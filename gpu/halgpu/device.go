// SPDX-License-Identifier: EPL-2.0

package halgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/ik5/audmix/gpu"
)

// Device adapts a hal device and queue to gpu.Device. It is safe for
// concurrent use.
type Device struct {
	raw       hal.Device
	queue     hal.Queue
	limits    gpu.Limits
	fenceWait time.Duration
	onRelease func()

	mu       sync.Mutex // guards work and released
	pollMu   sync.Mutex // one Poll walks the timeline at a time
	work     []task
	released bool
}

var _ gpu.Device = (*Device)(nil)

// New wraps an already opened hal device. Release destroys it.
func New(device hal.Device, queue hal.Queue, limits gputypes.Limits) *Device {
	return newDevice(device, queue, limitsFrom(limits), DefaultFenceWait)
}

func newDevice(device hal.Device, queue hal.Queue, limits gpu.Limits, wait time.Duration) *Device {
	return &Device{
		raw:       device,
		queue:     queue,
		limits:    limits,
		fenceWait: wait,
	}
}

// task is one entry of the timeline.
type task struct {
	sub     *submission
	m       *pendingMap
	destroy func()
}

func (d *Device) Limits() gpu.Limits { return d.limits }
func (d *Device) Queue() gpu.Queue   { return &queue{dev: d} }

func (d *Device) alive() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrDeviceLost
	}
	return nil
}

func (d *Device) enqueue(t task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrDeviceLost
	}
	d.work = append(d.work, t)

	return nil
}

// later destroys an object once the work submitted so far has finished.
func (d *Device) later(destroy func()) {
	// Once the device is gone its objects went with it.
	_ = d.enqueue(task{destroy: destroy})
}

// Poll advances the timeline as far as the finished submissions allow.
func (d *Device) Poll() bool {
	return d.advance(d.fenceWait)
}

func (d *Device) advance(wait time.Duration) bool {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()

	for {
		d.mu.Lock()
		if len(d.work) == 0 {
			d.mu.Unlock()
			return true
		}
		t := d.work[0]
		d.mu.Unlock()

		switch {
		case t.sub != nil:
			done, err := d.raw.Wait(t.sub.fence, 1, wait)
			if err == nil && !done {
				return false
			}
			t.sub.finish(d, err)
		case t.m != nil:
			t.m.resolve()
		case t.destroy != nil:
			t.destroy()
		}

		d.mu.Lock()
		d.work = d.work[1:]
		d.mu.Unlock()
	}
}

// Release waits for outstanding work, then destroys the device.
func (d *Device) Release() {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	for {
		d.advance(time.Second)

		d.mu.Lock()
		if len(d.work) == 0 {
			d.released = true
			d.mu.Unlock()
			break
		}
		d.mu.Unlock()
	}

	d.raw.Destroy()
	if d.onRelease != nil {
		d.onRelease()
	}
}

type shaderModule struct {
	dev *Device
	raw hal.ShaderModule
}

func (m *shaderModule) Release() {
	m.dev.later(func() { m.dev.raw.DestroyShaderModule(m.raw) })
}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	raw, err := d.raw.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("shader module %s: %w", desc.Label, err)
	}

	return &shaderModule{dev: d, raw: raw}, nil
}

type pipeline struct {
	dev     *Device
	raw     hal.ComputePipeline
	layout  hal.PipelineLayout
	bgl     hal.BindGroupLayout
	entries []gputypes.BindGroupLayoutEntry
}

func (p *pipeline) Release() {
	p.dev.later(func() {
		p.dev.raw.DestroyComputePipeline(p.raw)
		p.dev.raw.DestroyPipelineLayout(p.layout)
		p.dev.raw.DestroyBindGroupLayout(p.bgl)
	})
}

// accepts checks that b may be bound at binding.
func (p *pipeline) accepts(binding uint32, b *buffer) error {
	for _, e := range p.entries {
		if e.Binding != binding || e.Buffer == nil {
			continue
		}
		want := gputypes.BufferUsageStorage
		if e.Buffer.Type == gputypes.BufferBindingTypeUniform {
			want = gputypes.BufferUsageUniform
		}
		if !hasUsage(b.usage, want) {
			return fmt.Errorf("%w: %s: binding %d is %s", ErrValidation, b.label, binding, e.Buffer.Type)
		}
		return nil
	}
	return fmt.Errorf("%w: layout has no buffer binding %d", ErrValidation, binding)
}

func (d *Device) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	mod, ok := desc.Module.(*shaderModule)
	if !ok || mod == nil {
		return nil, fmt.Errorf("%w: foreign shader module", ErrValidation)
	}
	if len(desc.Layout) == 0 {
		return nil, fmt.Errorf("%w: %s: pipeline needs an explicit layout", ErrValidation, desc.Label)
	}

	bgl, err := d.raw.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bgl",
		Entries: desc.Layout,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group layout %s: %w", desc.Label, err)
	}

	layout, err := d.raw.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgl},
	})
	if err != nil {
		d.raw.DestroyBindGroupLayout(bgl)
		return nil, fmt.Errorf("pipeline layout %s: %w", desc.Label, err)
	}

	raw, err := d.raw.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Compute: hal.ComputeState{
			Module:     mod.raw,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		d.raw.DestroyPipelineLayout(layout)
		d.raw.DestroyBindGroupLayout(bgl)
		return nil, fmt.Errorf("compute pipeline %s: %w", desc.Label, err)
	}

	return &pipeline{dev: d, raw: raw, layout: layout, bgl: bgl, entries: desc.Layout}, nil
}

type bindGroup struct {
	dev     *Device
	raw     hal.BindGroup
	buffers []*buffer
}

func (g *bindGroup) Release() {
	g.dev.later(func() { g.dev.raw.DestroyBindGroup(g.raw) })
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	p, ok := desc.Pipeline.(*pipeline)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: bind group needs a halgpu pipeline", ErrValidation)
	}
	if len(desc.Entries) != len(p.entries) {
		return nil, fmt.Errorf("%w: %d bindings, layout has %d", ErrValidation, len(desc.Entries), len(p.entries))
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(desc.Entries))
	bound := make([]*buffer, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		b, ok := e.Buffer.(*buffer)
		if !ok || b == nil || b.raw == nil {
			return nil, fmt.Errorf("%w: binding %d is not a device buffer", ErrValidation, e.Binding)
		}
		if err := p.accepts(e.Binding, b); err != nil {
			return nil, err
		}
		bound = append(bound, b)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: e.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: b.raw.NativeHandle(),
				Offset: 0,
				Size:   0, // whole buffer
			},
		})
	}

	raw, err := d.raw.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  p.bgl,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("bind group %s: %w", desc.Label, err)
	}

	return &bindGroup{dev: d, raw: raw, buffers: bound}, nil
}
