// SPDX-License-Identifier: EPL-2.0

package softgpu

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/ik5/audmix/gpu"
)

var (
	ErrDeviceLost     = errors.New("softgpu: device released")
	ErrValidation     = errors.New("softgpu: validation error")
	ErrUnknownEntry   = errors.New("softgpu: no kernel for entry point")
	ErrNotComputeWGSL = errors.New("softgpu: source has no @compute entry point")
)

var workgroupSizeRe = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?(?:,\s*(\d+)\s*)?\)`)

type Option func(*Device)

// WithLimits overrides the reported and enforced limits.
func WithLimits(l gpu.Limits) Option {
	return func(d *Device) { d.limits = l }
}

// WithKernel registers a Go kernel for a WGSL entry point. A nil kernel
// removes the entry.
func WithKernel(entry string, k Kernel) Option {
	return func(d *Device) {
		if k == nil {
			delete(d.kernels, entry)
			return
		}
		d.kernels[entry] = k
	}
}

// WithWorkers bounds the goroutines used per dispatch.
func WithWorkers(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.workers = n
		}
	}
}

// Device is a software gpu.Device. It is safe for concurrent use.
type Device struct {
	mu       sync.Mutex // guards work and released
	pollMu   sync.Mutex // one Poll drains the queue at a time
	limits   gpu.Limits
	kernels  map[string]Kernel
	workers  int
	work     []task
	released bool
	queue    *queue
}

// task is one entry of the device timeline: either queued work or a map
// request, resolved strictly in the order they were made.
type task struct {
	run     func() error
	buffers []*buffer // every buffer run touches
	m       *pendingMap
}

func (t task) exec() {
	if t.m != nil {
		t.m.resolve()
		return
	}

	for _, b := range t.buffers {
		// The owner dropped it; nothing can observe the result.
		if b.isReleased() {
			return
		}
	}
	if err := t.run(); err != nil {
		for _, b := range t.buffers {
			b.fail(err)
		}
	}
}

// New creates a device with the mixing kernel registered.
func New(opts ...Option) *Device {
	d := &Device{
		limits:  gpu.DefaultLimits(),
		kernels: map[string]Kernel{gpu.MixEntryPoint: MixTracks},
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = &queue{dev: d}

	return d
}

// Adapter hands out software devices.
type Adapter struct {
	Options []Option
}

func (a Adapter) RequestDevice(ctx context.Context) (gpu.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return New(a.Options...), nil
}

func (d *Device) Limits() gpu.Limits { return d.limits }
func (d *Device) Queue() gpu.Queue   { return d.queue }

func (d *Device) Release() {
	d.mu.Lock()
	d.released = true
	d.mu.Unlock()
}

func (d *Device) alive() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrDeviceLost
	}
	return nil
}

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if err := validateBuffer(desc); err != nil {
		return nil, err
	}

	return &buffer{
		dev:   d,
		label: desc.Label,
		usage: desc.Usage,
		data:  make([]byte, desc.Size),
	}, nil
}

type shaderModule struct {
	source        string
	workgroupSize [3]uint32
}

func (*shaderModule) Release() {}

func (d *Device) CreateShaderModule(desc *gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	m := workgroupSizeRe.FindStringSubmatch(desc.WGSL)
	if m == nil {
		return nil, fmt.Errorf("%w (%s)", ErrNotComputeWGSL, desc.Label)
	}

	// The kernel is not interpreted, but the source must still be WGSL a
	// native device would accept.
	if _, err := naga.Compile(desc.WGSL); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrValidation, desc.Label, err)
	}

	size := [3]uint32{1, 1, 1}
	for i, s := range m[1:] {
		if s == "" {
			continue
		}
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("%w: bad workgroup size %q", ErrValidation, s)
		}
		size[i] = uint32(v)
	}

	return &shaderModule{source: desc.WGSL, workgroupSize: size}, nil
}

type pipeline struct {
	entry         string
	kernel        Kernel
	workgroupSize [3]uint32
	layout        []gputypes.BindGroupLayoutEntry
}

// checkBindings matches a bind group against the pipeline layout. A
// pipeline built without a layout accepts any buffers.
func (p *pipeline) checkBindings(entries map[uint32]*buffer) error {
	if p.layout == nil {
		return nil
	}
	if len(entries) != len(p.layout) {
		return fmt.Errorf("%w: %d bindings, layout has %d", ErrValidation, len(entries), len(p.layout))
	}

	for _, l := range p.layout {
		b, ok := entries[l.Binding]
		switch {
		case !ok:
			return fmt.Errorf("%w: binding %d missing", ErrValidation, l.Binding)
		case l.Buffer == nil:
			return fmt.Errorf("%w: binding %d is not a buffer binding", ErrValidation, l.Binding)
		}

		want := gputypes.BufferUsageStorage
		if l.Buffer.Type == gputypes.BufferBindingTypeUniform {
			want = gputypes.BufferUsageUniform
		}
		if !hasUsage(b.usage, want) {
			return fmt.Errorf("%w: %s: binding %d is %s", ErrMissingUsage, b.label, l.Binding, l.Buffer.Type)
		}
	}

	return nil
}

func (*pipeline) Release() {}

func (d *Device) CreateComputePipeline(desc *gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	mod, ok := desc.Module.(*shaderModule)
	if !ok || mod == nil {
		return nil, fmt.Errorf("%w: foreign shader module", ErrValidation)
	}

	entryRe := regexp.MustCompile(`@compute[^{]*fn\s+` + regexp.QuoteMeta(desc.EntryPoint) + `\s*\(`)
	if !entryRe.MatchString(mod.source) {
		return nil, fmt.Errorf("%w: %q not declared", ErrNotComputeWGSL, desc.EntryPoint)
	}

	kernel := d.kernels[desc.EntryPoint]
	if kernel == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, desc.EntryPoint)
	}

	return &pipeline{
		entry:         desc.EntryPoint,
		kernel:        kernel,
		workgroupSize: mod.workgroupSize,
		layout:        desc.Layout,
	}, nil
}

type bindGroup struct {
	entries map[uint32]*buffer
}

func (*bindGroup) Release() {}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	entries := make(map[uint32]*buffer, len(desc.Entries))
	for _, e := range desc.Entries {
		b, ok := e.Buffer.(*buffer)
		if !ok || b == nil {
			return nil, fmt.Errorf("%w: binding %d is not a softgpu buffer", ErrValidation, e.Binding)
		}
		if _, dup := entries[e.Binding]; dup {
			return nil, fmt.Errorf("%w: binding %d bound twice", ErrValidation, e.Binding)
		}
		entries[e.Binding] = b
	}

	if p, ok := desc.Pipeline.(*pipeline); ok && p != nil {
		if err := p.checkBindings(entries); err != nil {
			return nil, err
		}
	}

	return &bindGroup{entries: entries}, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	return &encoder{dev: d, label: label}, nil
}

// Poll executes everything queued so far in order, resolving map requests
// as it reaches them. A failed operation fails the next map of the buffers
// it touched and nothing else. Poll reports whether the queue is empty.
func (d *Device) Poll() bool {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()

	d.mu.Lock()
	work := d.work
	d.work = nil
	d.mu.Unlock()

	for _, t := range work {
		t.exec()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.work) == 0
}

func (d *Device) enqueue(tasks ...task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrDeviceLost
	}
	d.work = append(d.work, tasks...)

	return nil
}

func (d *Device) enqueueMap(m *pendingMap) {
	d.mu.Lock()
	d.work = append(d.work, task{m: m})
	d.mu.Unlock()
}
