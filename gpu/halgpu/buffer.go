// SPDX-License-Identifier: EPL-2.0

package halgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/ik5/audmix/gpu"
)

type mapState int

const (
	unmapped mapState = iota
	mapPending
	mapped
)

func hasUsage(have, want gputypes.BufferUsage) bool {
	return have&want == want
}

// buffer is either a device buffer (raw) or, for MapRead usage, a block
// of host memory filled by readbacks.
type buffer struct {
	dev   *Device
	label string
	usage gputypes.BufferUsage
	size  uint64
	raw   hal.Buffer

	mu       sync.Mutex
	host     []byte
	state    mapState
	fault    error
	released bool
}

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}

	switch {
	case desc.Size == 0:
		return nil, fmt.Errorf("%w: %s: zero-sized buffer", ErrValidation, desc.Label)
	case desc.Size%4 != 0:
		return nil, fmt.Errorf("%w: %s: size %d not a multiple of 4", ErrValidation, desc.Label, desc.Size)
	case desc.Usage == 0:
		return nil, fmt.Errorf("%w: %s: no usage", ErrValidation, desc.Label)
	case hasUsage(desc.Usage, gputypes.BufferUsageMapRead) &&
		desc.Usage&^(gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst) != 0:
		return nil, fmt.Errorf("%w: %s: MapRead combined with other usages", ErrValidation, desc.Label)
	}

	b := &buffer{dev: d, label: desc.Label, usage: desc.Usage, size: desc.Size}
	if hasUsage(desc.Usage, gputypes.BufferUsageMapRead) {
		b.host = make([]byte, desc.Size)
		return b, nil
	}

	raw, err := d.raw.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("buffer %s: %w", desc.Label, err)
	}
	b.raw = raw

	return b, nil
}

func (b *buffer) Size() uint64                { return b.size }
func (b *buffer) Usage() gputypes.BufferUsage { return b.usage }

func (b *buffer) MapReadAsync(done func(error)) {
	b.mu.Lock()
	pm := &pendingMap{buf: b, done: done}
	switch {
	case b.released:
		pm.err = ErrMapAborted
	case b.host == nil:
		pm.err = ErrNotMappable
	case b.state != unmapped:
		pm.err = ErrMapPending
	default:
		b.state = mapPending
	}
	b.mu.Unlock()

	if err := b.dev.enqueue(task{m: pm}); err != nil {
		pm.err = err
		pm.resolve()
	}
}

func (b *buffer) MappedRange() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != mapped {
		return nil, ErrNotMapped
	}
	return b.host, nil
}

func (b *buffer) Unmap() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == mapped {
		b.state = unmapped
	}
}

func (b *buffer) Release() {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.released = true
	b.state = unmapped
	b.mu.Unlock()

	if b.raw != nil {
		b.dev.later(func() { b.dev.raw.DestroyBuffer(b.raw) })
	}
}

func (b *buffer) checkSubmit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return fmt.Errorf("%w: %s: buffer released", ErrValidation, b.label)
	}
	if b.state != unmapped {
		return fmt.Errorf("%w: %s", ErrBufferBusy, b.label)
	}
	return nil
}

func (b *buffer) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fault == nil {
		b.fault = err
	}
}

type pendingMap struct {
	buf  *buffer
	done func(error)
	err  error
}

func (p *pendingMap) resolve() {
	err := p.err
	if err == nil {
		p.buf.mu.Lock()
		switch {
		case p.buf.released:
			err = ErrMapAborted
		case p.buf.fault != nil:
			err = p.buf.fault
			p.buf.fault = nil
			p.buf.state = unmapped
		default:
			p.buf.state = mapped
		}
		p.buf.mu.Unlock()
	}

	if p.done != nil {
		p.done(err)
	}
}
