// SPDX-License-Identifier: EPL-2.0

package softgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/ik5/audmix/gpu"
)

var (
	ErrNotMappable  = errors.New("softgpu: buffer lacks MapRead usage")
	ErrMapPending   = errors.New("softgpu: buffer already mapped or mapping")
	ErrNotMapped    = errors.New("softgpu: buffer is not mapped")
	ErrMapAborted   = errors.New("softgpu: buffer released before map completed")
	ErrBufferBusy   = errors.New("softgpu: buffer is mapped")
	ErrOutOfBounds  = errors.New("softgpu: access out of bounds")
	ErrMissingUsage = errors.New("softgpu: buffer usage does not allow operation")
)

type mapState int

const (
	unmapped mapState = iota
	mapPending
	mapped
)

func validateBuffer(desc *gpu.BufferDescriptor) error {
	switch {
	case desc.Size == 0:
		return fmt.Errorf("%w: %s: zero-sized buffer", ErrValidation, desc.Label)
	case desc.Size%4 != 0:
		return fmt.Errorf("%w: %s: size %d not a multiple of 4", ErrValidation, desc.Label, desc.Size)
	case desc.Usage == 0:
		return fmt.Errorf("%w: %s: no usage", ErrValidation, desc.Label)
	case hasUsage(desc.Usage, gputypes.BufferUsageMapRead) &&
		desc.Usage&^(gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst) != 0:
		// WebGPU only pairs MapRead with CopyDst.
		return fmt.Errorf("%w: %s: MapRead combined with other usages", ErrValidation, desc.Label)
	}

	return nil
}

func hasUsage(have, want gputypes.BufferUsage) bool {
	return have&want == want
}

type buffer struct {
	dev   *Device
	label string
	usage gputypes.BufferUsage

	mu       sync.Mutex
	data     []byte
	state    mapState
	fault    error
	released bool
}

func (b *buffer) Size() uint64                { return uint64(len(b.data)) }
func (b *buffer) Usage() gputypes.BufferUsage { return b.usage }

func (b *buffer) MapReadAsync(done func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pm := &pendingMap{buf: b, done: done}
	switch {
	case b.released:
		pm.err = ErrMapAborted
	case !hasUsage(b.usage, gputypes.BufferUsageMapRead):
		pm.err = ErrNotMappable
	case b.state != unmapped:
		pm.err = ErrMapPending
	default:
		b.state = mapPending
	}

	b.dev.enqueueMap(pm)
}

func (b *buffer) MappedRange() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != mapped {
		return nil, ErrNotMapped
	}
	return b.data, nil
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
	defer b.mu.Unlock()

	b.released = true
	b.state = unmapped
}

// checkSubmit rejects work on a buffer that is gone or not unmapped.
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

// checkRun reports whether queued work may touch the buffer now. Work
// ordered before a map request still runs while the map is pending.
func (b *buffer) checkRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == mapped {
		return fmt.Errorf("%w: %s", ErrBufferBusy, b.label)
	}
	return nil
}

func (b *buffer) isReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.released
}

// fail records an execution error against the buffer. The next map of
// the buffer reports it.
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
