// SPDX-License-Identifier: EPL-2.0

package gpu

import "sync/atomic"

// Handle is one reference to a shared Device. The device is released when
// the last handle is released.
type Handle struct {
	dev      Device
	refs     *atomic.Int64
	released atomic.Bool
}

// NewHandle takes ownership of dev with one reference.
func NewHandle(dev Device) *Handle {
	refs := &atomic.Int64{}
	refs.Store(1)

	return &Handle{dev: dev, refs: refs}
}

// Device returns the shared device, or ErrReleased once this handle has
// been released.
func (h *Handle) Device() (Device, error) {
	if h.released.Load() || h.refs.Load() <= 0 {
		return nil, ErrReleased
	}
	return h.dev, nil
}

// Acquire adds a reference and returns a handle that must be released
// separately.
func (h *Handle) Acquire() (*Handle, error) {
	if h.released.Load() {
		return nil, ErrReleased
	}
	for {
		n := h.refs.Load()
		if n <= 0 {
			return nil, ErrReleased
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return &Handle{dev: h.dev, refs: h.refs}, nil
		}
	}
}

// Release drops this handle's reference. Further calls do nothing.
func (h *Handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.refs.Add(-1) == 0 {
		h.dev.Release()
	}
}

func (h *Handle) count() int64 { return h.refs.Load() }
