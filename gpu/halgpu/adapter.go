// SPDX-License-Identifier: EPL-2.0

package halgpu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/ik5/audmix/gpu"
)

// DefaultBackends is the order backends are tried in when an Adapter does
// not name any.
var DefaultBackends = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// DefaultFenceWait bounds how long one Poll waits on a submission.
const DefaultFenceWait = 2 * time.Millisecond

// Adapter opens native devices. The zero value tries DefaultBackends.
type Adapter struct {
	Backends  []gputypes.Backend
	FenceWait time.Duration
}

var _ gpu.Adapter = Adapter{}

func (a Adapter) RequestDevice(ctx context.Context) (gpu.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := a.Backends
	if len(order) == 0 {
		order = DefaultBackends
	}
	wait := a.FenceWait
	if wait <= 0 {
		wait = DefaultFenceWait
	}

	var errs []error
	for _, variant := range order {
		backend, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}

		dev, err := open(backend, wait)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", variant, err))
			continue
		}
		return dev, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: tried %v", ErrNoBackend, order)
	}
	return nil, errors.Join(errs...)
}

func open(backend hal.Backend, wait time.Duration) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("creating instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	exposed := adapters[0]

	od, err := exposed.Adapter.Open(0, exposed.Capabilities.Limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("opening %s: %w", exposed.Info.Name, err)
	}

	d := newDevice(od.Device, od.Queue, limitsFrom(exposed.Capabilities.Limits), wait)
	d.onRelease = instance.Destroy

	return d, nil
}

// limitsFrom picks the limits the offload checks before dispatching.
func limitsFrom(l gputypes.Limits) gpu.Limits {
	out := gpu.DefaultLimits()
	if l.MaxComputeWorkgroupsPerDimension > 0 {
		out.MaxWorkgroupsPerDimension = l.MaxComputeWorkgroupsPerDimension
	}
	if l.MaxStorageBufferBindingSize > 0 {
		out.MaxStorageBufferSize = l.MaxStorageBufferBindingSize
	}
	return out
}
