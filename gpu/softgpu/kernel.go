// SPDX-License-Identifier: EPL-2.0

package softgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/ik5/audmix/gpu"
	"github.com/sourcegraph/conc/pool"
)

// Kernel runs one compute invocation.
type Kernel func(inv Invocation, b *Bindings)

// Invocation carries WGSL's compute builtins.
type Invocation struct {
	GlobalID      [3]uint32
	NumWorkgroups [3]uint32
	WorkgroupSize [3]uint32
}

// Bindings exposes the buffers of bind group 0 to a kernel. Reads out of
// bounds return zero and writes out of bounds are dropped, as with WebGPU
// robust buffer access.
type Bindings struct {
	bufs map[uint32][]byte
}

// Bytes returns the raw contents of a binding.
func (b *Bindings) Bytes(binding uint32) []byte { return b.bufs[binding] }

func (b *Bindings) F32(binding uint32, i uint64) float32 {
	return math.Float32frombits(b.U32(binding, i))
}

func (b *Bindings) U32(binding uint32, i uint64) uint32 {
	buf := b.bufs[binding]
	if i >= uint64(len(buf))/4 {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[i*4:])
}

func (b *Bindings) SetF32(binding uint32, i uint64, v float32) {
	buf := b.bufs[binding]
	if i >= uint64(len(buf))/4 {
		return
	}
	binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
}

// MixTracks is the Go rendering of the mix_tracks WGSL kernel.
func MixTracks(inv Invocation, b *Bindings) {
	stride := uint64(inv.NumWorkgroups[0]) * uint64(inv.WorkgroupSize[0])
	idx := uint64(inv.GlobalID[1])*stride + uint64(inv.GlobalID[0])

	params := gpu.ParseParams(b.Bytes(gpu.BindingParams))
	n := uint64(params.BufferLen)
	if idx >= n {
		return
	}

	var sum float32
	for t := range uint64(params.NumTracks) {
		// float32() keeps the product rounded, matching the CPU reducer.
		sum += float32(b.F32(gpu.BindingSamples, t*n+idx) * b.F32(gpu.BindingVolumes, t))
	}
	b.SetF32(gpu.BindingOutput, idx, sum)
}

type dispatchCmd struct {
	pipeline *pipeline
	group    *bindGroup
	groups   [3]uint32
}

func (c *dispatchCmd) validate(l gpu.Limits) error {
	for i, g := range c.groups {
		if g > l.MaxWorkgroupsPerDimension {
			return fmt.Errorf("%w: dimension %d has %d workgroups, limit %d",
				gpu.ErrGridTooLarge, i, g, l.MaxWorkgroupsPerDimension)
		}
	}
	if c.group == nil {
		return fmt.Errorf("%w: dispatch without bind group 0", ErrValidation)
	}
	for binding, buf := range c.group.entries {
		if hasUsage(buf.usage, gputypes.BufferUsageMapRead) {
			return fmt.Errorf("%w: binding %d is a map-read buffer", ErrValidation, binding)
		}
		if !hasUsage(buf.usage, gputypes.BufferUsageStorage) && !hasUsage(buf.usage, gputypes.BufferUsageUniform) {
			return fmt.Errorf("%w: binding %d needs Storage or Uniform usage", ErrMissingUsage, binding)
		}
	}
	return nil
}

func (c *dispatchCmd) buffers() []*buffer {
	out := make([]*buffer, 0, len(c.group.entries))
	for _, b := range c.group.entries {
		out = append(out, b)
	}
	return out
}

func (c *dispatchCmd) run(d *Device) error {
	bufs := make(map[uint32][]byte, len(c.group.entries))
	for binding, buf := range c.group.entries {
		if err := buf.checkRun(); err != nil {
			return err
		}
		bufs[binding] = buf.data
	}
	bindings := &Bindings{bufs: bufs}

	gx, gy, gz := c.groups[0], c.groups[1], c.groups[2]
	if gx == 0 || gy == 0 || gz == 0 {
		return nil
	}
	wg := c.pipeline.workgroupSize

	// One task per (y, z) row of workgroups; each writes disjoint indices.
	p := pool.New().WithMaxGoroutines(d.workers)
	for z := range gz * wg[2] {
		for y := range gy * wg[1] {
			p.Go(func() {
				inv := Invocation{NumWorkgroups: c.groups, WorkgroupSize: wg}
				inv.GlobalID[1] = y
				inv.GlobalID[2] = z
				for x := range gx * wg[0] {
					inv.GlobalID[0] = x
					c.pipeline.kernel(inv, bindings)
				}
			})
		}
	}
	p.Wait()

	return nil
}
