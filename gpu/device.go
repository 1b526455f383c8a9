// SPDX-License-Identifier: EPL-2.0

package gpu

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
)

// DefaultMaxWorkgroupsPerDimension is the WebGPU baseline for
// maxComputeWorkgroupsPerDimension.
const DefaultMaxWorkgroupsPerDimension = 65535

// Limits reported by a device.
type Limits struct {
	MaxWorkgroupsPerDimension uint32
	MaxStorageBufferSize      uint64
}

// DefaultLimits returns the WebGPU baseline limits.
func DefaultLimits() Limits {
	return Limits{
		MaxWorkgroupsPerDimension: DefaultMaxWorkgroupsPerDimension,
		MaxStorageBufferSize:      128 << 20,
	}
}

// Adapter hands out devices.
type Adapter interface {
	RequestDevice(ctx context.Context) (Device, error)
}

// OpenDevice acquires a device from a. Every failure is reported as ErrDevice.
func OpenDevice(ctx context.Context, a Adapter) (Device, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: no adapter", ErrDevice)
	}

	dev, err := a.RequestDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDevice, err)
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: adapter returned no device", ErrDevice)
	}

	return dev, nil
}

// Device is the compute device contract.
type Device interface {
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
	Queue() Queue
	Limits() Limits

	// Poll drives pending device work, including map callbacks. Some hosts
	// never make progress without it. It reports whether the device is idle.
	Poll() bool

	Release()
}

type Queue interface {
	WriteBuffer(b Buffer, offset uint64, data []byte) error
	Submit(cmds ...CommandBuffer) error
}

type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

type Buffer interface {
	Size() uint64
	Usage() gputypes.BufferUsage

	// MapReadAsync requests host access to the buffer contents. done is
	// called exactly once, from Device.Poll, with nil on success.
	MapReadAsync(done func(error))
	// MappedRange is valid only after a successful map and before Unmap.
	MappedRange() ([]byte, error)
	Unmap()

	Release()
}

type ShaderModuleDescriptor struct {
	Label string
	WGSL  string
}

type ShaderModule interface {
	Release()
}

type ComputePipelineDescriptor struct {
	Label      string
	Module     ShaderModule
	EntryPoint string
	// Layout lists the buffer bindings of group 0, matching the @binding
	// declarations of the entry point.
	Layout []gputypes.BindGroupLayoutEntry
}

type ComputePipeline interface {
	Release()
}

type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
}

type BindGroupDescriptor struct {
	Label    string
	Pipeline ComputePipeline
	Group    uint32
	Entries  []BindGroupEntry
}

type BindGroup interface {
	Release()
}

type CommandEncoder interface {
	BeginComputePass() ComputePass
	CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64)
	Finish() (CommandBuffer, error)
}

type ComputePass interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(index uint32, g BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End()
}

// CommandBuffer is an opaque recorded command list.
type CommandBuffer interface{}
