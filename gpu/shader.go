// SPDX-License-Identifier: EPL-2.0

package gpu

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// MixShader is the WGSL mixing kernel.
//
//go:embed shaders/mix.wgsl
var MixShader string

const (
	// MixEntryPoint is the kernel function name in MixShader.
	MixEntryPoint = "mix_tracks"

	// MixWorkgroupSize matches @workgroup_size in MixShader.
	MixWorkgroupSize = 64

	// MaxWorkgroupSize is the WebGPU baseline for
	// maxComputeInvocationsPerWorkgroup.
	MaxWorkgroupSize = 256
)

// Mix kernel bindings, group 0.
const (
	BindingSamples uint32 = iota
	BindingVolumes
	BindingOutput
	BindingParams
)

// MixLayout is the group 0 layout of the mixing kernel.
func MixLayout() []gputypes.BindGroupLayoutEntry {
	entry := func(binding uint32, typ gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: typ},
		}
	}

	return []gputypes.BindGroupLayoutEntry{
		entry(BindingSamples, gputypes.BufferBindingTypeReadOnlyStorage),
		entry(BindingVolumes, gputypes.BufferBindingTypeReadOnlyStorage),
		entry(BindingOutput, gputypes.BufferBindingTypeStorage),
		entry(BindingParams, gputypes.BufferBindingTypeUniform),
	}
}

// MixShaderSource returns MixShader compiled for another workgroup size.
func MixShaderSource(workgroupSize uint32) string {
	if workgroupSize == MixWorkgroupSize {
		return MixShader
	}

	return strings.NewReplacer(
		fmt.Sprintf("@workgroup_size(%d)", MixWorkgroupSize), fmt.Sprintf("@workgroup_size(%d)", workgroupSize),
		fmt.Sprintf("WG_SIZE: u32 = %du;", MixWorkgroupSize), fmt.Sprintf("WG_SIZE: u32 = %du;", workgroupSize),
	).Replace(MixShader)
}

// BuildMixPipeline compiles the mixing kernel on dev. Failures are ErrShader.
func BuildMixPipeline(dev Device, workgroupSize uint32) (ShaderModule, ComputePipeline, error) {
	if workgroupSize == 0 || workgroupSize > MaxWorkgroupSize {
		return nil, nil, fmt.Errorf("%w: workgroup size %d outside 1..%d", ErrShader, workgroupSize, MaxWorkgroupSize)
	}

	module, err := dev.CreateShaderModule(&ShaderModuleDescriptor{
		Label: "mix",
		WGSL:  MixShaderSource(workgroupSize),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: shader module: %w", ErrShader, err)
	}

	pipeline, err := dev.CreateComputePipeline(&ComputePipelineDescriptor{
		Label:      "mix",
		Module:     module,
		EntryPoint: MixEntryPoint,
		Layout:     MixLayout(),
	})
	if err != nil {
		module.Release()
		return nil, nil, fmt.Errorf("%w: pipeline: %w", ErrShader, err)
	}

	return module, pipeline, nil
}
