// SPDX-License-Identifier: EPL-2.0

package gpu_test

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/ik5/audmix/gpu"
	"github.com/ik5/audmix/gpu/softgpu"
)

func TestMixShader_Declarations(t *testing.T) {
	t.Parallel()

	for _, want := range []string{
		"fn " + gpu.MixEntryPoint + "(",
		fmt.Sprintf("@workgroup_size(%d)", gpu.MixWorkgroupSize),
		fmt.Sprintf("const WG_SIZE: u32 = %du;", gpu.MixWorkgroupSize),
		"@binding(0) var<storage, read> all_samples",
		"@binding(1) var<storage, read> volumes",
		"@binding(2) var<storage, read_write> output",
		"@binding(3) var<uniform> params",
	} {
		if !strings.Contains(gpu.MixShader, want) {
			t.Errorf("MixShader is missing %q", want)
		}
	}
}

func TestMixShader_Compiles(t *testing.T) {
	t.Parallel()

	const spirvMagic = 0x07230203

	for _, size := range []uint32{1, 64, 128, gpu.MaxWorkgroupSize} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			t.Parallel()

			spirv, err := naga.Compile(gpu.MixShaderSource(size))
			if err != nil {
				t.Fatalf("naga.Compile() error = %v", err)
			}
			if len(spirv) < 20 || len(spirv)%4 != 0 {
				t.Fatalf("naga.Compile() gave %d bytes", len(spirv))
			}
			if magic := binary.LittleEndian.Uint32(spirv); magic != spirvMagic {
				t.Errorf("SPIR-V magic = %#x, want %#x", magic, spirvMagic)
			}
		})
	}
}

func TestMixShader_BrokenSourceFails(t *testing.T) {
	t.Parallel()

	broken := strings.Replace(gpu.MixShader, "fn "+gpu.MixEntryPoint, "fn "+gpu.MixEntryPoint+"((", 1)
	if _, err := naga.Compile(broken); err == nil {
		t.Error("naga.Compile() accepted a malformed kernel")
	}
}

func TestMixLayout_MatchesShader(t *testing.T) {
	t.Parallel()

	decl := map[gputypes.BufferBindingType]string{
		gputypes.BufferBindingTypeReadOnlyStorage: "var<storage, read>",
		gputypes.BufferBindingTypeStorage:         "var<storage, read_write>",
		gputypes.BufferBindingTypeUniform:         "var<uniform>",
	}

	layout := gpu.MixLayout()
	if len(layout) != 4 {
		t.Fatalf("MixLayout() has %d entries, want 4", len(layout))
	}
	for _, e := range layout {
		if e.Visibility != gputypes.ShaderStageCompute || e.Buffer == nil {
			t.Errorf("binding %d: %+v is not a compute buffer binding", e.Binding, e)
			continue
		}
		want := fmt.Sprintf("@group(0) @binding(%d) %s", e.Binding, decl[e.Buffer.Type])
		if !strings.Contains(gpu.MixShader, want) {
			t.Errorf("MixShader does not declare %q", want)
		}
	}
}

func TestBuildMixPipeline(t *testing.T) {
	t.Parallel()

	dev := softgpu.New()
	defer dev.Release()

	module, pipeline, err := gpu.BuildMixPipeline(dev, gpu.MixWorkgroupSize)
	if err != nil {
		t.Fatalf("BuildMixPipeline() error = %v", err)
	}
	pipeline.Release()
	module.Release()
}

func TestBuildMixPipeline_NoKernel(t *testing.T) {
	t.Parallel()

	// A device that knows nothing about mix_tracks cannot build the pipeline.
	dev := softgpu.New(softgpu.WithKernel(gpu.MixEntryPoint, nil))
	defer dev.Release()

	_, _, err := gpu.BuildMixPipeline(dev, gpu.MixWorkgroupSize)
	if !errors.Is(err, gpu.ErrShader) {
		t.Fatalf("BuildMixPipeline() error = %v, want ErrShader", err)
	}
}

func TestOpenDevice(t *testing.T) {
	t.Parallel()

	dev, err := gpu.OpenDevice(context.Background(), softgpu.Adapter{})
	if err != nil {
		t.Fatalf("OpenDevice() error = %v", err)
	}
	dev.Release()

	if _, err := gpu.OpenDevice(context.Background(), nil); !errors.Is(err, gpu.ErrDevice) {
		t.Errorf("OpenDevice(nil) error = %v, want ErrDevice", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gpu.OpenDevice(ctx, softgpu.Adapter{})
	if !errors.Is(err, gpu.ErrDevice) || !errors.Is(err, context.Canceled) {
		t.Errorf("OpenDevice(canceled) error = %v, want ErrDevice wrapping Canceled", err)
	}
}

func TestMixShaderSource(t *testing.T) {
	t.Parallel()

	if gpu.MixShaderSource(gpu.MixWorkgroupSize) != gpu.MixShader {
		t.Error("default workgroup size changed the shader")
	}

	src := gpu.MixShaderSource(128)
	for _, want := range []string{"@workgroup_size(128)", "const WG_SIZE: u32 = 128u;"} {
		if !strings.Contains(src, want) {
			t.Errorf("MixShaderSource(128) is missing %q", want)
		}
	}
	if strings.Contains(src, "64") {
		t.Error("MixShaderSource(128) still mentions 64")
	}
}

func TestBuildMixPipeline_BadWorkgroupSize(t *testing.T) {
	t.Parallel()

	dev := softgpu.New()
	defer dev.Release()

	for _, size := range []uint32{0, gpu.MaxWorkgroupSize + 1} {
		if _, _, err := gpu.BuildMixPipeline(dev, size); !errors.Is(err, gpu.ErrShader) {
			t.Errorf("BuildMixPipeline(%d) error = %v, want ErrShader", size, err)
		}
	}
}
