// SPDX-License-Identifier: EPL-2.0

package audmix_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/ik5/audmix"
	"github.com/ik5/audmix/gpu"
	"github.com/ik5/audmix/gpu/softgpu"
	"github.com/ik5/audmix/internal/audiotest"
	"github.com/ik5/audmix/mix"
)

// Example_combine mixes a stereo and a mono file with the voice at full
// volume and the music at half volume.
func Example_combine() {
	ctx := context.Background()

	voice := audiotest.WAV16(44100, 2, []int16{1000, 1000, 2000, 2000})
	music := audiotest.WAV16(44100, 1, []int16{4000, 4000, 4000})

	c, err := audmix.New(ctx, []audmix.File{
		{Bytes: voice, Type: audmix.WAV},
		{Bytes: music, Type: audmix.WAV},
	})
	if err != nil {
		fmt.Printf("decode error: %v\n", err)
		return
	}

	out, err := c.Combine(ctx, []uint8{100, 50})
	if err != nil {
		fmt.Printf("combine error: %v\n", err)
		return
	}

	// 44-byte header plus three stereo frames of 16-bit samples.
	fmt.Printf("%d tracks -> %s, %d bytes\n", c.Tracks(), out.Type, len(out.Bytes))
	// Output: 2 tracks -> wav, 56 bytes
}

// Example_gpuReducer runs the same mix on a compute device.
func Example_gpuReducer() {
	ctx := context.Background()

	dev, err := gpu.OpenDevice(ctx, softgpu.Adapter{})
	if err != nil {
		fmt.Printf("device error: %v\n", err)
		return
	}

	r, err := mix.NewGPUReducer(dev)
	if err != nil {
		fmt.Printf("pipeline error: %v\n", err)
		return
	}
	defer r.Close()

	file := audmix.File{Bytes: audiotest.WAV16(44100, 2, []int16{100, -100}), Type: audmix.WAV}
	c, err := audmix.New(ctx, []audmix.File{file, file}, audmix.WithReducer(r))
	if err != nil {
		fmt.Printf("decode error: %v\n", err)
		return
	}

	out, err := c.Combine(ctx, nil)
	if err != nil {
		fmt.Printf("combine error: %v\n", err)
		return
	}

	fmt.Println(len(out.Bytes))
	// Output: 48
}

// Example_decodeError shows how to find the input that failed.
func Example_decodeError() {
	_, err := audmix.New(context.Background(), []audmix.File{
		{Bytes: audiotest.WAV16(44100, 2, []int16{1, 2}), Type: audmix.WAV},
		{Bytes: []byte{1, 2, 3}, Type: audmix.FileType(99)},
	})

	var de *audmix.DecodeError
	if errors.As(err, &de) {
		fmt.Printf("file %d: %v\n", de.Index, errors.Is(err, audmix.ErrUnsupportedType))
	}
	// Output: file 1: true
}
