// SPDX-License-Identifier: EPL-2.0

//go:build linux || windows

package main

// Registers the Vulkan backend with hal for --gpu-device native.
import _ "github.com/gogpu/wgpu/hal/vulkan"
