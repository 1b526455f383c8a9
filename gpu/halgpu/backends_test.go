// SPDX-License-Identifier: EPL-2.0

//go:build linux || windows

package halgpu_test

import _ "github.com/gogpu/wgpu/hal/vulkan"
