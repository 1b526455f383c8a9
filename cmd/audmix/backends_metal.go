// SPDX-License-Identifier: EPL-2.0

//go:build darwin

package main

import _ "github.com/gogpu/wgpu/hal/metal"
