// SPDX-License-Identifier: EPL-2.0

// Package softgpu is an in-process gpu.Device.
//
// It follows WebGPU's execution model closely enough to stand in for a
// native device in tests. Queue writes, submissions and map requests share
// one timeline that only advances when the device is polled, so a map
// always observes the work submitted before it. Buffer usage flags and
// bind groups are validated against the pipeline layout, and dispatches
// above the per-dimension workgroup limit are rejected at submit.
//
// Shader modules are checked with naga but not interpreted. The entry
// point must have a registered Go kernel, which is run once per
// invocation with WGSL's builtin ids. The mixing kernel is registered by
// default under gpu.MixEntryPoint.
package softgpu
