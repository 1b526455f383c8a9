// SPDX-License-Identifier: EPL-2.0

// Package halgpu runs the gpu device contract on a native adapter through
// the gogpu/wgpu hardware abstraction layer.
//
// Backends register themselves with hal when their package is imported
// (Vulkan, Metal, DX12 and GLES live under github.com/gogpu/wgpu/hal).
// Adapter tries the registered backends in order and opens the first
// adapter one of them exposes.
//
// # Timeline
//
// Every submission is fenced. Poll walks the submissions and map requests
// in the order they were made, waiting briefly on each fence; a map
// resolves only after everything submitted before it has finished.
// Releasing a buffer or bind group is also placed on the timeline, so
// objects still used by in-flight work are destroyed once it completes.
//
// # Readback
//
// Buffers created with MapRead usage live in host memory. Copying into
// one records a readback that runs once the submission's fence has
// signalled, using hal's Queue.ReadBuffer on the source buffer. Copies
// between two device buffers are not supported.
package halgpu
