// SPDX-License-Identifier: EPL-2.0

// Package gpu describes the GPU compute collaborator the mixer offloads to,
// plus the backend-independent pieces of the offload: dispatch grid sizing,
// the uniform parameter block, the WGSL kernel and the map-for-read
// handshake.
//
// # Device Contract
//
// Device, Queue, Buffer and friends model the subset of WebGPU the mixer
// needs: buffer allocation with usage flags (github.com/gogpu/gputypes),
// shader modules from WGSL text, compute pipelines, bind groups, command
// encoding and an asynchronous map-for-read. Any backend that satisfies
// them can run the kernel; softgpu is an in-process reference device.
//
// # Dispatch Grid
//
// One invocation runs per output sample, but a single dispatch dimension is
// capped. NewGrid folds the work into a 2D grid and the kernel recovers its
// flat index as
//
//	idx = global_id.y * (num_workgroups.x * workgroup_size) + global_id.x
//
// discarding any idx >= buffer_len.
//
// # Readback
//
// Mapping is asynchronous. MapRead returns a MapSignal; Wait keeps calling
// the supplied drive step (usually Device.Poll) until the signal fires or
// the context ends. The mapped bytes must not be touched before then.
package gpu
