// SPDX-License-Identifier: EPL-2.0

package halgpu

import "errors"

var (
	ErrNoBackend   = errors.New("halgpu: no registered backend")
	ErrNoAdapter   = errors.New("halgpu: backend exposes no adapter")
	ErrDeviceLost  = errors.New("halgpu: device released")
	ErrValidation  = errors.New("halgpu: validation error")
	ErrNotMappable = errors.New("halgpu: buffer lacks MapRead usage")
	ErrMapPending  = errors.New("halgpu: buffer already mapped or mapping")
	ErrNotMapped   = errors.New("halgpu: buffer is not mapped")
	ErrMapAborted  = errors.New("halgpu: buffer released before map completed")
	ErrBufferBusy  = errors.New("halgpu: buffer is mapped")
	ErrUnsupported = errors.New("halgpu: unsupported operation")
)
