// SPDX-License-Identifier: EPL-2.0

package gpu

import "errors"

var (
	// ErrDevice covers adapter and device acquisition failures. It is fatal
	// to the backend instance.
	ErrDevice = errors.New("gpu device unavailable")

	// ErrShader covers shader module and pipeline build failures.
	ErrShader = errors.New("gpu shader build failed")

	// ErrSync reports a failed or abandoned map-for-read. Only the current
	// call is affected.
	ErrSync = errors.New("gpu map-for-read failed")

	ErrGridTooLarge   = errors.New("dispatch grid exceeds device limits")
	ErrInvalidGrid    = errors.New("invalid dispatch grid parameters")
	ErrBufferTooLarge = errors.New("buffer exceeds 32-bit index space")
	ErrReleased       = errors.New("gpu handle already released")
)
