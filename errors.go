// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("audmix: decode failed")

	// ErrEmptyInput means there was nothing to mix: no files, or only
	// files without samples.
	ErrEmptyInput = errors.New("audmix: no samples to mix")

	ErrUnsupportedType = errors.New("audmix: unsupported file type")
)

// DecodeError reports which input could not be decoded.
type DecodeError struct {
	Index int
	Type  FileType
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audmix: decoding file %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
