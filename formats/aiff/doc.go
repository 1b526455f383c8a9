// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF (Audio Interchange File Format) input through
// github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported:
//
//	src, err := aiff.Decoder{}.Decode(bytes.NewReader(data))
//
// # Errors
//
//   - ErrNotAiffFile: the FORM/AIFF structure is missing
//   - ErrUnsupportedAiffLayout: no usable COMM chunk
//   - ErrUnsupportedBitDepth: depths other than 8, 16, 24 and 32
package aiff
