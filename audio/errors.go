// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrNoChannels   = errors.New("source reports zero channels")
	ErrOddTrackSize = errors.New("stereo track must hold an even number of samples")
)
