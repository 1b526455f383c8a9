// SPDX-License-Identifier: EPL-2.0

package mix

import "errors"

// ErrClosed is returned by a reducer used after Close.
var ErrClosed = errors.New("mix: reducer closed")
