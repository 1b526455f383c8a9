// SPDX-License-Identifier: EPL-2.0

package gpu

import "fmt"

// DefaultMaxGroupsX keeps the X dimension comfortably below the 65535 cap.
const DefaultMaxGroupsX = 32768

// Grid is a 2D dispatch covering a flat range of work items.
type Grid struct {
	X, Y          uint32
	WorkgroupSize uint32
}

// NewGrid sizes a grid for n items. X is capped at maxGroupsX and Y grows to
// cover the rest. An empty range gives an empty grid.
func NewGrid(n int, workgroupSize, maxGroupsX uint32) (Grid, error) {
	if n < 0 || workgroupSize == 0 || maxGroupsX == 0 {
		return Grid{}, fmt.Errorf("%w: n=%d workgroup=%d maxX=%d", ErrInvalidGrid, n, workgroupSize, maxGroupsX)
	}
	if n == 0 {
		return Grid{WorkgroupSize: workgroupSize}, nil
	}

	groups := ceilDiv(uint64(n), uint64(workgroupSize))
	x := min(groups, uint64(maxGroupsX))
	y := ceilDiv(groups, x)

	if y > uint64(^uint32(0)) {
		return Grid{}, fmt.Errorf("%w: %d rows", ErrGridTooLarge, y)
	}

	return Grid{X: uint32(x), Y: uint32(y), WorkgroupSize: workgroupSize}, nil
}

// Stride is the number of invocations per grid row.
func (g Grid) Stride() uint32 { return g.X * g.WorkgroupSize }

// Invocations is the total number of invocations the grid launches, which
// may exceed the number of work items.
func (g Grid) Invocations() uint64 {
	return uint64(g.X) * uint64(g.Y) * uint64(g.WorkgroupSize)
}

// Index recovers the flat item index of the invocation at global id (x, y).
func (g Grid) Index(x, y uint32) uint64 {
	return uint64(y)*uint64(g.Stride()) + uint64(x)
}

// Fits reports whether the grid respects a per-dimension limit.
func (g Grid) Fits(l Limits) bool {
	return g.X <= l.MaxWorkgroupsPerDimension && g.Y <= l.MaxWorkgroupsPerDimension
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}
