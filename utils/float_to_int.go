// SPDX-License-Identifier: EPL-2.0

package utils

// FullScale is the int16 value of a sample at 1.0.
const FullScale = 32767

// Float32ToInt16 quantizes one sample: clamp to [-1, 1], scale by
// FullScale and truncate toward zero. The output range is symmetric,
// [-32767, 32767].
func Float32ToInt16(x float32) int16 {
	x = min(max(x, -1), 1)
	return int16(x * FullScale)
}
