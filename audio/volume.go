// SPDX-License-Identifier: EPL-2.0

package audio

// FullVolume is the factor applied to tracks without a volume entry.
const FullVolume float32 = 1.0

// VolumeFactor converts a percentage into a linear gain. Values above 100
// amplify.
func VolumeFactor(percent uint8) float32 {
	return float32(percent) / 100.0
}

// VolumeFactors returns exactly n gains, pairing volumes with tracks by
// index. Missing entries default to FullVolume and surplus entries are
// ignored.
func VolumeFactors(volumes []uint8, n int) []float32 {
	factors := make([]float32, n)
	for i := range factors {
		if i < len(volumes) {
			factors[i] = VolumeFactor(volumes[i])
			continue
		}
		factors[i] = FullVolume
	}

	return factors
}
