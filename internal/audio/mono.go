// SPDX-License-Identifier: MIT
package audio

// Downmix averages interleaved frames of the given channel count into dst
// and returns the number of mono samples written. It stops at whichever of
// dst or the complete frames in interleaved runs out first.
func Downmix(dst, interleaved []float32, channels int) int {
	if channels <= 1 {
		return copy(dst, interleaved)
	}
	frames := min(len(interleaved)/channels, len(dst))

	switch channels {
	case 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (interleaved[idx] + interleaved[idx+1]) * 0.5
		}
	default:
		inv := float32(1) / float32(channels)
		for f := range frames {
			base := f * channels
			var sum float32
			for c := range channels {
				sum += interleaved[base+c]
			}
			dst[f] = sum * inv
		}
	}
	return frames
}
