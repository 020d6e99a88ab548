// SPDX-License-Identifier: MIT
package audio

import "testing"

func TestDownmix(t *testing.T) {
	tests := []struct {
		name        string
		interleaved []float32
		channels    int
		dstLen      int
		want        []float32
	}{
		{"mono passthrough", []float32{0.1, 0.2, 0.3}, 1, 3, []float32{0.1, 0.2, 0.3}},
		{"stereo", []float32{1, 0, 0.5, 0.5, -1, 1}, 2, 3, []float32{0.5, 0.5, 0}},
		{"quad", []float32{1, 1, 1, 1, 0, 0, 0, 1}, 4, 2, []float32{1, 0.25}},
		{"partial frame dropped", []float32{1, 1, 1}, 2, 4, []float32{1}},
		{"dst shorter", []float32{1, 1, 0, 0, 1, 1}, 2, 2, []float32{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, tt.dstLen)
			n := Downmix(dst, tt.interleaved, tt.channels)
			if n != len(tt.want) {
				t.Fatalf("Downmix wrote %d samples, want %d", n, len(tt.want))
			}
			for i, w := range tt.want {
				if dst[i] != w {
					t.Errorf("dst[%d] = %v, want %v", i, dst[i], w)
				}
			}
		})
	}
}

func TestDownmixNoAllocs(t *testing.T) {
	in := make([]float32, 2048)
	dst := make([]float32, 1024)
	allocs := testing.AllocsPerRun(100, func() {
		Downmix(dst, in, 2)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Downmix, got %.1f", allocs)
	}
}
