// SPDX-License-Identifier: MIT
package analysis

import "time"

// VisualizerFrame is one analysis result handed to the rendering side. Both
// slices have one entry per bar, each in [0, 100]. A frame is freshly
// allocated for every emission and never touched by the pipeline again.
type VisualizerFrame struct {
	BarHeights []float64 `json:"barHeights"`
	PeakLevels []float64 `json:"peakLevels"`
	Sequence   uint64    `json:"seq"`
	Timestamp  time.Time `json:"ts"`
}

// Bars returns the bar count of the frame, or -1 if the two slices
// disagree.
func (f VisualizerFrame) Bars() int {
	if len(f.BarHeights) != len(f.PeakLevels) {
		return -1
	}
	return len(f.BarHeights)
}

// Fits reports whether the frame can be drawn onto bars bars. Consumers
// skip frames that do not fit instead of indexing past either slice.
func (f VisualizerFrame) Fits(bars int) bool {
	return bars >= 0 && f.Bars() == bars
}
