// SPDX-License-Identifier: MIT
package tui

import (
	"strings"

	"beanal/internal/analysis"
)

// eighths holds the partial block for 0-8 eighths of a cell.
var eighths = []rune(" ▁▂▃▄▅▆▇█")

const peakRune = '▔'

// renderBars draws heights (0-100) into rows lines of width cells, top line
// first. When there are more bars than columns each column shows the
// loudest bar it covers; with fewer bars each bar spans several columns.
// peaks, when non-nil, draws a marker on the row each peak level reaches.
func renderBars(heights, peaks []float64, width, rows int) []string {
	if width <= 0 || rows <= 0 {
		return nil
	}
	colHeights := make([]float64, width)
	var colPeaks []float64
	if peaks != nil {
		colPeaks = make([]float64, width)
	}
	resample(colHeights, heights)
	if peaks != nil {
		resample(colPeaks, peaks)
	}

	lines := make([]string, rows)
	var sb strings.Builder
	for line := range rows {
		row := rows - 1 - line
		sb.Reset()
		for c := range width {
			sb.WriteRune(cell(colHeights[c], colPeaks, c, row, rows))
		}
		lines[line] = sb.String()
	}
	return lines
}

func cell(height float64, peaks []float64, col, row, rows int) rune {
	units := levelUnits(height, rows*8)
	n := min(max(units-row*8, 0), 8)
	if n < 8 && peaks != nil && peaks[col] > 0 {
		peakRow := min(levelUnits(peaks[col], rows*8)/8, rows-1)
		if peakRow == row && n == 0 {
			return peakRune
		}
	}
	return eighths[n]
}

// levelUnits scales a 0-100 level onto total units, rounding to nearest.
func levelUnits(level float64, total int) int {
	if !(level > 0) {
		return 0
	}
	u := int(level/analysis.MaxLevel*float64(total) + 0.5)
	return min(u, total)
}

// resample maps src onto dst, keeping the maximum of every source range
// that falls on one destination cell.
func resample(dst, src []float64) {
	if len(src) == 0 {
		clear(dst)
		return
	}
	for c := range dst {
		lo := c * len(src) / len(dst)
		hi := max((c+1)*len(src)/len(dst), lo+1)
		v := src[lo]
		for _, s := range src[lo+1 : hi] {
			v = max(v, s)
		}
		dst[c] = v
	}
}
