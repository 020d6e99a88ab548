// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"testing"

	"beanal/internal/fft"
)

func TestBuildBinMapHybridLayout(t *testing.T) {
	m, err := BuildBinMap(64, 1024, 48000, MappingHybrid)
	if err != nil {
		t.Fatalf("BuildBinMap: %v", err)
	}
	if len(m) != 64 {
		t.Fatalf("got %d ranges, want 64", len(m))
	}

	// floor(64*0.4) = 25 linear bars, one bin each starting at bin 1.
	for i := range 25 {
		if want := (BinRange{Start: i + 1, End: i + 2}); m[i] != want {
			t.Errorf("linear bar %d = %+v, want %+v", i, m[i], want)
		}
	}
	// The log section starts right after the last linear bin.
	if m[25].Start != 26 {
		t.Errorf("first log bar starts at %d, want 26", m[25].Start)
	}
	// 20 kHz at 46.875 Hz/bin is bin 426.
	if last := m[63]; last.End != 426 {
		t.Errorf("last bar = %+v, want End 426", last)
	}
}

func TestBuildBinMapLogarithmic(t *testing.T) {
	m, err := BuildBinMap(10, 1024, 48000, MappingLogarithmic)
	if err != nil {
		t.Fatalf("BuildBinMap: %v", err)
	}
	// 20 Hz is below the first bin boundary.
	if m[0].Start != 0 {
		t.Errorf("first bar = %+v, want Start 0", m[0])
	}
	if m[9].End != 426 {
		t.Errorf("last bar = %+v, want End 426", m[9])
	}
}

func TestBuildBinMapInvariants(t *testing.T) {
	sizes := []int{4, 8, 64, 1024, 4096}
	rates := []float64{8000, 44100, 48000, 192000}
	modes := []MappingMode{MappingHybrid, MappingLogarithmic}

	for _, mode := range modes {
		for _, size := range sizes {
			for _, rate := range rates {
				t.Run(fmt.Sprintf("%s/%d/%.0f", mode, size, rate), func(t *testing.T) {
					maxBin := size/2 - 1
					for bars := 1; bars <= 300; bars++ {
						m, err := BuildBinMap(bars, size, rate, mode)
						if err != nil {
							t.Fatalf("bars=%d: %v", bars, err)
						}
						if len(m) != bars {
							t.Fatalf("bars=%d: got %d ranges", bars, len(m))
						}
						for i, r := range m {
							if r.End <= r.Start {
								t.Fatalf("bars=%d bar %d: empty range %+v", bars, i, r)
							}
							if r.Start < 0 || r.End > maxBin {
								t.Fatalf("bars=%d bar %d: %+v outside [0, %d]", bars, i, r, maxBin)
							}
							if i > 0 && r.Start < m[i-1].Start {
								t.Fatalf("bars=%d bar %d: start %d before previous %d", bars, i, r.Start, m[i-1].Start)
							}
						}
					}
				})
			}
		}
	}
}

func TestBuildBinMapIdempotent(t *testing.T) {
	a, _ := BuildBinMap(48, 2048, 44100, MappingHybrid)
	b, _ := BuildBinMap(48, 2048, 44100, MappingHybrid)
	if !a.Equal(b) {
		t.Error("identical inputs produced different maps")
	}
	c, _ := BuildBinMap(48, 2048, 48000, MappingHybrid)
	if a.Equal(c) {
		t.Error("a different sample rate should change the map")
	}
}

func TestBuildBinMapErrors(t *testing.T) {
	tests := []struct {
		name string
		bars int
		size int
		rate float64
		want error
	}{
		{"zero bars", 0, 1024, 48000, ErrInvalidBarCount},
		{"negative bars", -4, 1024, 48000, ErrInvalidBarCount},
		{"non power of two", 64, 1000, 48000, fft.ErrInvalidSize},
		{"too small", 64, 2, 48000, fft.ErrInvalidSize},
		{"zero rate", 64, 1024, 0, ErrInvalidSampleRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildBinMap(tt.bars, tt.size, tt.rate, MappingHybrid); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBinMapperCachesUntilGeometryChanges(t *testing.T) {
	mapper, err := NewBinMapper(1024)
	if err != nil {
		t.Fatalf("NewBinMapper: %v", err)
	}

	steps := []struct {
		bars        int
		rate        float64
		mode        MappingMode
		wantRebuilt bool
	}{
		{64, 48000, MappingHybrid, true},
		{64, 48000, MappingHybrid, false},
		{32, 48000, MappingHybrid, true},
		{32, 44100, MappingHybrid, true},
		{32, 44100, MappingLogarithmic, true},
		{32, 44100, MappingLogarithmic, false},
	}
	for i, s := range steps {
		m, rebuilt, err := mapper.Map(s.bars, s.rate, s.mode)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if rebuilt != s.wantRebuilt {
			t.Errorf("step %d: rebuilt = %v, want %v", i, rebuilt, s.wantRebuilt)
		}
		if len(m) != s.bars {
			t.Errorf("step %d: %d ranges, want %d", i, len(m), s.bars)
		}
	}
	if mapper.Rebuilds() != 4 {
		t.Errorf("Rebuilds() = %d, want 4", mapper.Rebuilds())
	}

	// A failed rebuild keeps the previous map.
	prev, _, _ := mapper.Map(32, 44100, MappingLogarithmic)
	m, rebuilt, err := mapper.Map(0, 44100, MappingLogarithmic)
	if err == nil || rebuilt || !m.Equal(prev) {
		t.Errorf("invalid geometry: map=%d rebuilt=%v err=%v", len(m), rebuilt, err)
	}
}

func TestParseMappingMode(t *testing.T) {
	for in, want := range map[string]MappingMode{"": MappingHybrid, "Hybrid": MappingHybrid, "log": MappingLogarithmic, "logarithmic": MappingLogarithmic} {
		if got, err := ParseMappingMode(in); err != nil || got != want {
			t.Errorf("ParseMappingMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMappingMode("linear"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func BenchmarkBuildBinMap(b *testing.B) {
	for b.Loop() {
		BuildBinMap(128, 4096, 48000, MappingHybrid)
	}
}
