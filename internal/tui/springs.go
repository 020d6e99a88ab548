// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/harmonica"

// springField animates one value per bar toward a moving target. The peak
// markers ride on it so they glide instead of jumping between frames.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps float64, frequency, damping float64) springField {
	if fps <= 0 {
		fps = 60
	}
	return springField{spring: harmonica.NewSpring(harmonica.FPS(int(fps+0.5)), frequency, damping)}
}

// resize keeps existing positions and zeroes new ones.
func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	pos := make([]float64, n)
	vel := make([]float64, n)
	copy(pos, s.pos)
	copy(vel, s.vel)
	s.pos, s.vel = pos, vel
}

func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return p
}
