package ui

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// flingReach is how far one key press throws the surface, in pages. It is
// short of a full page so the snap correction does the rest.
const flingReach = 0.85

// flingDistance is how many rows one key press throws a page of extent
// rows. The gap left for the correction stays wider than epsilon, or the
// snap would see an aligned page and leave the feed short of it. Pages too
// small for such a gap are thrown whole.
func flingDistance(extent, epsilon float64) float64 {
	reach := math.Min(flingReach, 1-2*epsilon/extent)
	if reach <= 0.5 {
		return extent
	}
	return reach * extent
}

// settleDistance is how close to the target the spring must come, in rows,
// before the motion counts as ended.
const settleDistance = 0.05

// surface is the simulated scroll view. Offsets are in terminal rows.
type surface struct {
	// Smooth scrolling with harmonica spring physics
	spring harmonica.Spring
	pos    float64 // Current animated scroll position
	vel    float64 // Current scroll velocity
	target float64 // Where the current motion comes to rest
	moving bool
}

func newSurface() surface {
	return surface{spring: harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.9)}
}

// fling throws the surface by delta rows from wherever the current motion
// would stop, clamped to [lo, hi].
func (s *surface) fling(delta, lo, hi float64) {
	base := s.pos
	if s.moving {
		base = s.target
	}
	s.target = clamp(base+delta, lo, hi)
	s.moving = true
}

// drag moves the surface directly, as a finger or wheel would. It stops
// any motion in progress.
func (s *surface) drag(delta, lo, hi float64) {
	s.pos = clamp(s.pos+delta, lo, hi)
	s.target = s.pos
	s.vel = 0
	s.moving = false
}

// scrollTo applies a programmatic scroll.
func (s *surface) scrollTo(offset float64, animated bool) {
	s.target = offset
	if animated {
		s.moving = true
		return
	}
	s.pos = offset
	s.vel = 0
	s.moving = false
}

// step advances the spring one frame, keeping pos inside [lo, hi]: the
// spring overshoots its target, and the feed has no rows past either end.
// It reports true on the frame the motion comes to rest, at which point pos
// equals target exactly.
func (s *surface) step(lo, hi float64) bool {
	if !s.moving {
		return false
	}
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
	lo, hi = math.Min(lo, s.target), math.Max(hi, s.target)
	if c := clamp(s.pos, lo, hi); c != s.pos {
		s.pos = c
		s.vel = 0
	}
	if math.Abs(s.pos-s.target) < settleDistance && math.Abs(s.vel) < settleDistance {
		s.pos = s.target
		s.vel = 0
		s.moving = false
		return true
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(hi, v))
}
