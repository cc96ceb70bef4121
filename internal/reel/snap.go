package reel

import (
	"fmt"
	"math"
)

// SnapEpsilon is the largest deviation from a page boundary that is
// accepted without a corrective scroll.
const SnapEpsilon = 1.0

// ScrollCommand asks the scroll surface to move to Offset.
type ScrollCommand struct {
	Offset   float64
	Animated bool
}

func (ScrollCommand) effect() {}

// SkipReason says why a momentum end did not produce a correction.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipAligned means the offset was already within SnapEpsilon of a page.
	SkipAligned
	// SkipPending means the offset is the target of the correction already
	// in flight.
	SkipPending
	// SkipEmpty means there are no pages to snap to.
	SkipEmpty
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipAligned:
		return "aligned"
	case SkipPending:
		return "pending"
	case SkipEmpty:
		return "empty"
	default:
		return fmt.Sprintf("SkipReason(%d)", int(r))
	}
}

// SnapResult is the outcome of one momentum end. When Skipped is true no
// command is issued (SnapCorrectionSkipped); this is informational only.
type SnapResult struct {
	Offset  float64 // settled offset as reported
	Page    int     // nearest page index
	Target  float64 // Page * extent
	Command ScrollCommand
	Skipped bool
	Reason  SkipReason
}

// SnapCorrectionSkipped reports a momentum end that needed no correction.
type SnapCorrectionSkipped struct {
	Offset float64
	Page   int
	Reason SkipReason
}

func (SnapCorrectionSkipped) effect() {}

// PageSnapController keeps the resting offset on page boundaries.
//
// While a drag or momentum is in progress the offset is unconstrained.
// When momentum ends, the offset is rounded to the nearest page and a
// corrective animated scroll is issued if it is more than SnapEpsilon
// away. The settle event produced by that correction lands on the target
// and is therefore a no-op.
type PageSnapController struct {
	extent  float64
	epsilon float64
	pending float64
	hasPend bool
}

func newPageSnapController(extent, epsilon float64) (*PageSnapController, error) {
	if extent <= 0 || math.IsNaN(extent) || math.IsInf(extent, 0) {
		return nil, fmt.Errorf("extent %v: %w", extent, ErrInvalidExtent)
	}
	if epsilon <= 0 {
		epsilon = SnapEpsilon
	}
	return &PageSnapController{extent: extent, epsilon: epsilon}, nil
}

// Extent returns the page extent.
func (s *PageSnapController) Extent() float64 {
	return s.extent
}

// Pending returns the target of the in-flight correction, if any.
func (s *PageSnapController) Pending() (float64, bool) {
	return s.pending, s.hasPend
}

func (s *PageSnapController) setExtent(extent float64) error {
	if extent <= 0 || math.IsNaN(extent) || math.IsInf(extent, 0) {
		return fmt.Errorf("extent %v: %w", extent, ErrInvalidExtent)
	}
	s.extent = extent
	s.hasPend = false
	return nil
}

// PageOf returns the nearest page index for offset, clamped to
// [0, pages-1]. With no pages it returns 0.
func (s *PageSnapController) PageOf(offset float64, pages int) int {
	if pages <= 0 {
		return 0
	}
	i := int(math.Round(offset / s.extent))
	if i < 0 {
		i = 0
	}
	if i > pages-1 {
		i = pages - 1
	}
	return i
}

// OffsetOf returns the exact resting offset of page i.
func (s *PageSnapController) OffsetOf(page int) float64 {
	return float64(page) * s.extent
}

// MomentumEnd evaluates a settled offset over a feed of pages items.
func (s *PageSnapController) MomentumEnd(offset float64, pages int) SnapResult {
	res := SnapResult{Offset: offset}
	if pages <= 0 {
		s.hasPend = false
		res.Skipped, res.Reason = true, SkipEmpty
		return res
	}
	res.Page = s.PageOf(offset, pages)
	res.Target = s.OffsetOf(res.Page)

	if math.Abs(offset-res.Target) <= s.epsilon {
		res.Skipped, res.Reason = true, SkipAligned
		if s.hasPend && math.Abs(offset-s.pending) <= s.epsilon {
			res.Reason = SkipPending
		}
		s.hasPend = false
		return res
	}

	s.pending, s.hasPend = res.Target, true
	res.Command = ScrollCommand{Offset: res.Target, Animated: true}
	return res
}

// jump records a programmatic move to page and returns its command. It
// replaces any in-flight correction.
func (s *PageSnapController) jump(page int, animated bool) ScrollCommand {
	s.pending, s.hasPend = s.OffsetOf(page), true
	return ScrollCommand{Offset: s.OffsetOf(page), Animated: animated}
}

// cancel drops the in-flight correction.
func (s *PageSnapController) cancel() {
	s.hasPend = false
}
