package reel

import "math"

// ActivationThreshold is the visible fraction an item needs to become active.
const ActivationThreshold = 0.95

// Visibility maps rendered item ids to the fraction of their page inside
// the viewport, in [0, 1]. Derived per frame, never persisted.
type Visibility map[string]float64

// ViewportTracker decides which item is active from visibility reports.
//
// Exactly one page fits the viewport, so at rest only one item can reach
// the threshold. During a transition zero items may qualify; the tracker
// then keeps the previous answer so the active item does not flicker.
type ViewportTracker struct {
	threshold float64
	seq       *sequence
	active    string
}

// newViewportTracker creates a tracker over seq. A threshold outside (0, 1]
// falls back to ActivationThreshold.
func newViewportTracker(seq *sequence, threshold float64) *ViewportTracker {
	if threshold <= 0 || threshold > 1 {
		threshold = ActivationThreshold
	}
	return &ViewportTracker{threshold: threshold, seq: seq}
}

// Active returns the last item that crossed the threshold, or "".
func (t *ViewportTracker) Active() string {
	return t.active
}

// Threshold returns the activation threshold in use.
func (t *ViewportTracker) Threshold() float64 {
	return t.threshold
}

// Report processes one frame. It returns the item that should be active
// and whether that differs from the previous answer. Ids not in the feed
// are ignored; if two items qualify the one earlier in the sequence wins.
func (t *ViewportTracker) Report(v Visibility) (string, bool) {
	best := -1
	for id, frac := range v {
		if frac < t.threshold {
			continue
		}
		i, ok := t.seq.index[id]
		if !ok {
			continue
		}
		if best < 0 || i < best {
			best = i
		}
	}
	if best < 0 {
		return t.active, false
	}
	id := t.seq.at(best).ID
	if id == t.active {
		return id, false
	}
	t.active = id
	return id, true
}

// force sets the tracked item without a report. Used when the controller
// activates an item directly.
func (t *ViewportTracker) force(id string) {
	t.active = id
}

// At computes the visibility of the tracked feed for a viewport of one
// extent starting at offset.
func (t *ViewportTracker) At(offset, extent float64) Visibility {
	v := make(Visibility, 2)
	visiblePages(offset, extent, t.seq.len(), func(i int, frac float64) {
		v[t.seq.at(i).ID] = frac
	})
	return v
}

// VisibilityAt computes per-page visibility for a viewport of one extent
// starting at offset, where ids[i] occupies [i*extent, (i+1)*extent).
// Pages entirely off screen are omitted.
func VisibilityAt(offset, extent float64, ids []string) Visibility {
	v := make(Visibility, 2)
	visiblePages(offset, extent, len(ids), func(i int, frac float64) {
		v[ids[i]] = frac
	})
	return v
}

func visiblePages(offset, extent float64, count int, fn func(i int, frac float64)) {
	if extent <= 0 || count == 0 {
		return
	}
	first := int(math.Floor(offset / extent))
	if first < 0 {
		first = 0
	}
	for i := first; i < count && float64(i)*extent < offset+extent; i++ {
		top := math.Max(float64(i)*extent, offset)
		bottom := math.Min(float64(i+1)*extent, offset+extent)
		if bottom <= top {
			continue
		}
		fn(i, (bottom-top)/extent)
	}
}
