package reel

// Event is an input to Controller.Handle. Each is processed to completion
// before the next one.
type Event interface {
	event()
}

// ScrollMoved reports the scroll offset of one frame during a drag,
// momentum or programmatic scroll.
type ScrollMoved struct {
	Offset float64
}

// VisibilityReport carries fractions computed by a list layer that does
// its own layout. Items with a fraction above zero count as rendered.
type VisibilityReport struct {
	Visible Visibility
}

// MomentumEnd reports that inertial scrolling stopped at Offset.
type MomentumEnd struct {
	Offset float64
}

// MuteTap is a user tap toggling mute on an item.
type MuteTap struct {
	ItemID string
}

// MediaLoaded completes a LoadMedia request.
type MediaLoaded struct {
	ItemID string
	Gen    uint64
	Handle Handle
}

// MediaLoadFailed completes a LoadMedia request with an error.
type MediaLoadFailed struct {
	ItemID string
	Gen    uint64
	Err    error
}

// PageAppended delivers the next page of items after a NeedMore.
type PageAppended struct {
	Items []Item
}

// Unmounted reports that the list layer dropped an item's view.
type Unmounted struct {
	ItemID string
}

// Resize changes the page extent, e.g. after a window resize.
type Resize struct {
	Extent float64
}

func (ScrollMoved) event()      {}
func (VisibilityReport) event() {}
func (MomentumEnd) event()      {}
func (MuteTap) event()          {}
func (MediaLoaded) event()      {}
func (MediaLoadFailed) event()  {}
func (PageAppended) event()     {}
func (Unmounted) event()        {}
func (Resize) event()           {}

// Effect is an output of Controller.Handle for the host to act on.
type Effect interface {
	effect()
}

// ActiveItemChanged tells overlay UI which item is now active.
type ActiveItemChanged struct {
	ID       string
	Previous string
	Page     int
}

// MuteStateChanged reports a mute toggle.
type MuteStateChanged struct {
	ID    string
	Muted bool
}

// LoadMedia asks the host to call Engine.Load off the event loop and
// answer with MediaLoaded or MediaLoadFailed carrying the same Gen.
type LoadMedia struct {
	ItemID   string
	MediaRef string
	Gen      uint64
}

// NeedMore asks the host for the page of items after AfterOrder.
type NeedMore struct {
	AfterOrder int
}

// PageRejected reports a PageAppended that failed validation. The feed is
// left unchanged.
type PageRejected struct {
	Err error
}

func (ActiveItemChanged) effect() {}
func (MuteStateChanged) effect()  {}
func (LoadMedia) effect()         {}
func (NeedMore) effect()          {}
func (PageRejected) effect()      {}
