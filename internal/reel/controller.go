package reel

import (
	"fmt"
	"sort"
)

// Options configures a Controller.
type Options struct {
	Extent        float64 // page extent, equal to the viewport height
	Threshold     float64 // activation threshold, default ActivationThreshold
	Epsilon       float64 // snap epsilon, default SnapEpsilon
	Window        int     // sessions kept on each side of the active page
	PrefetchPages int     // ask for more items this many pages before the end
	StartMuted    bool    // initial mute flag of new sessions
}

// DefaultOptions returns options for a feed with the given page extent.
func DefaultOptions(extent float64) Options {
	return Options{
		Extent:        extent,
		Threshold:     ActivationThreshold,
		Epsilon:       SnapEpsilon,
		Window:        1,
		PrefetchPages: 2,
		StartMuted:    true,
	}
}

// Controller owns the item sequence, the active item and the sessions.
// Not safe for concurrent use: confine it to the event loop.
type Controller struct {
	opts    Options
	engine  Engine
	seq     *sequence
	tracker *ViewportTracker
	snap    *PageSnapController

	active   string
	sessions map[string]*Session
	mutes    map[string]bool // mute flags that outlive released sessions
	nextGen  uint64
	offset   float64
	askedFor int // sequence length for which NeedMore was emitted, -1 if none
	jumpTo   int // page of an in-flight SetActiveItem scroll, -1 if none
}

// New creates a controller over items. Items must have unique ids and
// contiguous orders starting at zero.
func New(engine Engine, items []Item, opts Options) (*Controller, error) {
	if engine == nil {
		return nil, fmt.Errorf("reel: nil engine")
	}
	snap, err := newPageSnapController(opts.Extent, opts.Epsilon)
	if err != nil {
		return nil, err
	}
	if opts.Window < 0 {
		opts.Window = 0
	}
	if opts.PrefetchPages < 0 {
		opts.PrefetchPages = 0
	}
	seq := newSequence()
	if err := seq.append(items); err != nil {
		return nil, err
	}
	return &Controller{
		opts:     opts,
		engine:   engine,
		seq:      seq,
		tracker:  newViewportTracker(seq, opts.Threshold),
		snap:     snap,
		sessions: make(map[string]*Session),
		mutes:    make(map[string]bool),
		askedFor: -1,
		jumpTo:   -1,
	}, nil
}

// Start activates the first item, if any.
func (c *Controller) Start() []Effect {
	if c.seq.len() == 0 || c.active != "" {
		return nil
	}
	return c.activate(c.seq.at(0).ID)
}

// Handle is the transition function. It never fails: problems scoped to an
// item are reported as effects.
func (c *Controller) Handle(ev Event) []Effect {
	switch ev := ev.(type) {
	case ScrollMoved:
		c.offset = ev.Offset
		return c.observe(c.tracker.At(ev.Offset, c.snap.Extent()))

	case VisibilityReport:
		return c.observe(ev.Visible)

	case MomentumEnd:
		c.offset = ev.Offset
		c.jumpTo = -1 // the jump, if any, has landed
		effects := c.observe(c.tracker.At(ev.Offset, c.snap.Extent()))
		res := c.snap.MomentumEnd(ev.Offset, c.seq.len())
		if res.Skipped {
			return append(effects, SnapCorrectionSkipped{Offset: res.Offset, Page: res.Page, Reason: res.Reason})
		}
		return append(effects, res.Command)

	case MuteTap:
		if s, ok := c.sessions[ev.ItemID]; ok {
			muted := s.toggleMute()
			c.mutes[ev.ItemID] = muted
			return []Effect{MuteStateChanged{ID: ev.ItemID, Muted: muted}}
		}
		// Outside the window: remember the flag for when a session exists.
		if _, ok := c.seq.index[ev.ItemID]; !ok {
			return nil
		}
		muted, ok := c.mutes[ev.ItemID]
		if !ok {
			muted = c.opts.StartMuted
		}
		c.mutes[ev.ItemID] = !muted
		return []Effect{MuteStateChanged{ID: ev.ItemID, Muted: !muted}}

	case MediaLoaded:
		s, ok := c.sessions[ev.ItemID]
		if !ok || !s.loaded(ev.Gen, ev.Handle) {
			if r, ok := c.engine.(Releaser); ok && ev.Handle != nil {
				r.Release(ev.Handle)
			}
		}
		return nil

	case MediaLoadFailed:
		s, ok := c.sessions[ev.ItemID]
		if !ok {
			return nil
		}
		if lerr, ok := s.failed(ev.Gen, ev.Err); ok {
			return []Effect{lerr}
		}
		return nil

	case PageAppended:
		return c.appendPage(ev.Items)

	case Unmounted:
		if _, ok := c.sessions[ev.ItemID]; !ok {
			return nil
		}
		c.drop(ev.ItemID)
		if ev.ItemID != c.active {
			return nil
		}
		// The next visibility frame that qualifies it mounts it again.
		c.active = ""
		c.tracker.force("")
		return []Effect{ActiveItemChanged{ID: "", Previous: ev.ItemID, Page: -1}}

	case Resize:
		// Invalid extents keep the previous geometry.
		if err := c.snap.setExtent(ev.Extent); err != nil {
			return nil
		}
		c.jumpTo = -1
		if i, ok := c.seq.index[c.active]; ok {
			cmd := c.snap.jump(i, false)
			c.offset = cmd.Offset
			return []Effect{cmd}
		}
		return nil
	}
	return nil
}

// SetActiveItem makes id the active item and scrolls to its page. Any
// in-flight snap correction is superseded, and the pages the scroll passes
// over are not activated on the way.
func (c *Controller) SetActiveItem(id string) ([]Effect, error) {
	i, ok := c.seq.index[id]
	if !ok {
		return nil, fmt.Errorf("activate %q: %w", id, ErrUnknownItem)
	}
	effects := c.activate(id)
	c.jumpTo = -1
	if target := c.snap.OffsetOf(i); target != c.offset {
		c.jumpTo = i
		effects = append(effects, c.snap.jump(i, true))
	}
	return effects, nil
}

// observe feeds one visibility frame to the tracker and activates the
// winner if it changed.
func (c *Controller) observe(v Visibility) []Effect {
	id, changed := c.tracker.Report(v)
	if !changed {
		return nil
	}
	if c.jumpTo >= 0 && c.seq.index[id] != c.jumpTo {
		c.tracker.force(c.active)
		return nil
	}
	if pending, ok := c.snap.Pending(); ok && pending != c.snap.OffsetOf(c.seq.index[id]) {
		c.snap.cancel()
	}
	return c.activate(id)
}

// activate pauses the previous item, records id as active and starts it,
// then applies the session window and pagination policies.
func (c *Controller) activate(id string) []Effect {
	if id == c.active {
		return nil
	}
	prev := c.active
	if s, ok := c.sessions[prev]; ok {
		s.deactivate()
	}
	c.active = id
	c.tracker.force(id)

	page := c.seq.index[id]
	effects := []Effect{ActiveItemChanged{ID: id, Previous: prev, Page: page}}

	s := c.ensure(id)
	s.activate()
	if s.needsLoad() {
		effects = append(effects, s.loadRequest())
	} else if s.err != nil {
		effects = append(effects, s.err)
	}

	effects = append(effects, c.applyWindow(page)...)

	if n := c.seq.len(); page >= n-1-c.opts.PrefetchPages && c.askedFor != n {
		c.askedFor = n
		effects = append(effects, NeedMore{AfterOrder: n - 1})
	}
	return effects
}

// applyWindow keeps sessions within Window pages of page, preloading
// missing ones and releasing the rest.
func (c *Controller) applyWindow(page int) []Effect {
	var effects []Effect
	lo, hi := page-c.opts.Window, page+c.opts.Window
	for id := range c.sessions {
		i := c.seq.index[id]
		if (i < lo || i > hi) && id != c.active {
			c.drop(id)
		}
	}
	for i := max(lo, 0); i <= hi && i < c.seq.len(); i++ {
		s := c.ensure(c.seq.at(i).ID)
		if s.needsLoad() {
			effects = append(effects, s.loadRequest())
		}
	}
	return effects
}

// ensure returns the session for id, creating it on first use. Returns nil
// for ids not in the feed.
func (c *Controller) ensure(id string) *Session {
	if s, ok := c.sessions[id]; ok {
		return s
	}
	it, ok := c.seq.lookup(id)
	if !ok {
		return nil
	}
	muted, ok := c.mutes[id]
	if !ok {
		muted = c.opts.StartMuted
	}
	c.nextGen++
	s := newSession(it, c.engine, muted, c.nextGen)
	c.sessions[id] = s
	return s
}

func (c *Controller) drop(id string) {
	if s, ok := c.sessions[id]; ok {
		s.release()
		delete(c.sessions, id)
	}
}

func (c *Controller) appendPage(items []Item) []Effect {
	if len(items) == 0 {
		return nil
	}
	if err := c.seq.append(items); err != nil {
		return []Effect{PageRejected{Err: err}}
	}
	i, ok := c.seq.index[c.active]
	if !ok {
		return c.Start()
	}
	effects := c.applyWindow(i)
	if n := c.seq.len(); i >= n-1-c.opts.PrefetchPages && c.askedFor != n {
		c.askedFor = n
		effects = append(effects, NeedMore{AfterOrder: n - 1})
	}
	return effects
}

// Active returns the active item id, or "" for none.
func (c *Controller) Active() string {
	return c.active
}

// ActiveItem returns the active item.
func (c *Controller) ActiveItem() (Item, bool) {
	return c.seq.lookup(c.active)
}

// ActivePage returns the page index of the active item, or -1.
func (c *Controller) ActivePage() int {
	if i, ok := c.seq.index[c.active]; ok {
		return i
	}
	return -1
}

// Len returns the number of loaded items.
func (c *Controller) Len() int {
	return c.seq.len()
}

// Item returns the item at page i.
func (c *Controller) Item(i int) (Item, bool) {
	if i < 0 || i >= c.seq.len() {
		return Item{}, false
	}
	return c.seq.at(i), true
}

// Extent returns the current page extent.
func (c *Controller) Extent() float64 {
	return c.snap.Extent()
}

// SnapEpsilon returns the tolerance within which a settled offset counts
// as aligned to a page.
func (c *Controller) SnapEpsilon() float64 {
	return c.snap.epsilon
}

// Offset returns the last offset reported by the scroll surface.
func (c *Controller) Offset() float64 {
	return c.offset
}

// Session returns the live session for id.
func (c *Controller) Session(id string) (*Session, bool) {
	s, ok := c.sessions[id]
	return s, ok
}

// Playing returns the ids of playing sessions in feed order.
func (c *Controller) Playing() []string {
	var ids []string
	for id, s := range c.sessions {
		if s.state == StatePlaying {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return c.seq.index[ids[a]] < c.seq.index[ids[b]] })
	return ids
}

// SessionIDs returns the ids of live sessions in feed order.
func (c *Controller) SessionIDs() []string {
	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return c.seq.index[ids[a]] < c.seq.index[ids[b]] })
	return ids
}
