// Package ui provides the Bubble Tea viewer for the reels feed.
package ui

import (
	"time"

	"github.com/abelbrown/reels/internal/reel"
	"github.com/abelbrown/reels/internal/store"
)

// PageLoaded is sent when a page of items is read from the store.
// After is the position the page continues from, -1 for the first page.
type PageLoaded struct {
	After int
	Items []store.Item
	Err   error
}

// MediaReady answers a LoadMedia effect. Err is set when the load failed.
type MediaReady struct {
	ItemID string
	Gen    uint64
	Handle reel.Handle
	Err    error
}

// LikeToggled is sent when a like has been persisted.
type LikeToggled struct {
	ID    string
	Liked bool
	Err   error
}

// FetchComplete is sent when background fetch finishes.
type FetchComplete struct {
	Source   string
	NewItems int
	Err      error
}

// frameMsg drives the scroll spring at 60fps while it is moving.
type frameMsg time.Time

// settleMsg fires after wheel input goes quiet. Seq matches the wheel
// event that scheduled it; older ones are stale.
type settleMsg struct {
	Seq int
}

// statusTickMsg refreshes the playback clock of the active reel.
type statusTickMsg struct{}
