// Package reel implements the full-screen vertical media feed controller.
//
// A feed is an ordered sequence of media items, each exactly one page tall.
// The Controller keeps at most one item playing, snaps the scroll surface to
// page boundaries after momentum, and routes mute taps to per-item playback
// sessions. It is a single-threaded state machine: every input is a typed
// Event passed to Controller.Handle, and every output is an Effect returned
// from it. Hosts must confine all calls to one goroutine (the bubbletea
// Update loop in this repository).
package reel

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownItem is returned when an id is not part of the loaded feed.
	ErrUnknownItem = errors.New("unknown feed item")

	// ErrDuplicateItem is returned when a feed contains the same id twice.
	ErrDuplicateItem = errors.New("duplicate feed item")

	// ErrOrderGap is returned when item orders are not contiguous from the
	// end of the existing sequence.
	ErrOrderGap = errors.New("feed item order is not contiguous")

	// ErrInvalidItem is returned for an item without an id.
	ErrInvalidItem = errors.New("invalid feed item")

	// ErrInvalidExtent is returned for a non-positive page extent.
	ErrInvalidExtent = errors.New("page extent must be positive")
)

// Item is one media entry in the feed. Order is its page index.
// Items are immutable once loaded.
type Item struct {
	ID       string
	MediaRef string
	Order    int
	Caption  string
	Author   string
}

// sequence is the ordered item list plus an id index.
type sequence struct {
	items []Item
	index map[string]int
}

func newSequence() *sequence {
	return &sequence{index: make(map[string]int)}
}

// append validates and adds items. Orders must continue from the current
// length; on any error nothing is appended.
func (s *sequence) append(items []Item) error {
	seen := make(map[string]struct{}, len(items))
	next := len(s.items)
	for i, it := range items {
		if it.ID == "" {
			return fmt.Errorf("item at position %d has no id: %w", next+i, ErrInvalidItem)
		}
		if _, ok := s.index[it.ID]; ok {
			return fmt.Errorf("item %q: %w", it.ID, ErrDuplicateItem)
		}
		if _, ok := seen[it.ID]; ok {
			return fmt.Errorf("item %q: %w", it.ID, ErrDuplicateItem)
		}
		seen[it.ID] = struct{}{}
		if it.Order != next+i {
			return fmt.Errorf("item %q has order %d, want %d: %w", it.ID, it.Order, next+i, ErrOrderGap)
		}
	}
	for _, it := range items {
		s.index[it.ID] = len(s.items)
		s.items = append(s.items, it)
	}
	return nil
}

func (s *sequence) lookup(id string) (Item, bool) {
	i, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

func (s *sequence) len() int { return len(s.items) }

func (s *sequence) at(i int) Item { return s.items[i] }
