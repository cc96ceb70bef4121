package media

import (
	"sync"
	"time"
)

// Handle is a probed media item.
type Handle struct {
	Ref         string
	ContentType string
	Size        int64

	mu       sync.Mutex
	playing  bool
	muted    bool
	released bool
	since    time.Time     // start of the current play span
	played   time.Duration // total before the current span
	plays    int
}

// Status is a snapshot of a handle's playback.
type Status struct {
	Playing  bool
	Muted    bool
	Released bool
	Played   time.Duration
	Plays    int
}

func (h *Handle) play(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released || h.playing {
		return
	}
	h.playing = true
	h.since = now
	h.plays++
}

func (h *Handle) pause(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return
	}
	h.played += now.Sub(h.since)
	h.playing = false
}

func (h *Handle) setMuted(m bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.released {
		h.muted = m
	}
}

func (h *Handle) status(now time.Time) Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	played := h.played
	if h.playing {
		played += now.Sub(h.since)
	}
	return Status{
		Playing:  h.playing,
		Muted:    h.muted,
		Released: h.released,
		Played:   played,
		Plays:    h.plays,
	}
}
