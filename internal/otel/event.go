// Package otel records what the feed did as JSONL events.
//
// Events go through a buffered channel to a single drain goroutine that
// writes the log file and feeds an optional RingBuffer, which backs the
// debug overlay in the viewer.
package otel

import (
	"encoding/json"
	"strings"
	"time"
)

// Level is event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names an event as "<subsystem>.<action>".
type EventKind string

const (
	// Feed controller
	KindActive      EventKind = "reel.active"
	KindSnap        EventKind = "reel.snap"
	KindSnapSkipped EventKind = "reel.snap_skipped"
	KindMute        EventKind = "reel.mute"
	KindNeedMore    EventKind = "reel.need_more"
	KindPageAdded   EventKind = "reel.page_added"
	KindPageReject  EventKind = "reel.page_rejected"

	// Media engine
	KindLoadStart EventKind = "media.load"
	KindLoadDone  EventKind = "media.loaded"
	KindLoadError EventKind = "media.load_error"
	KindRelease   EventKind = "media.release"

	// Source ingestion
	KindFetchStart    EventKind = "feed.fetch.start"
	KindFetchComplete EventKind = "feed.fetch.complete"
	KindFetchError    EventKind = "feed.fetch.error"

	KindStoreError EventKind = "store.error"

	KindKeyPress EventKind = "ui.key"

	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Only emitted when REELS_TRACE is set.
	KindMsgReceived EventKind = "trace.msg_received"
)

// Subsystem returns the part of the kind before the first dot.
func (k EventKind) Subsystem() string {
	s, _, _ := strings.Cut(string(k), ".")
	return s
}

// Event is one JSONL record. Kind and Time are always set; the rest is
// filled in as relevant.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "ui", "coord", "media", "main"
	SessionID string         `json:"session_id,omitempty"`
	Item      string         `json:"item,omitempty"`
	Prev      string         `json:"prev,omitempty"`
	Page      int            `json:"page,omitempty"`
	Offset    float64        `json:"offset,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Source    string         `json:"source,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as dur_ms.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
