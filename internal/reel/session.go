package reel

import (
	"context"
	"fmt"
)

// Handle is an engine-specific reference to loaded media.
type Handle any

// Engine is the opaque media engine. Load may block and is always run off
// the event loop; Play, Pause and SetMuted are fire-and-forget. Looping is
// assumed to be always on.
type Engine interface {
	Load(ctx context.Context, mediaRef string) (Handle, error)
	Play(h Handle)
	Pause(h Handle)
	SetMuted(h Handle, muted bool)
}

// Releaser is implemented by engines that free resources for a handle when
// its session is torn down.
type Releaser interface {
	Release(h Handle)
}

// State is the playback state of a session.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MediaLoadError means the engine could not load or decode an item's media.
// It is scoped to that item and never retried automatically.
type MediaLoadError struct {
	ItemID   string
	MediaRef string
	Err      error
}

func (e *MediaLoadError) Error() string {
	return fmt.Sprintf("load media for %s (%s): %v", e.ItemID, e.MediaRef, e.Err)
}

func (e *MediaLoadError) Unwrap() error { return e.Err }

func (*MediaLoadError) effect() {}

type loadPhase int

const (
	loadNone loadPhase = iota
	loadInFlight
	loadDone
	loadFailed
)

// Session tracks playback of one item against the engine.
type Session struct {
	itemID   string
	mediaRef string
	engine   Engine

	state  State
	muted  bool
	active bool

	phase  loadPhase
	handle Handle
	gen    uint64
	err    *MediaLoadError
}

func newSession(it Item, engine Engine, muted bool, gen uint64) *Session {
	return &Session{
		itemID:   it.ID,
		mediaRef: it.MediaRef,
		engine:   engine,
		muted:    muted,
		gen:      gen,
	}
}

// ItemID returns the id of the session's item.
func (s *Session) ItemID() string { return s.itemID }

// State returns the playback state.
func (s *Session) State() State { return s.state }

// Muted reports the session's mute flag.
func (s *Session) Muted() bool { return s.muted }

// Loaded reports whether media has loaded successfully.
func (s *Session) Loaded() bool { return s.phase == loadDone }

// Handle returns the loaded media handle, nil until the load completes.
func (s *Session) Handle() Handle { return s.handle }

// Err returns the load failure, if any.
func (s *Session) Err() *MediaLoadError { return s.err }

// needsLoad reports whether a load request should be issued.
func (s *Session) needsLoad() bool { return s.phase == loadNone }

func (s *Session) loadRequest() LoadMedia {
	s.phase = loadInFlight
	return LoadMedia{ItemID: s.itemID, MediaRef: s.mediaRef, Gen: s.gen}
}

// activate marks the session as the active item. It plays immediately if
// media is loaded; otherwise playback starts when the load completes.
func (s *Session) activate() {
	s.active = true
	if s.phase == loadDone {
		s.play()
	}
}

// deactivate pauses a playing session. Idle sessions stay idle.
func (s *Session) deactivate() {
	s.active = false
	if s.state == StatePlaying {
		s.engine.Pause(s.handle)
		s.state = StatePaused
	}
}

func (s *Session) play() {
	s.engine.SetMuted(s.handle, s.muted)
	s.engine.Play(s.handle)
	s.state = StatePlaying
}

// loaded records a successful load. A stale generation is ignored and
// reported false so the caller can release the handle.
func (s *Session) loaded(gen uint64, h Handle) bool {
	if gen != s.gen || s.phase != loadInFlight {
		return false
	}
	s.phase = loadDone
	s.handle = h
	if s.active {
		s.play()
	}
	return true
}

// failed records a load failure. The session stays idle.
func (s *Session) failed(gen uint64, err error) (*MediaLoadError, bool) {
	if gen != s.gen || s.phase != loadInFlight {
		return nil, false
	}
	s.phase = loadFailed
	s.state = StateIdle
	s.err = &MediaLoadError{ItemID: s.itemID, MediaRef: s.mediaRef, Err: err}
	return s.err, true
}

// toggleMute flips the mute flag and pushes it to the engine if loaded.
// Paused and idle sessions keep the flag for their next activation.
func (s *Session) toggleMute() bool {
	s.muted = !s.muted
	if s.phase == loadDone {
		s.engine.SetMuted(s.handle, s.muted)
	}
	return s.muted
}

// release tears the session down to idle and frees its handle.
func (s *Session) release() {
	if s.state == StatePlaying {
		s.engine.Pause(s.handle)
	}
	if s.phase == loadDone {
		if r, ok := s.engine.(Releaser); ok {
			r.Release(s.handle)
		}
	}
	s.state = StateIdle
	s.active = false
	s.phase = loadNone
	s.handle = nil
}
