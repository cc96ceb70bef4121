package reel

import (
	"errors"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	eng := newFakeEngine()
	s := newSession(Item{ID: "a", MediaRef: "a.mp4"}, eng, true, 1)

	if s.State() != StateIdle || !s.Muted() {
		t.Fatalf("new session = %v muted=%v, want idle muted", s.State(), s.Muted())
	}

	// Activation before load: stays idle until media arrives.
	s.activate()
	if !s.needsLoad() {
		t.Fatal("unloaded session should need a load")
	}
	req := s.loadRequest()
	if req.ItemID != "a" || req.Gen != 1 {
		t.Fatalf("load request = %+v", req)
	}
	if s.State() != StateIdle {
		t.Fatalf("state before load = %v, want idle", s.State())
	}

	h := &fakeHandle{ref: "a.mp4"}
	if !s.loaded(1, h) {
		t.Fatal("load with current generation rejected")
	}
	if s.State() != StatePlaying {
		t.Fatalf("state after load = %v, want playing", s.State())
	}
	if !eng.playing[h] || !eng.muted[h] {
		t.Errorf("engine should be playing muted, playing=%v muted=%v", eng.playing[h], eng.muted[h])
	}

	s.deactivate()
	if s.State() != StatePaused || eng.playing[h] {
		t.Fatalf("after deactivate state=%v engine playing=%v", s.State(), eng.playing[h])
	}

	s.activate()
	if s.State() != StatePlaying {
		t.Fatalf("reactivate state = %v, want playing", s.State())
	}

	s.release()
	if s.State() != StateIdle {
		t.Errorf("released state = %v, want idle", s.State())
	}
	if len(eng.released) != 1 || eng.released[0] != h {
		t.Errorf("engine release calls = %v", eng.released)
	}
}

func TestSessionLoadedWhileInactiveStaysIdle(t *testing.T) {
	eng := newFakeEngine()
	s := newSession(Item{ID: "a", MediaRef: "a.mp4"}, eng, true, 3)
	s.loadRequest()

	if !s.loaded(3, &fakeHandle{ref: "a.mp4"}) {
		t.Fatal("load rejected")
	}
	if s.State() != StateIdle {
		t.Errorf("preloaded session state = %v, want idle", s.State())
	}
	if len(eng.calls) != 0 {
		t.Errorf("preload should not touch playback, calls = %v", eng.calls)
	}
}

func TestSessionIgnoresStaleGeneration(t *testing.T) {
	s := newSession(Item{ID: "a"}, newFakeEngine(), true, 5)
	s.loadRequest()

	if s.loaded(4, &fakeHandle{}) {
		t.Error("stale load accepted")
	}
	if _, ok := s.failed(4, errors.New("boom")); ok {
		t.Error("stale failure accepted")
	}
	if s.Loaded() || s.Err() != nil {
		t.Error("stale results must not change the session")
	}
}

func TestSessionFailureIsTerminal(t *testing.T) {
	s := newSession(Item{ID: "a", MediaRef: "bad.mp4"}, newFakeEngine(), true, 1)
	s.activate()
	s.loadRequest()

	cause := errors.New("decode failed")
	lerr, ok := s.failed(1, cause)
	if !ok {
		t.Fatal("failure rejected")
	}
	if !errors.Is(lerr, cause) || lerr.ItemID != "a" || lerr.MediaRef != "bad.mp4" {
		t.Errorf("load error = %+v", lerr)
	}
	if s.State() != StateIdle {
		t.Errorf("failed state = %v, want idle", s.State())
	}
	if s.needsLoad() {
		t.Error("failed session must not request another load")
	}

	s.deactivate()
	s.activate()
	if s.State() != StateIdle {
		t.Errorf("reactivated failed session = %v, want idle", s.State())
	}
}

func TestSessionMuteIsOrthogonal(t *testing.T) {
	eng := newFakeEngine()
	s := newSession(Item{ID: "a", MediaRef: "a.mp4"}, eng, true, 1)

	// Toggle before load: retained, no engine call.
	if s.toggleMute() {
		t.Fatal("toggle from muted should unmute")
	}
	if len(eng.calls) != 0 {
		t.Fatalf("unloaded toggle reached the engine: %v", eng.calls)
	}

	s.loadRequest()
	h := &fakeHandle{ref: "a.mp4"}
	s.loaded(1, h)

	// Toggle while paused/idle is pushed but does not start playback.
	if !s.toggleMute() {
		t.Fatal("second toggle should mute")
	}
	if eng.playing[h] {
		t.Error("mute toggle must not start playback")
	}
	if !eng.muted[h] {
		t.Error("engine should have received muted=true")
	}

	s.activate()
	if s.State() != StatePlaying || !eng.muted[h] {
		t.Errorf("activated state=%v muted=%v, want playing muted", s.State(), eng.muted[h])
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
