package reel

import (
	"context"
	"fmt"
)

// fakeHandle is what fakeEngine hands out.
type fakeHandle struct {
	ref string
}

// fakeEngine records engine calls. Load is never called by the controller
// itself; tests complete loads by sending MediaLoaded/MediaLoadFailed.
type fakeEngine struct {
	calls    []string
	muted    map[*fakeHandle]bool
	playing  map[*fakeHandle]bool
	released []*fakeHandle
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		muted:   make(map[*fakeHandle]bool),
		playing: make(map[*fakeHandle]bool),
	}
}

func (e *fakeEngine) Load(_ context.Context, ref string) (Handle, error) {
	return &fakeHandle{ref: ref}, nil
}

func (e *fakeEngine) Play(h Handle) {
	fh := h.(*fakeHandle)
	e.playing[fh] = true
	e.calls = append(e.calls, "play "+fh.ref)
}

func (e *fakeEngine) Pause(h Handle) {
	fh := h.(*fakeHandle)
	e.playing[fh] = false
	e.calls = append(e.calls, "pause "+fh.ref)
}

func (e *fakeEngine) SetMuted(h Handle, muted bool) {
	fh := h.(*fakeHandle)
	e.muted[fh] = muted
	e.calls = append(e.calls, fmt.Sprintf("mute %s %v", fh.ref, muted))
}

func (e *fakeEngine) Release(h Handle) {
	e.released = append(e.released, h.(*fakeHandle))
}

func (e *fakeEngine) reset() {
	e.calls = nil
}
