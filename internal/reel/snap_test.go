package reel

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestMomentumEndCorrections(t *testing.T) {
	tests := []struct {
		name     string
		offset   float64
		pages    int
		wantPage int
		wantCmd  bool
		reason   SkipReason
	}{
		{"exact boundary", 800, 3, 1, false, SkipAligned},
		{"within epsilon below", 799.2, 3, 1, false, SkipAligned},
		{"within epsilon above", 1600.9, 3, 2, false, SkipAligned},
		{"rounds up", 1280, 3, 2, true, SkipNone},
		{"rounds down", 1100, 3, 1, true, SkipNone},
		{"half rounds away from zero", 400, 3, 1, true, SkipNone},
		{"negative clamps to zero", -150, 3, 0, true, SkipNone},
		{"past end clamps to last", 2300, 3, 2, true, SkipNone},
		{"just outside epsilon", 801.5, 3, 1, true, SkipNone},
		{"empty feed", 500, 0, 0, false, SkipEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newPageSnapController(800, 0)
			if err != nil {
				t.Fatalf("newPageSnapController: %v", err)
			}
			res := s.MomentumEnd(tt.offset, tt.pages)
			if res.Page != tt.wantPage {
				t.Errorf("page = %d, want %d", res.Page, tt.wantPage)
			}
			if res.Skipped == tt.wantCmd {
				t.Fatalf("skipped = %v, want command %v", res.Skipped, tt.wantCmd)
			}
			if res.Reason != tt.reason {
				t.Errorf("reason = %v, want %v", res.Reason, tt.reason)
			}
			if tt.wantCmd {
				want := float64(tt.wantPage) * 800
				if res.Command.Offset != want || !res.Command.Animated {
					t.Errorf("command = %+v, want animated scroll to %v", res.Command, want)
				}
			}
		})
	}
}

func TestSnapIsIdempotent(t *testing.T) {
	s, _ := newPageSnapController(800, 0)

	res := s.MomentumEnd(1280, 3)
	if res.Skipped {
		t.Fatal("expected a correction for 1280")
	}
	if target, ok := s.Pending(); !ok || target != 1600 {
		t.Fatalf("pending = %v,%v; want 1600,true", target, ok)
	}

	// The corrective scroll settles on its target: no second command.
	again := s.MomentumEnd(res.Command.Offset, 3)
	if !again.Skipped || again.Reason != SkipPending {
		t.Fatalf("re-snap of target = %+v, want skipped/pending", again)
	}
	if _, ok := s.Pending(); ok {
		t.Error("pending should clear once the correction lands")
	}

	// And once more, now with nothing in flight.
	third := s.MomentumEnd(res.Command.Offset, 3)
	if !third.Skipped || third.Reason != SkipAligned {
		t.Errorf("third snap = %+v, want skipped/aligned", third)
	}
}

func TestSnapPropertyRandomOffsets(t *testing.T) {
	const extent = 800.0
	const pages = 50
	s, _ := newPageSnapController(extent, 0)
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		o := r.Float64() * extent * (pages - 1)
		res := s.MomentumEnd(o, pages)

		resting := o
		if !res.Skipped {
			resting = res.Command.Offset
		}
		page := math.Round(o / extent)
		if math.Abs(resting-page*extent) > SnapEpsilon {
			t.Fatalf("offset %v rests at %v, want within %v of %v", o, resting, SnapEpsilon, page*extent)
		}
		if got := math.Round(resting / extent); got != page {
			t.Fatalf("offset %v rests on page %v, want %v", o, got, page)
		}
		if !res.Skipped {
			if follow := s.MomentumEnd(resting, pages); !follow.Skipped {
				t.Fatalf("correction to %v produced a second command %+v", resting, follow.Command)
			}
		}
	}
}

func TestSnapRejectsBadExtent(t *testing.T) {
	for _, e := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := newPageSnapController(e, 0); !errors.Is(err, ErrInvalidExtent) {
			t.Errorf("extent %v: err = %v, want ErrInvalidExtent", e, err)
		}
	}
}

func TestJumpSupersedesPendingCorrection(t *testing.T) {
	s, _ := newPageSnapController(800, 0)
	s.MomentumEnd(1280, 5)

	cmd := s.jump(4, true)
	if cmd.Offset != 3200 {
		t.Fatalf("jump offset = %v, want 3200", cmd.Offset)
	}
	if target, _ := s.Pending(); target != 3200 {
		t.Errorf("pending = %v, want latest target 3200", target)
	}
}

func TestSkipReasonString(t *testing.T) {
	if SkipPending.String() != "pending" {
		t.Errorf("SkipPending.String() = %q", SkipPending.String())
	}
	if SkipReason(42).String() != "SkipReason(42)" {
		t.Errorf("unknown reason = %q", SkipReason(42).String())
	}
}
