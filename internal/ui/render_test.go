package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/reels/internal/media"
	"github.com/abelbrown/reels/internal/reel"
	"github.com/abelbrown/reels/internal/store"
)

func testPage() pageView {
	return pageView{
		Item: store.Item{
			ID:         "r0",
			Author:     "dana",
			Caption:    "sunrise over the bay",
			SourceName: "beach",
			Likes:      1500,
			Comments:   7,
		},
		Index:   0,
		Total:   3,
		Active:  true,
		Session: true,
		Loaded:  true,
		State:   reel.StatePlaying,
		Muted:   true,
	}
}

func TestRenderPageExactSize(t *testing.T) {
	sizes := []struct{ w, h int }{{80, 24}, {40, 10}, {30, 5}, {15, 3}, {80, 1}}
	for _, sz := range sizes {
		lines := renderPage(testPage(), sz.w, sz.h)
		if len(lines) != sz.h {
			t.Errorf("%dx%d: %d lines", sz.w, sz.h, len(lines))
		}
	}
}

func TestRenderPageLineWidths(t *testing.T) {
	for i, l := range renderPage(testPage(), 80, 24) {
		if w := lipgloss.Width(l); w != 80 {
			t.Errorf("line %d width %d, want 80: %q", i, w, l)
		}
	}
}

func TestRenderPageContent(t *testing.T) {
	p := testPage()
	st := media.Status{Playing: true, Played: 75 * time.Second}
	p.Status = &st
	out := strings.Join(renderPage(p, 80, 24), "\n")

	for _, want := range []string{"@dana", "beach", "sunrise over the bay", "1/3", "muted", "playing", "1:15", "1.5K", "7"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q:\n%s", want, out)
		}
	}
}

func TestRenderPageStates(t *testing.T) {
	tests := []struct {
		name string
		edit func(*pageView)
		want string
	}{
		{"loading", func(p *pageView) { p.Loaded = false; p.State = reel.StateIdle }, "loading"},
		{"paused", func(p *pageView) { p.State = reel.StatePaused }, "paused"},
		{"ready", func(p *pageView) { p.State = reel.StateIdle }, "ready"},
		{"failed", func(p *pageView) { p.Err = errors.New("404 not found") }, "404 not found"},
		{"sound", func(p *pageView) { p.Muted = false }, "sound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPage()
			tt.edit(&p)
			out := strings.Join(renderPage(p, 80, 24), "\n")
			if !strings.Contains(out, tt.want) {
				t.Errorf("page missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestRenderPageWithoutSessionHasNoBadge(t *testing.T) {
	p := testPage()
	p.Session = false
	out := strings.Join(renderPage(p, 80, 24), "\n")
	if strings.Contains(out, "muted") || strings.Contains(out, "sound") {
		t.Errorf("page without session should have no badge:\n%s", out)
	}
}

func TestWrapCaption(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		n     int
		want  []string
	}{
		{"fits", "hello world", 20, 2, []string{"hello world"}},
		{"wraps", "one two three", 7, 2, []string{"one two", "three"}},
		{"cut", "one two three four five", 7, 2, []string{"one two", "three…"}},
		{"long word", "supercalifragilistic", 6, 2, []string{"super…"}},
		{"empty", "   ", 10, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapCaption(tt.in, tt.width, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("wrapCaption = %q, want %q", got, tt.want)
			}
			for i := range got {
				if !strings.Contains(got[i], tt.want[i]) {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompactCount(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1500: "1.5K", 2_300_000: "2.3M"}
	for n, want := range tests {
		if got := compactCount(n); got != want {
			t.Errorf("compactCount(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock(125 * time.Second); got != "2:05" {
		t.Errorf("formatClock = %q, want 2:05", got)
	}
	if got := formatClock(-time.Second); got != "0:00" {
		t.Errorf("formatClock(-1s) = %q, want 0:00", got)
	}
}
