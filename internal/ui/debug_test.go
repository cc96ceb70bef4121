package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/reels/internal/otel"
)

func TestDebugOverlayNilRing(t *testing.T) {
	result := debugOverlay(nil, feedStats{}, 80, 24)
	if result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindSnap, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindSnap, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindSnapSkipped, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindLoadStart, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindLoadError, Time: time.Now()})

	result := debugOverlay(ring, feedStats{}, 80, 40)

	if !strings.Contains(result, "Pipeline Stats") {
		t.Error("overlay should contain 'Pipeline Stats' header")
	}
	if !strings.Contains(result, "2 corrections, 1 skipped") {
		t.Errorf("overlay should show snap stats, got:\n%s", result)
	}
	if !strings.Contains(result, "1 loads, 0 loaded, 1 errors") {
		t.Errorf("overlay should show media stats, got:\n%s", result)
	}
	if !strings.Contains(result, "5 / 64 events") {
		t.Errorf("overlay should show buffer stats, got:\n%s", result)
	}
}

func TestDebugOverlayFeedState(t *testing.T) {
	ring := otel.NewRingBuffer(8)
	feed := feedStats{
		Active:   "r2",
		Page:     2,
		Items:    10,
		Sessions: []string{"r1", "r2", "r3"},
		Playing:  []string{"r2"},
		Offset:   48,
	}

	result := debugOverlay(ring, feed, 80, 40)

	for _, want := range []string{"r2 (page 3 of 10)", "48.00", "r1 r2 r3"} {
		if !strings.Contains(result, want) {
			t.Errorf("overlay missing %q, got:\n%s", want, result)
		}
	}
}

func TestDebugOverlayEmptyFeed(t *testing.T) {
	result := debugOverlay(otel.NewRingBuffer(8), feedStats{}, 80, 40)
	if !strings.Contains(result, "Active:     -") {
		t.Errorf("empty feed should show a dash, got:\n%s", result)
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindActive, Time: time.Now(), Item: "r7"})
	ring.Push(otel.Event{Kind: otel.KindSnapSkipped, Time: time.Now(), Msg: "pending"})
	ring.Push(otel.Event{Kind: otel.KindLoadError, Time: time.Now(), Err: "timeout"})

	result := debugOverlay(ring, feedStats{}, 80, 40)

	if !strings.Contains(result, "Recent Events") {
		t.Error("overlay should contain 'Recent Events' header")
	}
	if !strings.Contains(result, "r7") {
		t.Errorf("overlay should show the event item, got:\n%s", result)
	}
	if !strings.Contains(result, "pending") {
		t.Errorf("overlay should show event message, got:\n%s", result)
	}
	if !strings.Contains(result, "ERR:timeout") {
		t.Errorf("overlay should show error, got:\n%s", result)
	}
}

func TestDebugOverlayTruncation(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindLoadStart, Time: time.Now()})
	}

	// Very small height should still render without panic
	result := debugOverlay(ring, feedStats{}, 80, 10)
	if result == "" {
		t.Error("overlay should still render with small height")
	}

	// With height=10, maxHeight=6, plus border and padding
	lines := strings.Count(result, "\n") + 1
	if lines > 10 {
		t.Errorf("overlay should be truncated, got %d lines", lines)
	}
}

func TestDebugStatusBar(t *testing.T) {
	if bar := debugStatusBar(80); !strings.Contains(bar, "[DEBUG]") {
		t.Errorf("status bar = %q", bar)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{999 * time.Millisecond, "999ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "2m"}, // 1.5 minutes rounds to 2 with %.0f
		{5 * time.Minute, "5m"},
	}
	for _, tt := range tests {
		got := formatAge(tt.dur)
		if got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.dur, got, tt.want)
		}
	}
}

func TestFormatAgeNegative(t *testing.T) {
	got := formatAge(-5 * time.Second)
	if got != "0ms" {
		t.Errorf("formatAge(-5s) = %q, want \"0ms\"", got)
	}
}
