package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/reels/internal/otel"
)

// debugPanelChrome is the rows DebugPanel adds around its content:
// one border row and one padding row on each side.
const debugPanelChrome = 4

// feedStats is the controller state shown at the top of the overlay.
type feedStats struct {
	Active   string
	Page     int
	Items    int
	Sessions []string
	Playing  []string
	Offset   float64
}

// debugOverlay renders the debug panel showing feed state and recent events.
// A nil ring renders nothing.
func debugOverlay(ring *otel.RingBuffer, feed feedStats, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Feed"))
	lines = append(lines, fmt.Sprintf("  Active:     %s (page %d of %d)", orDash(feed.Active), feed.Page+1, feed.Items))
	lines = append(lines, fmt.Sprintf("  Offset:     %.2f", feed.Offset))
	lines = append(lines, fmt.Sprintf("  Sessions:   %s", orDash(strings.Join(feed.Sessions, " "))))
	lines = append(lines, fmt.Sprintf("  Playing:    %s", orDash(strings.Join(feed.Playing, " "))))
	lines = append(lines, "")

	// Keyed lookups, not map iteration, so the order is stable.
	lines = append(lines, DebugHeaderStyle.Render("Pipeline Stats"))
	lines = append(lines, fmt.Sprintf("  Snaps:      %d corrections, %d skipped",
		stats[otel.KindSnap], stats[otel.KindSnapSkipped]))
	lines = append(lines, fmt.Sprintf("  Media:      %d loads, %d loaded, %d errors, %d released",
		stats[otel.KindLoadStart], stats[otel.KindLoadDone], stats[otel.KindLoadError], stats[otel.KindRelease]))
	lines = append(lines, fmt.Sprintf("  Pages:      %d requested, %d added, %d rejected",
		stats[otel.KindNeedMore], stats[otel.KindPageAdded], stats[otel.KindPageReject]))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		ageStr := formatAge(time.Since(e.Time))

		line := fmt.Sprintf("  %6s  %-18s", ageStr, string(e.Kind))
		if e.Item != "" {
			line += "  " + runewidth.Truncate(e.Item, 12, "…")
		}
		if e.Msg != "" {
			line += "  " + runewidth.Truncate(e.Msg, 30, "…")
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, 30, "…")
		}
		lines = append(lines, line)
	}

	// Keep the panel inside the terminal once the border is drawn.
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatAge renders an event age as "850ms", "2.5s" or "3m".
// Negative ages (clock skew) show as "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
