package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/reels/internal/media"
	"github.com/abelbrown/reels/internal/reel"
	"github.com/abelbrown/reels/internal/store"
)

// actionWidth is the width of the like/comment/share column.
const actionWidth = 8

// captionLines caps how much of a caption is shown over the media.
const captionLines = 2

// pageView is everything needed to draw one page.
type pageView struct {
	Item    store.Item
	Index   int
	Total   int
	Active  bool
	Session bool // a playback session exists for the item
	State   reel.State
	Muted   bool
	Loaded  bool
	Err     error
	Status  *media.Status
	Spinner string
}

// renderPage draws a page as exactly height lines of width cells.
func renderPage(p pageView, width, height int) []string {
	if height < 5 || width < actionWidth+12 {
		return fitLines(compactPage(p, width), width, height)
	}

	frameW := width - actionWidth
	innerW := frameW - 2
	innerH := height - 2

	var inner []string
	inner = append(inner, padBetween(counter(p), badge(p), innerW))

	body := []string{stateLine(p, innerW)}
	footer := []string{author(p, innerW)}
	footer = append(footer, wrapCaption(p.Item.Caption, innerW, captionLines)...)

	// Keep the header and footer; the state line floats in the middle.
	free := innerH - len(inner) - len(footer) - len(body)
	if free < 0 {
		footer = footer[:max(0, len(footer)+free)]
		free = 0
	}
	top := free / 2
	for i := 0; i < top; i++ {
		inner = append(inner, "")
	}
	inner = append(inner, body...)
	for i := 0; i < free-top; i++ {
		inner = append(inner, "")
	}
	inner = append(inner, footer...)

	frame := ReelFrame
	if p.Active {
		frame = ActiveReelFrame
	}
	box := frame.Width(innerW).Render(strings.Join(inner, "\n"))
	page := lipgloss.JoinHorizontal(lipgloss.Top, box, actions(p, height))
	return fitLines(page, width, height)
}

func counter(p pageView) string {
	return PlaybackStyle.Render(fmt.Sprintf("%d/%d", p.Index+1, p.Total))
}

func badge(p pageView) string {
	if !p.Session {
		return ""
	}
	if p.Muted {
		return MuteBadge.Render("muted")
	}
	return SoundBadge.Render("sound")
}

// author renders "@name" plus the source badge when both fit in width.
func author(p pageView, width int) string {
	name := "@" + strings.TrimPrefix(p.Item.Author, "@")
	if name == "@" {
		name = "@unknown"
	}
	src := p.Item.SourceName
	// The badge adds one cell of padding each side and a margin.
	if src != "" && runewidth.StringWidth(name)+runewidth.StringWidth(src)+4 <= width {
		return AuthorStyle.Render(name) + " " + SourceBadge.Render(src)
	}
	return AuthorStyle.Render(ellipsize(name, width))
}

// stateLine describes playback in place of the video.
func stateLine(p pageView, width int) string {
	var s string
	switch {
	case p.Err != nil:
		s = MediaErrorStyle.Render("✗ " + ellipsize(p.Err.Error(), max(width-2, 1)))
	case !p.Session:
		s = PlaybackStyle.Render("·")
	case !p.Loaded:
		s = PlaybackStyle.Render(p.Spinner + " loading")
	case p.State == reel.StatePlaying:
		s = "▶ playing"
		if p.Status != nil {
			s += "  " + formatClock(p.Status.Played)
		}
	case p.State == reel.StatePaused:
		s = PlaybackStyle.Render("❚❚ paused")
	default:
		s = PlaybackStyle.Render("■ ready")
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

func actions(p pageView, height int) string {
	heart := "♡"
	if p.Item.Liked {
		heart = LikedStyle.Render("♥")
	}
	col := []string{
		"",
		heart,
		compactCount(p.Item.Likes),
		"",
		"✎",
		compactCount(p.Item.Comments),
		"",
		"↗",
		"share",
	}
	if len(col) > height {
		col = col[:height]
	}
	return ActionStyle.Width(actionWidth).Render(strings.Join(col, "\n"))
}

// compactPage is used when the terminal is too small for the full layout.
func compactPage(p pageView, width int) string {
	lines := []string{
		fmt.Sprintf("%d/%d ", p.Index+1, p.Total) + author(p, max(width-8, 1)),
		stateLine(p, width),
		ellipsize(p.Item.Caption, width),
	}
	return strings.Join(lines, "\n")
}

// wrapCaption wraps s on spaces into at most n lines of width cells,
// ending the last line with an ellipsis if text was cut.
func wrapCaption(s string, width, n int) []string {
	words := strings.Fields(s)
	if len(words) == 0 || width <= 0 || n <= 0 {
		return nil
	}
	var lines []string
	cur := ""
	for i, w := range words {
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if runewidth.StringWidth(next) <= width {
			cur = next
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		cur = w
		if len(lines) == n {
			cur = ""
			last := lines[n-1] + " " + strings.Join(words[i:], " ")
			lines[n-1] = ellipsize(last, width)
			break
		}
	}
	if cur != "" && len(lines) < n {
		lines = append(lines, ellipsize(cur, width))
	}
	for i, l := range lines {
		lines[i] = CaptionStyle.Render(l)
	}
	return lines
}

// ellipsize cuts s to width cells, ending with "…" when cut.
func ellipsize(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 1 {
		return runewidth.Truncate(s, width, "")
	}
	return strings.TrimRight(runewidth.Truncate(s, width-1, ""), " ") + "…"
}

// fitLines splits s into exactly height lines, each padded to width.
func fitLines(s string, width, height int) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w < width {
			lines[i] = l + strings.Repeat(" ", width-w)
		}
	}
	return lines
}

func padBetween(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func compactCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// formatClock renders a play duration as m:ss.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
