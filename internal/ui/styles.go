package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("196") // Red
)

// ReelFrame is the border drawn around the media area of a page.
var ReelFrame = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted)

// ActiveReelFrame highlights the frame of the active page.
var ActiveReelFrame = ReelFrame.
	BorderForeground(colorPrimary)

// AuthorStyle renders the @handle over the caption.
var AuthorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// CaptionStyle renders the caption text.
var CaptionStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252"))

// SourceBadge style for source name badges.
var SourceBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

// MuteBadge marks a muted reel.
var MuteBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorMuted).
	Padding(0, 1)

// SoundBadge marks a reel with sound on.
var SoundBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("232")).
	Background(colorSuccess).
	Padding(0, 1)

// ActionStyle renders the like/comment/share column.
var ActionStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Align(lipgloss.Center)

// LikedStyle renders the like action once liked.
var LikedStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// PlaybackStyle renders the play state line.
var PlaybackStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// MediaErrorStyle renders a failed load in place of the player.
var MediaErrorStyle = lipgloss.NewStyle().
	Foreground(colorError)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle titles sections of the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
