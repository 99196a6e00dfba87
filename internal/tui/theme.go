package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Michi colors
var (
	ColorSurface      = lipgloss.Color("#161616")
	ColorSurfaceLight = lipgloss.Color("#1a1a1a")
	ColorBorder       = lipgloss.Color("#2a2a2a")

	ColorAccent    = lipgloss.Color("#2f80ed")
	ColorAccentDim = lipgloss.Color("#1c4f94")

	ColorSuccess = lipgloss.Color("#30d158")
	ColorWarning = lipgloss.Color("#ffd60a")
	ColorError   = lipgloss.Color("#ff453a")

	ColorTextPrimary   = lipgloss.Color("#ffffff")
	ColorTextSecondary = lipgloss.Color("#d0d0d0")
	ColorTextMuted     = lipgloss.Color("#808080")
)

// Theme contains all styled components
type Theme struct {
	Header    lipgloss.Style
	Logo      lipgloss.Style
	User      lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Panel     lipgloss.Style
	NavActive lipgloss.Style
	Nav       lipgloss.Style

	ListItem       lipgloss.Style
	ListItemActive lipgloss.Style
	Muted          lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style

	Input      lipgloss.Style
	InputLabel lipgloss.Style

	Footer  lipgloss.Style
	HelpKey lipgloss.Style
	Help    lipgloss.Style

	LevelFill  lipgloss.Style
	LevelEmpty lipgloss.Style
	Spinner    lipgloss.Style
}

// NewTheme creates the default styles
func NewTheme() *Theme {
	t := &Theme{}

	t.Header = lipgloss.NewStyle().
		Background(ColorSurface).
		Padding(0, 2).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorBorder)

	t.Logo = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorAccent)

	t.User = lipgloss.NewStyle().
		Foreground(ColorTextSecondary)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorTextPrimary).
		MarginBottom(1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.Panel = lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	t.NavActive = lipgloss.NewStyle().
		Background(ColorAccent).
		Foreground(ColorTextPrimary).
		Bold(true).
		Padding(0, 1).
		MarginRight(1)

	t.Nav = lipgloss.NewStyle().
		Background(ColorSurfaceLight).
		Foreground(ColorTextSecondary).
		Padding(0, 1).
		MarginRight(1)

	t.ListItem = lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		PaddingLeft(2)

	t.ListItemActive = lipgloss.NewStyle().
		Foreground(ColorTextPrimary).
		Bold(true).
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(ColorAccent)

	t.Muted = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.StatusSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	t.StatusError = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	t.StatusWarning = lipgloss.NewStyle().Foreground(ColorWarning)

	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccentDim).
		Padding(0, 1)

	t.InputLabel = lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Bold(true)

	t.Footer = lipgloss.NewStyle().
		Background(ColorSurface).
		Padding(0, 2)

	t.HelpKey = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	t.Help = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	t.LevelFill = lipgloss.NewStyle().Foreground(ColorSuccess)
	t.LevelEmpty = lipgloss.NewStyle().Foreground(ColorBorder)
	t.Spinner = lipgloss.NewStyle().Foreground(ColorAccent)

	return t
}

// DefaultTheme is the theme used by the app
var DefaultTheme = NewTheme()
