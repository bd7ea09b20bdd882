package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base      lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	Group     lipgloss.Style
	Match     lipgloss.Style
	MutedText lipgloss.Style
	Overdue   lipgloss.Style
	Checked   lipgloss.Style
	Indicator lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Subtext:   ColorSubtext,
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     ColorMuted,
		Danger:    ColorDanger,
	}

	t.Base = r.NewStyle().Foreground(ColorText)
	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true)
	t.Group = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Match = r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#7A5600", Dark: "#F1FA8C"}).
		Bold(true).
		Underline(true)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.Overdue = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.Checked = r.NewStyle().Foreground(ColorSuccess).Bold(true)
	t.Indicator = r.NewStyle().Foreground(t.Secondary)
	t.Error = r.NewStyle().Foreground(t.Danger)
	t.Info = r.NewStyle().Foreground(ColorInfo)
	return t
}

// StatusColor returns the foreground color of a status badge.
func (t Theme) StatusColor(s model.Status) lipgloss.AdaptiveColor {
	fg, _, _ := statusBadgeColors(s)
	return fg
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
