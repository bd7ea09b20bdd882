package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	ColorStatusNew        = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorStatusAssigned   = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#6699FF"}
	ColorStatusInProgress = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorStatusReview     = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorStatusOnHold     = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorStatusDone       = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorStatusCancelled  = lipgloss.AdaptiveColor{Light: "#888888", Dark: "#44475A"}

	ColorStatusNewBg        = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
	ColorStatusAssignedBg   = lipgloss.AdaptiveColor{Light: "#CCE5FF", Dark: "#1A2A44"}
	ColorStatusInProgressBg = lipgloss.AdaptiveColor{Light: "#D1ECF1", Dark: "#1A3344"}
	ColorStatusReviewBg     = lipgloss.AdaptiveColor{Light: "#E8DDFF", Dark: "#2A1A44"}
	ColorStatusOnHoldBg     = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorStatusDoneBg       = lipgloss.AdaptiveColor{Light: "#E2E3E5", Dark: "#2A2A3D"}
	ColorStatusCancelledBg  = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#1E1F29"}

	ColorPrioCritical = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorPrioHigh     = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorPrioMedium   = lipgloss.AdaptiveColor{Light: "#808000", Dark: "#F1FA8C"}
	ColorPrioLow      = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}

	ColorPrioCriticalBg = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorPrioHighBg     = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorPrioMediumBg   = lipgloss.AdaptiveColor{Light: "#FFF3CD", Dark: "#3D3D1A"}
	ColorPrioLowBg      = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
)

// Badge widths in cells; every badge is padded to this width so columns line
// up.
const (
	priorityBadgeWidth = 4
	statusBadgeWidth   = 4
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RENDERING
// ══════════════════════════════════════════════════════════════════════════════

func priorityBadgeColors(p model.Priority) (fg, bg lipgloss.AdaptiveColor, label string) {
	switch p {
	case model.PriorityCritical:
		return ColorPrioCritical, ColorPrioCriticalBg, "CRIT"
	case model.PriorityHigh:
		return ColorPrioHigh, ColorPrioHighBg, "HIGH"
	case model.PriorityMedium:
		return ColorPrioMedium, ColorPrioMediumBg, "MED"
	case model.PriorityLow:
		return ColorPrioLow, ColorPrioLowBg, "LOW"
	default:
		return ColorMuted, ColorBgSubtle, "P?"
	}
}

// RenderPriorityBadge returns a styled priority badge.
func RenderPriorityBadge(p model.Priority) string {
	fg, bg, label := priorityBadgeColors(p)
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Render(padRight(label, priorityBadgeWidth))
}

func statusBadgeColors(s model.Status) (fg, bg lipgloss.AdaptiveColor, label string) {
	switch s {
	case model.StatusNew:
		return ColorStatusNew, ColorStatusNewBg, "NEW"
	case model.StatusAssigned:
		return ColorStatusAssigned, ColorStatusAssignedBg, "ASGN"
	case model.StatusInProgress:
		return ColorStatusInProgress, ColorStatusInProgressBg, "PROG"
	case model.StatusInReview:
		return ColorStatusReview, ColorStatusReviewBg, "REVW"
	case model.StatusOnHold:
		return ColorStatusOnHold, ColorStatusOnHoldBg, "HOLD"
	case model.StatusDone:
		return ColorStatusDone, ColorStatusDoneBg, "DONE"
	case model.StatusCancelled:
		return ColorStatusCancelled, ColorStatusCancelledBg, "CANC"
	case model.StatusDraft:
		return ColorMuted, ColorBgSubtle, "DRFT"
	default:
		return ColorMuted, ColorBgSubtle, "????"
	}
}

// RenderStatusBadge returns a styled status badge.
func RenderStatusBadge(s model.Status) string {
	fg, bg, label := statusBadgeColors(s)
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Render(padRight(label, statusBadgeWidth))
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
