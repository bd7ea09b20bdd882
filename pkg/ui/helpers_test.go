package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func TestFormatTimeRel(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{-time.Hour, "now"},
		{30 * time.Second, "now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{15 * 24 * time.Hour, "2w ago"},
		{90 * 24 * time.Hour, "3mo ago"},
	}
	for _, tt := range tests {
		if got := FormatTimeRel(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("FormatTimeRel(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if got := FormatTimeRel(time.Time{}, now); got != "unknown" {
		t.Errorf("zero time = %q", got)
	}
}

func TestFormatDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := FormatDue(time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), now); got != "Apr 02" {
		t.Errorf("same year = %q", got)
	}
	if got := FormatDue(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), now); got != "Jan 05 26" {
		t.Errorf("other year = %q", got)
	}
	if got := FormatDue(time.Time{}, now); got != "" {
		t.Errorf("zero = %q", got)
	}
}

func TestTruncateWideRunes(t *testing.T) {
	s := "日本語のタイトル with text"
	got := truncate(s, 10)
	if w := runewidth.StringWidth(got); w > 10 {
		t.Errorf("truncate width %d > 10 for %q", w, got)
	}
	if truncate("short", 10) != "short" {
		t.Errorf("short strings must pass through")
	}
	if truncate("anything", 0) != "" {
		t.Errorf("zero width must return empty")
	}
}

func TestBadges(t *testing.T) {
	if w := lipgloss.Width(RenderPriorityBadge("critical")); w < priorityBadgeWidth {
		t.Errorf("priority badge narrower than its column: %d", w)
	}
	if w := lipgloss.Width(RenderStatusBadge("bogus")); w < statusBadgeWidth {
		t.Errorf("status badge narrower than its column: %d", w)
	}
}
