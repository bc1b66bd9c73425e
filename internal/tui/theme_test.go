package tui

import (
	"testing"

	"charm.land/lipgloss/v2"

	"otx/internal/domain"
)

func TestStatusColors(t *testing.T) {
	cases := []struct {
		status domain.Status
		want   string
	}{
		{domain.StatusOpen, "#FF9800"},
		{domain.StatusInProgress, "#E91E63"},
		{domain.StatusClosed, "#4CAF50"},
		{domain.StatusRejected, "#F44336"},
		{domain.Status("UNKNOWN"), "#9E9E9E"},
	}
	for _, tc := range cases {
		if got := statusColor(tc.status); got != lipgloss.Color(tc.want) {
			t.Errorf("statusColor(%s) = %v, want %s", tc.status, got, tc.want)
		}
	}
}

func TestPriorityColors(t *testing.T) {
	cases := []struct {
		priority domain.Priority
		want     string
	}{
		{domain.PriorityUrgent, "#F44336"},
		{domain.PriorityHigh, "#FF9800"},
		{domain.PriorityNormal, "#2196F3"},
		{domain.PriorityLow, "#9E9E9E"},
	}
	for _, tc := range cases {
		if got := priorityColor(tc.priority); got != lipgloss.Color(tc.want) {
			t.Errorf("priorityColor(%s) = %v, want %s", tc.priority, got, tc.want)
		}
	}
}

func TestThemeForFallsBackToDark(t *testing.T) {
	dark := themeFor("dark")
	if themeFor("unknown") != dark {
		t.Fatal("unknown theme should resolve to the dark palette")
	}
	if themeFor("light") == dark {
		t.Fatal("light palette should differ from dark")
	}
}
