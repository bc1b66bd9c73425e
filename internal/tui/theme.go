package tui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"otx/internal/domain"
)

// palette represents the color set used by a theme.
type palette struct {
	accent  color.Color
	text    color.Color
	muted   color.Color
	dim     color.Color
	danger  color.Color
	success color.Color
}

// themeFor resolves the palette for a configured theme name.
func themeFor(name string) palette {
	if name == "light" {
		return palette{
			accent:  lipgloss.Color("#5A56E0"),
			text:    lipgloss.Color("236"),
			muted:   lipgloss.Color("244"),
			dim:     lipgloss.Color("250"),
			danger:  lipgloss.Color("#C62828"),
			success: lipgloss.Color("#2E7D32"),
		}
	}
	return palette{
		accent:  lipgloss.Color("62"),
		text:    lipgloss.Color("252"),
		muted:   lipgloss.Color("241"),
		dim:     lipgloss.Color("239"),
		danger:  lipgloss.Color("203"),
		success: lipgloss.Color("78"),
	}
}

// statusColor maps a work-order status to its badge color.
func statusColor(status domain.Status) color.Color {
	switch status {
	case domain.StatusOpen:
		return lipgloss.Color("#FF9800")
	case domain.StatusInProgress:
		return lipgloss.Color("#E91E63")
	case domain.StatusClosed:
		return lipgloss.Color("#4CAF50")
	case domain.StatusRejected:
		return lipgloss.Color("#F44336")
	default:
		return lipgloss.Color("#9E9E9E")
	}
}

// priorityColor maps a priority to its highlight color.
func priorityColor(priority domain.Priority) color.Color {
	switch priority {
	case domain.PriorityUrgent:
		return lipgloss.Color("#F44336")
	case domain.PriorityHigh:
		return lipgloss.Color("#FF9800")
	case domain.PriorityLow:
		return lipgloss.Color("#9E9E9E")
	default:
		return lipgloss.Color("#2196F3")
	}
}
