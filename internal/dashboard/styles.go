package dashboard

import "github.com/charmbracelet/lipgloss"

// VisitedMarker prefixes posts whose detail is already cached.
const VisitedMarker = "● "

var (
	titleText = lipgloss.NewStyle().Bold(true)

	mutedText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})

	errorText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})

	noticeText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "208", Dark: "208"})

	// visitedText marks posts with cached detail.
	visitedText = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"})
)

// FrameBorder returns the rounded border drawn around the active view.
func FrameBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"}).
		Padding(0, 1)
}

// frameChrome is the horizontal space consumed by the frame's border and padding.
const frameChrome = 4

// ContentWidth returns the text width available inside the frame.
func ContentWidth(totalWidth int) int {
	w := totalWidth - frameChrome
	if w < 1 {
		return 1
	}
	return w
}
