package viz

import "github.com/charmbracelet/lipgloss"

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).Width(42)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

// LineColor maps a contact-line thickness tag to the renderer palette:
// strong lines are yellow, medium blue, weak green.
func LineColor(thickness float64) lipgloss.Color {
	switch {
	case thickness >= 0.5:
		return lipgloss.Color("226")
	case thickness >= 0.4:
		return lipgloss.Color("33")
	default:
		return lipgloss.Color("40")
	}
}
