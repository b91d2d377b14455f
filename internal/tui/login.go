package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderLogin() string {
	header := m.renderHeader(" [Sign in]", "Enter:Sign in  q:Quit ")

	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("HCPSS Status Alerts"))
	sb.WriteString("\n\n")
	sb.WriteString("Get notified about school delays, closings\n")
	sb.WriteString("and early dismissals.\n\n")
	sb.WriteString(selectedStyle.Render(" Continue with Google "))
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter to sign in"))

	box := loginBoxStyle.Render(sb.String())

	bodyH := m.height - headerHeight - footerHeight
	if bodyH < lipgloss.Height(box) {
		bodyH = lipgloss.Height(box)
	}
	body := lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, box)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusBar())
}
