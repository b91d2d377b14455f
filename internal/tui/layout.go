package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type panelDimensions struct {
	statusW, statusH     int
	recentW, recentH     int
	activityW, activityH int
	headerH              int
	footerH              int
}

const (
	minWidth  = 40
	minHeight = 10

	headerHeight = 1
	footerHeight = 1

	topMinHeight = 8
	topMaxHeight = 12
)

func computeDimensions(totalW, totalH int) panelDimensions {
	if totalW < minWidth {
		totalW = minWidth
	}
	if totalH < minHeight {
		totalH = minHeight
	}

	d := panelDimensions{
		headerH: headerHeight,
		footerH: footerHeight,
	}

	usableH := totalH - headerHeight - footerHeight
	if usableH < 4 {
		usableH = 4
	}

	d.statusW = totalW * 40 / 100
	if d.statusW < 20 {
		d.statusW = 20
	}
	if d.statusW > totalW-20 {
		d.statusW = totalW - 20
	}
	d.recentW = totalW - d.statusW

	topH := usableH * 50 / 100
	if topH < topMinHeight {
		topH = topMinHeight
	}
	if topH > topMaxHeight {
		topH = topMaxHeight
	}
	if topH > usableH-3 {
		topH = usableH - 3
	}
	d.statusH = topH
	d.recentH = topH

	d.activityW = totalW
	d.activityH = usableH - topH
	if d.activityH < 3 {
		d.activityH = 3
	}

	return d
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	delayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	closingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	confirmDialogStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(1, 3).
				Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	newBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	focusBorderColor = lipgloss.Color("63")

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	detailOverlayStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("69")).
				Padding(1, 2)

	loginBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(focusBorderColor).
			Padding(1, 4)
)

func renderBorderedPanel(content string, w, h int) string {
	return renderBorderedPanelStyled(content, w, h, panelBorderStyle)
}

func renderBorderedPanelStyled(content string, w, h int, style lipgloss.Style) string {
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	lines := strings.Split(content, "\n")
	if len(lines) > contentH {
		lines = lines[:contentH]
		content = strings.Join(lines, "\n")
	}

	return style.
		Width(w - 2).
		Height(contentH).
		Render(content)
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// renderHeader draws the title bar shared by every view.
func (m Model) renderHeader(viewLabel, help string) string {
	title := " HCPSS Monitor"
	indicators := m.headerIndicators()

	padding := m.width - lipgloss.Width(title) - lipgloss.Width(viewLabel) - lipgloss.Width(indicators) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}

	return headerStyle.Width(m.width).Render(title + viewLabel + indicators + strings.Repeat(" ", padding) + help)
}

func (m Model) headerIndicators() string {
	if !m.signedIn {
		return ""
	}
	s := "  " + m.user.Avatar + " " + m.user.Name
	if m.status.IsMonitoring {
		s += "  [ACTIVE]"
	} else {
		s += "  [PAUSED]"
	}
	return s
}

// renderStatusBar shows the last user-facing message, if any.
func (m Model) renderStatusBar() string {
	if m.message == "" {
		return statusBarStyle.Render(" ")
	}
	return statusBarStyle.Render(" " + truncate(m.message, m.width-2))
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func (m Model) overlayDeleteDialog(base string) string {
	dialog := confirmDialogStyle.Render(
		"Delete alert?\n\n" +
			truncate(m.deleteTarget.Title, 40) + "\n" +
			m.deleteTarget.Timestamp.Local().Format("2006-01-02 15:04") + "\n\n" +
			"[y] Delete  [n/Esc] Cancel")

	dialogW := lipgloss.Width(dialog)
	dialogH := lipgloss.Height(dialog)
	x := (m.width - dialogW) / 2
	y := (m.height - dialogH) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	return placeOverlay(x, y, dialog, base)
}

func (m Model) overlayDetail(base string) string {
	overlayW := m.width * 70 / 100
	if overlayW < 40 {
		overlayW = 40
	}
	if overlayW > m.width-4 {
		overlayW = m.width - 4
	}
	overlayH := m.height * 60 / 100
	if overlayH < 10 {
		overlayH = 10
	}
	if overlayH > m.height-4 {
		overlayH = m.height - 4
	}

	contentW := overlayW - 6
	if contentW < 10 {
		contentW = 10
	}
	contentH := overlayH - 4
	if contentH < 3 {
		contentH = 3
	}

	wrapped := wrapLines(m.detailContent, contentW)

	startIdx := m.detailScrollPos
	if startIdx > len(wrapped)-contentH {
		startIdx = len(wrapped) - contentH
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := startIdx + contentH
	if endIdx > len(wrapped) {
		endIdx = len(wrapped)
	}

	body := strings.Join(wrapped[startIdx:endIdx], "\n")

	title := panelTitleStyle.Render(m.detailTitle)
	footer := dimStyle.Render("Esc/Enter: Close")
	if len(wrapped) > contentH {
		footer += dimStyle.Render("  Up/Down: Scroll")
	}

	content := title + "\n\n" + body + "\n\n" + footer

	dialog := detailOverlayStyle.
		Width(overlayW - 2).
		Render(content)

	return placeOverlay(0, 0, dialog, base)
}

// wrapLines breaks text at spaces so no line exceeds width bytes.
func wrapLines(text string, width int) []string {
	var wrapped []string
	for _, line := range strings.Split(text, "\n") {
		for len(line) > width {
			cutAt := width
			for i := width; i > 0; i-- {
				if line[i] == ' ' {
					cutAt = i
					break
				}
			}
			wrapped = append(wrapped, line[:cutAt])
			line = strings.TrimPrefix(line[cutAt:], " ")
		}
		wrapped = append(wrapped, line)
	}
	return wrapped
}

// placeOverlay centers fg over the area occupied by bg.
func placeOverlay(x, y int, fg, bg string) string {
	return lipgloss.Place(
		lipgloss.Width(bg),
		lipgloss.Height(bg),
		lipgloss.Center,
		lipgloss.Center,
		fg,
		lipgloss.WithWhitespaceChars(" "),
	)
}
