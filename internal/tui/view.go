package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"quizdrill/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77")).Bold(true)
	wrongStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	explainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	keyPointStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch {
	case m.entering:
		body = m.renderTopicEntry()
	case m.ctrl.Phase() == session.PhaseLoading:
		body = m.renderLoading()
	default:
		body = m.renderQuestion()
	}

	footer := m.renderFooter()
	content := body
	if footer != "" {
		content += "\n\n" + footer
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderTopicEntry() string {
	lines := []string{titleStyle.Render("quizdrill"), ""}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice), "")
	}
	if m.ctrl.Phase() == session.PhaseComplete {
		lines = append(lines, m.renderSessionSummary(), "")
	}
	lines = append(lines, m.topicInput.View())
	if m.errMsg != "" {
		lines = append(lines, "", errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderLoading() string {
	return fmt.Sprintf("%s Fetching a question on %s...",
		m.spin.View(), titleStyle.Render(m.ctrl.Topic()))
}

func (m *Model) renderQuestion() string {
	q := m.ctrl.Question()
	if q == nil {
		return ""
	}
	width := m.contentWidth()

	lines := []string{questionStyle.Render(wrapText(q.Text, width)), ""}
	selected := m.ctrl.Selected()
	answered := selected >= 0
	for i, opt := range q.Options {
		label := fmt.Sprintf("%d. %s", i+1, opt)
		style := optionStyle
		if answered {
			switch {
			case i == q.CorrectIndex:
				style = correctStyle
			case i == selected:
				style = wrongStyle
			}
		} else if i == selected {
			style = selectedStyle
		}
		lines = append(lines, style.Render(wrapText(label, width)))
	}

	if answered {
		lines = append(lines, "")
		if selected == q.CorrectIndex {
			lines = append(lines, correctStyle.Render("Correct!"))
		} else {
			lines = append(lines, wrongStyle.Render("Incorrect."))
		}
		if q.Explanation.Correct != "" {
			lines = append(lines, explainStyle.Render(wrapText(q.Explanation.Correct, width)))
		}
		if q.Explanation.KeyPoint != "" {
			lines = append(lines, keyPointStyle.Render(wrapText("Key point: "+q.Explanation.KeyPoint, width)))
		}
		if m.ctrl.Phase() == session.PhaseAnswered && m.ctrl.Remaining() > 0 {
			lines = append(lines, "", footerStyle.Render(fmt.Sprintf("Next question in %.1fs", m.ctrl.Remaining())))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderSessionSummary() string {
	s := m.ctrl.Score()
	return footerStyle.Render(fmt.Sprintf("Answered %d questions on %s · Accuracy %.1f%% · Best streak %d",
		s.Questions, m.ctrl.Topic(), s.Accuracy, s.BestStreak))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	s := m.ctrl.Score()
	if m.ctrl.Topic() != "" && !m.entering {
		segments = append(segments,
			fmt.Sprintf("Q %d/%d", m.ctrl.Served(), m.ctrl.Limit()),
			fmt.Sprintf("Acc %.1f%%", s.Accuracy),
			fmt.Sprintf("Streak %d (best %d)", s.Streak, s.BestStreak),
			fmt.Sprintf("Time %ds", m.ctrl.Elapsed()),
		)
	}
	if m.ctrl.Paused() {
		segments = append(segments, pausedStyle.Render("PAUSED"))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))

	help := "1-9 answer · enter next · p pause · t topic · q quit"
	if m.entering {
		help = "enter start · esc back · ctrl+c quit"
	}
	lines := []string{}
	if len(segments) > 0 {
		lines = append(lines, footer)
	}
	lines = append(lines, footerStyle.Render(help))
	if m.errMsg != "" && !m.entering {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 76
	}
	width := int(float64(m.width) * 0.70)
	if width < 20 {
		width = 20
	}
	return width
}
