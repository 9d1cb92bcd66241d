// Package statsui provides the Bubble Tea history interface.
package statsui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quizdrill/internal/model"
	"quizdrill/internal/stats"
	"quizdrill/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	sessions []model.SessionAggregate
	errMsg   string

	sessionTable table.Model

	width  int
	height int
}

// NewModel constructs a history UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
	}
	m.sessionTable = buildSessionTable(nil, 0, 1)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "g", "home":
			m.sessionTable.GotoTop()
			return m, nil
		case "G", "end":
			m.sessionTable.GotoBottom()
			return m, nil
		default:
			var cmd tea.Cmd
			m.sessionTable, cmd = m.sessionTable.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.errMsg != "" {
		return errorStyle.Render("Failed to load history: " + m.errMsg)
	}
	if len(m.sessions) == 0 {
		return "No sessions found."
	}
	cards := m.renderSummaryCards()
	help := headerStyle.Render("Scroll: up/down  Quit: q")
	return strings.Join([]string{cards, m.sessionTable.View(), help}, "\n")
}

func (m *Model) refresh() {
	sessions, err := m.store.ListSessions(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.sessions = sessions
	m.sessionTable = buildSessionTable(sessions, m.width, m.tableHeight())
	m.sessionTable.Focus()
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.sessionTable.SetWidth(m.width)
	m.sessionTable.SetHeight(m.tableHeight())
}

func (m *Model) tableHeight() int {
	// Cards take 4 rows, help one.
	height := m.height - 5
	if height < 3 {
		height = 3
	}
	return height
}

func (m *Model) renderSummaryCards() string {
	totalQuestions := 0
	totalCorrect := 0
	bestStreak := 0
	for _, s := range m.sessions {
		totalQuestions += s.Questions
		totalCorrect += s.Correct
		if s.BestStreak > bestStreak {
			bestStreak = s.BestStreak
		}
	}
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", len(m.sessions))),
		metricCard("Questions", fmt.Sprintf("%d", totalQuestions)),
		metricCard("Accuracy", fmt.Sprintf("%.1f%%", stats.SessionAccuracy(totalQuestions, totalCorrect))),
		metricCard("Best Streak", fmt.Sprintf("%d", bestStreak)),
	}
	if m.width > 0 && m.width < 60 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func buildSessionTable(sessions []model.SessionAggregate, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Ended", Width: 19},
		{Title: "Topic", Width: 24},
		{Title: "Questions", Width: 9},
		{Title: "Accuracy", Width: 8},
		{Title: "Best Streak", Width: 11},
		{Title: "Avg Time", Width: 8},
	}
	rows := make([]table.Row, 0, len(sessions))
	// Newest first.
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		rows = append(rows, table.Row{
			s.EndedAt.Format("2006-01-02 15:04:05"),
			s.Topic,
			fmt.Sprintf("%d", s.Questions),
			fmt.Sprintf("%.1f%%", stats.SessionAccuracy(s.Questions, s.Correct)),
			fmt.Sprintf("%d", s.BestStreak),
			fmt.Sprintf("%.1fs", float64(s.AvgTimeMs)/1000),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height)),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
