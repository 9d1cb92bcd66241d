// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"quizdrill/internal/model"
	"quizdrill/internal/session"
	"quizdrill/internal/store"
)

// FetchFunc retrieves one question for a topic. index is the zero-based
// position within the session.
type FetchFunc func(ctx context.Context, topic string, index int) (model.Question, error)

type questionMsg struct {
	gen      int
	question model.Question
	err      error
}

// Tick messages carry the clock epoch they were scheduled under. Any state
// change bumps the epoch, so a tick racing a cancellation is dropped on
// arrival: the cancellation always wins.
type elapsedTickMsg struct {
	epoch int
}

type countdownTickMsg struct {
	epoch int
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	cfg   model.Config
	store *store.Store
	ctrl  *session.Controller
	fetch FetchFunc

	topicInput textinput.Model
	spin       spinner.Model

	entering     bool
	sessionSaved bool
	clockEpoch   int

	errMsg string
	notice string

	width  int
	height int
}

// NewModel constructs a practice TUI model. st may be nil when history
// persistence is disabled.
func NewModel(cfg model.Config, ctrl *session.Controller, st *store.Store, fetch FetchFunc) *Model {
	input := textinput.New()
	input.Prompt = "Topic: "
	input.Placeholder = "e.g. Quantum Physics"
	input.CharLimit = 120
	if cfg.Topic != "" {
		input.SetValue(cfg.Topic)
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = spinnerStyle

	m := &Model{
		cfg:        cfg,
		store:      st,
		ctrl:       ctrl,
		fetch:      fetch,
		topicInput: input,
		spin:       spin,
		entering:   true,
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.topicInput.Focus()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	case questionMsg:
		return m.applyQuestion(msg)
	case elapsedTickMsg:
		if msg.epoch != m.clockEpoch {
			return m, nil
		}
		m.ctrl.TickElapsed()
		return m, m.scheduleClocks()
	case countdownTickMsg:
		if msg.epoch != m.clockEpoch {
			return m, nil
		}
		return m.tickCountdown()
	case spinner.TickMsg:
		if m.ctrl.Phase() != session.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.flushSession()
		return m, tea.Quit
	}
	if m.entering {
		return m.updateTopicEntry(msg)
	}
	switch msg.String() {
	case "q":
		m.flushSession()
		return m, tea.Quit
	case "p":
		m.ctrl.TogglePause()
		return m, m.rearmClocks()
	case "t":
		m.entering = true
		m.notice = ""
		return m, m.topicInput.Focus()
	case "enter", "n":
		return m.advance()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m.selectAnswer(int(msg.String()[0] - '1'))
	default:
		return m, nil
	}
}

func (m *Model) updateTopicEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.ctrl.Question() != nil {
			m.entering = false
			m.topicInput.Blur()
		}
		return m, nil
	case tea.KeyEnter:
		return m.submitTopic()
	}
	var cmd tea.Cmd
	m.topicInput, cmd = m.topicInput.Update(msg)
	return m, cmd
}

func (m *Model) submitTopic() (tea.Model, tea.Cmd) {
	topic := strings.TrimSpace(m.topicInput.Value())
	if topic == "" {
		return m, nil
	}
	if topic != m.ctrl.Topic() {
		m.flushSession()
	}
	gen, err := m.ctrl.SubmitTopic(topic, time.Now())
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	m.sessionSaved = false
	m.entering = false
	m.errMsg = ""
	m.notice = ""
	m.topicInput.Blur()
	return m, tea.Batch(m.spin.Tick, m.fetchCmd(gen, topic, m.ctrl.Served()), m.rearmClocks())
}

func (m *Model) selectAnswer(index int) (tea.Model, tea.Cmd) {
	m.ctrl.SelectAnswer(index)
	if m.ctrl.Phase() == session.PhaseComplete {
		m.flushSession()
		m.notice = "Session complete! Enter a topic to start another."
		m.entering = true
		return m, tea.Batch(m.topicInput.Focus(), m.rearmClocks())
	}
	return m, m.rearmClocks()
}

// advance skips the remaining countdown after an answer.
func (m *Model) advance() (tea.Model, tea.Cmd) {
	if m.ctrl.Phase() != session.PhaseAnswered {
		return m, nil
	}
	gen, fetch, err := m.ctrl.Advance(time.Now())
	if err != nil {
		m.errMsg = err.Error()
		return m, m.rearmClocks()
	}
	if !fetch {
		return m, nil
	}
	m.errMsg = ""
	return m, tea.Batch(m.spin.Tick, m.fetchCmd(gen, m.ctrl.Topic(), m.ctrl.Served()), m.rearmClocks())
}

func (m *Model) applyQuestion(msg questionMsg) (tea.Model, tea.Cmd) {
	if err := m.ctrl.ApplyQuestion(msg.gen, msg.question, msg.err); err != nil {
		m.errMsg = err.Error()
		if m.ctrl.Phase() == session.PhaseIdle {
			m.entering = true
			return m, tea.Batch(m.topicInput.Focus(), m.rearmClocks())
		}
		return m, m.rearmClocks()
	}
	if m.ctrl.Phase() == session.PhaseAwaitingAnswer {
		m.errMsg = ""
	}
	return m, m.rearmClocks()
}

func (m *Model) tickCountdown() (tea.Model, tea.Cmd) {
	gen, fetch, err := m.ctrl.TickCountdown(time.Now())
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	if fetch {
		return m, tea.Batch(m.spin.Tick, m.fetchCmd(gen, m.ctrl.Topic(), m.ctrl.Served()), m.rearmClocks())
	}
	return m, m.scheduleClocks()
}

func (m *Model) fetchCmd(gen int, topic string, index int) tea.Cmd {
	fetch := m.fetch
	timeout := m.cfg.RequestTimeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		q, err := fetch(ctx, topic, index)
		return questionMsg{gen: gen, question: q, err: err}
	}
}

// rearmClocks invalidates all scheduled ticks and schedules fresh ones for
// the current state.
func (m *Model) rearmClocks() tea.Cmd {
	m.clockEpoch++
	return m.scheduleClocks()
}

// scheduleClocks emits the next tick for the current state under the
// current epoch. Paused and terminal states schedule nothing, so no
// periodic callback outlives its triggering condition.
func (m *Model) scheduleClocks() tea.Cmd {
	if m.ctrl.Paused() {
		return nil
	}
	epoch := m.clockEpoch
	switch m.ctrl.Phase() {
	case session.PhaseAwaitingAnswer:
		return tea.Tick(time.Second, func(time.Time) tea.Msg {
			return elapsedTickMsg{epoch: epoch}
		})
	case session.PhaseAnswered:
		if m.ctrl.Remaining() > 0 {
			return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
				return countdownTickMsg{epoch: epoch}
			})
		}
	}
	return nil
}

// flushSession persists the running session once, if anything was answered.
func (m *Model) flushSession() {
	if m.sessionSaved || m.store == nil || m.ctrl.Score().Questions == 0 {
		return
	}
	if _, err := m.store.InsertSession(context.Background(), m.ctrl.Record(time.Now())); err != nil {
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.sessionSaved = true
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
