package tui

import (
	"strings"
	"testing"
	"time"

	"quizdrill/internal/model"
	"quizdrill/internal/pacer"
	"quizdrill/internal/session"
)

func newTestModel() *Model {
	p := pacer.New(pacer.Config{PerMinute: 1000, PerHour: 1000, PerDay: 1000})
	ctrl := session.New(p, 25, 5.0)
	return NewModel(model.Config{}, ctrl, nil, nil)
}

func startQuestion(t *testing.T, m *Model) {
	t.Helper()
	gen, err := m.ctrl.SubmitTopic("Physics", time.Now())
	if err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	q := model.Question{
		Text:         "Which particle carries the electromagnetic force?",
		Options:      []string{"Photon", "Gluon", "W boson"},
		CorrectIndex: 0,
	}
	if err := m.ctrl.ApplyQuestion(gen, q, nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	m.entering = false
}

func TestRenderFooterShowsScoreSegments(t *testing.T) {
	m := newTestModel()
	startQuestion(t, m)
	m.ctrl.SelectAnswer(0)

	out := m.renderFooter()
	if !containsAll(out, []string{"Q 1/25", "Acc 100.0%", "Streak 1 (best 1)"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterShowsPauseMarker(t *testing.T) {
	m := newTestModel()
	startQuestion(t, m)
	m.ctrl.TogglePause()
	if !strings.Contains(m.renderFooter(), "PAUSED") {
		t.Fatalf("paused footer missing marker: %s", m.renderFooter())
	}
}

func TestRenderQuestionMarksAnswer(t *testing.T) {
	m := newTestModel()
	startQuestion(t, m)
	m.ctrl.SelectAnswer(1)

	out := m.renderQuestion()
	if !containsAll(out, []string{"Incorrect.", "Photon", "Gluon", "Next question in"}) {
		t.Fatalf("answered view missing segments: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
