package session

import (
	"errors"
	"math"
	"testing"
	"time"

	"quizdrill/internal/model"
	"quizdrill/internal/pacer"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestController(limit int) *Controller {
	p := pacer.New(pacer.Config{PerMinute: 1000, PerHour: 1000, PerDay: 1000})
	return New(p, limit, 5.0)
}

func loadQuestion(t *testing.T, c *Controller, q model.Question) {
	t.Helper()
	gen, err := c.SubmitTopic(c.Topic(), testStart)
	if c.Topic() == "" {
		t.Fatalf("loadQuestion requires an active topic")
	}
	if err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(gen, q, nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
}

func sampleQuestion() model.Question {
	return model.Question{
		Text:         "What principle forbids two electrons from sharing a quantum state?",
		Options:      []string{"Pauli exclusion", "Superposition", "Heisenberg uncertainty", "Wave-particle duality"},
		CorrectIndex: 0,
		Explanation: model.Explanation{
			Correct:  "The Pauli exclusion principle applies to fermions.",
			KeyPoint: "No two fermions can occupy the same quantum state.",
		},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCorrectFirstAnswerScoresFullAccuracy(t *testing.T) {
	c := newTestController(25)
	gen, err := c.SubmitTopic("Quantum Physics", testStart)
	if err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if c.Phase() != PhaseLoading {
		t.Fatalf("expected loading phase, got %v", c.Phase())
	}
	if err := c.ApplyQuestion(gen, sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	if c.Phase() != PhaseAwaitingAnswer {
		t.Fatalf("expected awaiting-answer phase, got %v", c.Phase())
	}

	c.SelectAnswer(0)
	s := c.Score()
	if s.Questions != 1 || !approx(s.Accuracy, 100) || s.Streak != 1 || s.BestStreak != 1 {
		t.Fatalf("unexpected score after correct answer: %+v", s)
	}
	if c.Phase() != PhaseAnswered {
		t.Fatalf("expected answered phase, got %v", c.Phase())
	}
	if !approx(c.Remaining(), 5.0) {
		t.Fatalf("countdown not armed at 5.0, got %v", c.Remaining())
	}
}

func TestRunningMeansOverSeveralAnswers(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Chemistry", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	answers := []int{0, 1, 0, 0} // correct, wrong, correct, correct
	for i, idx := range answers {
		if i == 0 {
			if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
				t.Fatalf("ApplyQuestion: %v", err)
			}
		} else {
			loadQuestion(t, c, sampleQuestion())
		}
		c.TickElapsed()
		c.TickElapsed() // 2s per question
		c.SelectAnswer(idx)
	}
	s := c.Score()
	if s.Questions != 4 {
		t.Fatalf("expected 4 questions, got %d", s.Questions)
	}
	if !approx(s.Accuracy, 75) {
		t.Fatalf("expected accuracy 75, got %v", s.Accuracy)
	}
	if s.Streak != 2 {
		t.Fatalf("expected trailing streak 2, got %d", s.Streak)
	}
	if s.BestStreak != 2 {
		t.Fatalf("expected best streak 2, got %d", s.BestStreak)
	}
	if !approx(s.AvgTimeSec, 2) {
		t.Fatalf("expected avg time 2s, got %v", s.AvgTimeSec)
	}
}

func TestBestStreakMonotonic(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("History", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	best := 0
	for _, idx := range []int{0, 0, 1, 0, 1, 1, 0} {
		c.SelectAnswer(idx)
		s := c.Score()
		if s.BestStreak < best {
			t.Fatalf("best streak decreased: %d -> %d", best, s.BestStreak)
		}
		if s.BestStreak < s.Streak {
			t.Fatalf("best streak %d below current streak %d", s.BestStreak, s.Streak)
		}
		best = s.BestStreak
		loadQuestion(t, c, sampleQuestion())
	}
}

func TestSecondSelectionIgnored(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Biology", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.SelectAnswer(1)
	first := c.Score()
	c.SelectAnswer(0)
	if c.Score() != first {
		t.Fatalf("second selection changed the score: %+v -> %+v", first, c.Score())
	}
	if c.Selected() != 1 {
		t.Fatalf("selection overwritten: %d", c.Selected())
	}
}

func TestSelectionWithoutQuestionIgnored(t *testing.T) {
	c := newTestController(25)
	c.SelectAnswer(0)
	if c.Score().Questions != 0 || c.Phase() != PhaseIdle {
		t.Fatalf("selection without a question mutated state")
	}
}

func TestCountdownExpiryTriggersNextFetch(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Astronomy", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.TickElapsed()
	c.SelectAnswer(2) // incorrect
	prevGen := c.Generation()

	var gen int
	var fetch bool
	for i := 0; i < 50; i++ {
		var err error
		gen, fetch, err = c.TickCountdown(testStart.Add(time.Duration(i) * 100 * time.Millisecond))
		if err != nil {
			t.Fatalf("TickCountdown: %v", err)
		}
		if fetch {
			break
		}
	}
	if !fetch {
		t.Fatalf("countdown never triggered the next fetch")
	}
	if gen != prevGen+1 {
		t.Fatalf("expected generation %d, got %d", prevGen+1, gen)
	}
	if c.Phase() != PhaseLoading {
		t.Fatalf("expected loading phase after expiry, got %v", c.Phase())
	}
	if err := c.ApplyQuestion(gen, sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	if c.Elapsed() != 0 {
		t.Fatalf("elapsed not reset for the new question: %d", c.Elapsed())
	}
}

func TestPauseFreezesCountdownAndElapsed(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Geography", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.SelectAnswer(0)
	c.TogglePause()
	// Three simulated seconds of ticks while paused.
	for i := 0; i < 30; i++ {
		if _, fetch, err := c.TickCountdown(testStart.Add(time.Duration(i) * 100 * time.Millisecond)); fetch || err != nil {
			t.Fatalf("countdown advanced while paused")
		}
	}
	c.TickElapsed()
	if !approx(c.Remaining(), 5.0) {
		t.Fatalf("countdown moved while paused: %v", c.Remaining())
	}
	c.TogglePause()
	if _, _, err := c.TickCountdown(testStart.Add(4 * time.Second)); err != nil {
		t.Fatalf("TickCountdown: %v", err)
	}
	if !approx(c.Remaining(), 4.9) {
		t.Fatalf("countdown did not resume from 5.0: %v", c.Remaining())
	}
}

func TestDoublePauseToggleLeavesClocksUnchanged(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Music", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.TickElapsed()
	c.SelectAnswer(0)
	elapsed := c.Elapsed()
	remaining := c.Remaining()
	c.TogglePause()
	c.TogglePause()
	if c.Elapsed() != elapsed || !approx(c.Remaining(), remaining) {
		t.Fatalf("double pause toggle changed clocks: %d/%v -> %d/%v",
			elapsed, remaining, c.Elapsed(), c.Remaining())
	}
	if c.Paused() {
		t.Fatalf("controller left paused")
	}
}

func TestTopicChangeResetsStatsSameTopicRetains(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Physics", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.SelectAnswer(0)

	// Same topic keeps the running score.
	gen, err := c.SubmitTopic("Physics", testStart.Add(time.Minute))
	if err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if c.Score().Questions != 1 {
		t.Fatalf("same-topic submission reset stats")
	}
	if err := c.ApplyQuestion(gen, sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.SelectAnswer(0)

	// A different topic starts from zero.
	if _, err := c.SubmitTopic("Chemistry", testStart.Add(2*time.Minute)); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if c.Score() != (Score{}) {
		t.Fatalf("topic change did not reset stats: %+v", c.Score())
	}
}

func TestSubmitWhileLoadingRejected(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Physics", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if _, err := c.SubmitTopic("Physics", testStart); !errors.Is(err, ErrFetchInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
}

func TestPacerRejectionLeavesStateUntouched(t *testing.T) {
	p := pacer.New(pacer.Config{PerMinute: 2, PerHour: 250, PerDay: 500})
	c := New(p, 25, 5.0)
	if _, err := c.SubmitTopic("Physics", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	gen := c.Generation()
	_, err := c.SubmitTopic("Physics", testStart.Add(time.Second))
	var limitErr *pacer.LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected rate-limit rejection, got %v", err)
	}
	if c.Phase() != PhaseAwaitingAnswer || c.Generation() != gen {
		t.Fatalf("rejected submission mutated state")
	}
}

func TestCountdownExpiryRespectsPacer(t *testing.T) {
	p := pacer.New(pacer.Config{PerMinute: 2, PerHour: 250, PerDay: 500})
	c := New(p, 25, 5.0)
	if _, err := c.SubmitTopic("Physics", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.SelectAnswer(0)
	var sawErr error
	for i := 0; i < 50; i++ {
		_, fetch, err := c.TickCountdown(testStart.Add(time.Duration(i) * 100 * time.Millisecond))
		if fetch {
			t.Fatalf("fetch admitted above the cap")
		}
		if err != nil {
			sawErr = err
		}
	}
	var limitErr *pacer.LimitError
	if !errors.As(sawErr, &limitErr) {
		t.Fatalf("expected rate-limit error at expiry, got %v", sawErr)
	}
	if c.Phase() != PhaseAnswered {
		t.Fatalf("rejected auto-advance left phase %v", c.Phase())
	}
	// The countdown stays expired; no retry is scheduled.
	if _, fetch, err := c.TickCountdown(testStart.Add(10 * time.Second)); fetch || err != nil {
		t.Fatalf("expired countdown ticked again: fetch=%v err=%v", fetch, err)
	}
}

func TestStaleFetchResultDiscarded(t *testing.T) {
	c := newTestController(25)
	staleGen, err := c.SubmitTopic("Physics", testStart)
	if err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	// A fetch error returns the controller to idle so the topic can change.
	if err := c.ApplyQuestion(staleGen, model.Question{}, errors.New("boom")); !errors.Is(err, ErrRetrievalFailed) {
		t.Fatalf("expected generic retrieval failure, got %v", err)
	}
	if c.Phase() != PhaseIdle {
		t.Fatalf("fetch failure did not return to idle: %v", c.Phase())
	}

	gen, err := c.SubmitTopic("Chemistry", testStart.Add(time.Second))
	if err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	// The stale result arrives late and must be dropped.
	if err := c.ApplyQuestion(staleGen, sampleQuestion(), nil); err != nil {
		t.Fatalf("stale result surfaced an error: %v", err)
	}
	if c.Phase() != PhaseLoading {
		t.Fatalf("stale result applied: %v", c.Phase())
	}
	if err := c.ApplyQuestion(gen, sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	if c.Phase() != PhaseAwaitingAnswer {
		t.Fatalf("current result not applied: %v", c.Phase())
	}
}

func TestSessionCompletesAtLimit(t *testing.T) {
	c := newTestController(3)
	if _, err := c.SubmitTopic("Physics", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	for i := 0; i < 3; i++ {
		c.SelectAnswer(0)
		if i < 2 {
			loadQuestion(t, c, sampleQuestion())
		}
	}
	if c.Phase() != PhaseComplete {
		t.Fatalf("expected complete phase at limit, got %v", c.Phase())
	}
	if c.Remaining() != 0 {
		t.Fatalf("countdown armed after completion: %v", c.Remaining())
	}
	// Completion suppresses the auto-advance path entirely.
	if _, fetch, err := c.TickCountdown(testStart.Add(time.Minute)); fetch || err != nil {
		t.Fatalf("completed session still ticking: fetch=%v err=%v", fetch, err)
	}
	// A fresh submission from the completed state starts a new run.
	gen, err := c.SubmitTopic("Physics", testStart.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("SubmitTopic after completion: %v", err)
	}
	if gen == 0 || c.Phase() != PhaseLoading {
		t.Fatalf("completed session cannot restart")
	}
	if c.Served() != 0 || c.Score() != (Score{}) {
		t.Fatalf("restart after completion kept old totals: served=%d score=%+v", c.Served(), c.Score())
	}
}

func TestRecordSummarizesSession(t *testing.T) {
	c := newTestController(25)
	if _, err := c.SubmitTopic("Physics", testStart); err != nil {
		t.Fatalf("SubmitTopic: %v", err)
	}
	if err := c.ApplyQuestion(c.Generation(), sampleQuestion(), nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}
	c.TickElapsed()
	c.SelectAnswer(0)
	rec := c.Record(testStart.Add(90 * time.Second))
	if rec.Topic != "Physics" || rec.Questions != 1 || rec.Correct != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.AvgTimeMs != 1000 {
		t.Fatalf("expected avg time 1000ms, got %d", rec.AvgTimeMs)
	}
	if rec.DurationMs != 90000 {
		t.Fatalf("expected duration 90000ms, got %d", rec.DurationMs)
	}
}
