// Package session implements the practice session state machine.
package session

import (
	"errors"
	"time"

	"quizdrill/internal/model"
	"quizdrill/internal/pacer"
)

// Phase identifies the controller state.
type Phase int

// Controller phases.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseAwaitingAnswer
	PhaseAnswered
	PhaseComplete
)

// ErrFetchInFlight rejects a topic submission while a fetch is pending.
var ErrFetchInFlight = errors.New("fetch already in flight")

// ErrRetrievalFailed is the generic user-facing fetch failure.
var ErrRetrievalFailed = errors.New("failed to load question, please try again")

const defaultCountdownSeconds = 5.0

// Score holds running per-session aggregates. Accuracy and AvgTimeSec are
// running means over Questions samples; BestStreak >= Streak always.
type Score struct {
	Questions  int
	Correct    int
	Accuracy   float64
	Streak     int
	BestStreak int
	AvgTimeSec float64
}

// Controller owns current-question state, scoring, and countdown
// bookkeeping. It performs no I/O and schedules no timers; the UI drives it
// with tick and fetch-result events.
type Controller struct {
	pacer     *pacer.Pacer
	limit     int
	countdown float64 // armed value in seconds

	phase      Phase
	topic      string
	generation int

	question  *model.Question
	selected  int
	elapsed   int
	remaining float64
	paused    bool

	score     Score
	served    int
	startedAt time.Time
}

// New constructs a Controller. limit is the number of questions per session;
// countdownSeconds is the post-answer delay before auto-advance.
func New(p *pacer.Pacer, limit int, countdownSeconds float64) *Controller {
	if limit <= 0 {
		limit = 25
	}
	if countdownSeconds <= 0 {
		countdownSeconds = defaultCountdownSeconds
	}
	return &Controller{
		pacer:     p,
		limit:     limit,
		countdown: countdownSeconds,
		selected:  -1,
	}
}

// SubmitTopic starts (or restarts) a practice run for topic. It returns the
// fetch generation the caller must tag the retrieval with. Stats reset only
// when the topic differs from the active one; submitting the same topic
// keeps the running score.
func (c *Controller) SubmitTopic(topic string, now time.Time) (int, error) {
	if c.phase == PhaseLoading {
		return 0, ErrFetchInFlight
	}
	if err := c.pacer.CheckAndRecord(now); err != nil {
		return 0, err
	}
	// A completed session always restarts from zero, even on the same topic.
	if topic != c.topic || c.phase == PhaseComplete {
		c.score = Score{}
		c.served = 0
		c.startedAt = now
		c.question = nil
		c.selected = -1
		c.elapsed = 0
		c.remaining = 0
	}
	if c.startedAt.IsZero() {
		c.startedAt = now
	}
	c.topic = topic
	c.generation++
	c.phase = PhaseLoading
	return c.generation, nil
}

// ApplyQuestion delivers a fetch result. Results tagged with a stale
// generation are discarded: a topic change invalidates in-flight fetches.
func (c *Controller) ApplyQuestion(gen int, q model.Question, err error) error {
	if gen != c.generation || c.phase != PhaseLoading {
		return nil
	}
	if err != nil {
		// Back to a stable state so the user can retry manually.
		if c.question != nil && c.selected >= 0 {
			c.phase = PhaseAnswered
			c.remaining = 0
		} else {
			c.phase = PhaseIdle
		}
		return ErrRetrievalFailed
	}
	c.question = &q
	c.selected = -1
	c.elapsed = 0
	c.remaining = 0
	c.phase = PhaseAwaitingAnswer
	return nil
}

// SelectAnswer scores a selection. Selecting with no active question or
// after a selection already exists is a silent no-op.
func (c *Controller) SelectAnswer(index int) {
	if c.phase != PhaseAwaitingAnswer || c.question == nil || c.selected >= 0 {
		return
	}
	if index < 0 || index >= len(c.question.Options) {
		return
	}
	c.selected = index
	correct := index == c.question.CorrectIndex

	n := float64(c.score.Questions)
	value := 0.0
	if correct {
		value = 100
		c.score.Correct++
		c.score.Streak++
	} else {
		c.score.Streak = 0
	}
	c.score.Accuracy = (c.score.Accuracy*n + value) / (n + 1)
	c.score.AvgTimeSec = (c.score.AvgTimeSec*n + float64(c.elapsed)) / (n + 1)
	if c.score.Streak > c.score.BestStreak {
		c.score.BestStreak = c.score.Streak
	}
	c.score.Questions++
	c.served++

	if c.served >= c.limit {
		c.phase = PhaseComplete
		c.remaining = 0
		return
	}
	c.phase = PhaseAnswered
	c.remaining = c.countdown
}

// TickElapsed advances the per-question clock by one second. Suspended
// while paused; there is no catch-up on resume.
func (c *Controller) TickElapsed() {
	if c.phase != PhaseAwaitingAnswer || c.paused {
		return
	}
	c.elapsed++
}

// TickCountdown advances the post-answer countdown by 0.1s. When it
// reaches zero the controller asks the pacer for the next fetch: on
// admission it returns the new generation with fetch=true, on rejection it
// stays in the answered state and returns the limit error (no retry is
// scheduled).
func (c *Controller) TickCountdown(now time.Time) (gen int, fetch bool, err error) {
	if c.phase != PhaseAnswered || c.paused || c.remaining <= 0 {
		return 0, false, nil
	}
	c.remaining -= 0.1
	if c.remaining > 1e-9 {
		return 0, false, nil
	}
	return c.Advance(now)
}

// Advance skips whatever countdown remains and requests the next question,
// subject to the pacer. Outside the answered phase it is a no-op.
func (c *Controller) Advance(now time.Time) (gen int, fetch bool, err error) {
	if c.phase != PhaseAnswered {
		return 0, false, nil
	}
	c.remaining = 0
	if err := c.pacer.CheckAndRecord(now); err != nil {
		return 0, false, err
	}
	c.generation++
	c.phase = PhaseLoading
	return c.generation, true, nil
}

// TogglePause freezes or unfreezes both the elapsed clock and the
// countdown without resetting either.
func (c *Controller) TogglePause() {
	c.paused = !c.paused
}

// Record summarizes the session so far for persistence.
func (c *Controller) Record(now time.Time) model.SessionRecord {
	started := c.startedAt
	if started.IsZero() {
		started = now
	}
	return model.SessionRecord{
		StartedAt:  started,
		EndedAt:    now,
		Topic:      c.topic,
		Questions:  c.score.Questions,
		Correct:    c.score.Correct,
		BestStreak: c.score.BestStreak,
		AvgTimeMs:  int64(c.score.AvgTimeSec * 1000),
		DurationMs: now.Sub(started).Milliseconds(),
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Topic returns the active topic.
func (c *Controller) Topic() string { return c.topic }

// Generation returns the current fetch generation.
func (c *Controller) Generation() int { return c.generation }

// Question returns the active question, or nil.
func (c *Controller) Question() *model.Question { return c.question }

// Selected returns the selected option index, or -1.
func (c *Controller) Selected() int { return c.selected }

// Elapsed returns whole seconds spent on the active question.
func (c *Controller) Elapsed() int { return c.elapsed }

// Remaining returns the countdown seconds left before auto-advance.
func (c *Controller) Remaining() float64 { return c.remaining }

// Paused reports whether both clocks are frozen.
func (c *Controller) Paused() bool { return c.paused }

// Score returns the running aggregates.
func (c *Controller) Score() Score { return c.score }

// Served returns the number of questions served this session.
func (c *Controller) Served() int { return c.served }

// Limit returns the session question limit.
func (c *Controller) Limit() int { return c.limit }
