// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"quizdrill/internal/model"
)

const sparkChars = " .:-=+*#%@"

const terminalWidthBackup = 80

// SessionAccuracy computes the answer accuracy for a stored session as a
// percentage in [0,100].
func SessionAccuracy(questions, correct int) float64 {
	if questions <= 0 {
		return 0
	}
	return float64(correct) / float64(questions) * 100
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// AccuracySeries extracts per-session accuracy in chronological order.
func AccuracySeries(sessions []model.SessionAggregate) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = SessionAccuracy(s.Questions, s.Correct)
	}
	return out
}

// RenderSummary prints a summary report for stored sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate, window int) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	totalQuestions := 0
	totalCorrect := 0
	bestStreak := 0
	var totalAvgTimeMs int64
	for _, s := range sessions {
		totalQuestions += s.Questions
		totalCorrect += s.Correct
		if s.BestStreak > bestStreak {
			bestStreak = s.BestStreak
		}
		totalAvgTimeMs += s.AvgTimeMs
	}
	count := float64(len(sessions))

	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Questions: %d\n", totalQuestions); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Accuracy: %.1f%%\n", SessionAccuracy(totalQuestions, totalCorrect)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best Streak: %d\n", bestStreak); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Answer Time: %.1fs\n", float64(totalAvgTimeMs)/count/1000); err != nil {
		return err
	}

	accs := MovingAverage(AccuracySeries(sessions), window)
	spark := Sparkline(resample(accs, sparkWidth()))
	if spark != "" {
		if _, err := fmt.Fprintf(w, "Accuracy trend: [%s]\n", spark); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderSessionTable prints the most recent sessions, newest last.
func RenderSessionTable(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Recent Sessions"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-19s  %-24s  %9s  %8s  %6s\n", "Ended", "Topic", "Questions", "Accuracy", "Streak"); err != nil {
		return err
	}
	for _, s := range sessions {
		topic := s.Topic
		if len(topic) > 24 {
			topic = topic[:21] + "..."
		}
		if _, err := fmt.Fprintf(w, "%-19s  %-24s  %9d  %7.1f%%  %6d\n",
			s.EndedAt.Format("2006-01-02 15:04:05"),
			topic,
			s.Questions,
			SessionAccuracy(s.Questions, s.Correct),
			s.BestStreak,
		); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func sparkWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = terminalWidthBackup
	}
	// Room for the "Accuracy trend: [" prefix and closing bracket.
	width -= 20
	if width < 10 {
		width = 10
	}
	return width
}

func resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	if len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := int(float64(i) * float64(len(values)) / float64(width))
		end := int(float64(i+1) * float64(len(values)) / float64(width))
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
