// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Topic            string
	SessionLimit     int
	CountdownSeconds float64
	PerMinute        int
	PerHour          int
	PerDay           int
	APIBaseURL       string
	APIKey           string
	RequestTimeout   time.Duration
}

// StatsConfig defines filters for history output.
type StatsConfig struct {
	Topic string
	Since *time.Time
	Last  int
}

// Explanation accompanies a scored answer.
type Explanation struct {
	Correct  string `json:"correct"`
	KeyPoint string `json:"key_point"`
}

// Question is a single multiple-choice question. Replaced wholesale on each
// fetch, never mutated in place.
type Question struct {
	Text         string      `json:"question"`
	Options      []string    `json:"options"`
	CorrectIndex int         `json:"correct_index"`
	Explanation  Explanation `json:"explanation"`
}

// SessionRecord captures a finished practice session.
type SessionRecord struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Topic      string
	Questions  int
	Correct    int
	BestStreak int
	AvgTimeMs  int64
	DurationMs int64
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Topic      string
	Questions  int
	Correct    int
	BestStreak int
	AvgTimeMs  int64
	DurationMs int64
}
