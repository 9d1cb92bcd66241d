// Package pacer provides admission control for outbound question requests.
package pacer

import (
	"fmt"
	"time"
)

// Config holds the sliding-window request caps.
type Config struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// DefaultConfig returns the stock request caps.
func DefaultConfig() Config {
	return Config{PerMinute: 15, PerHour: 250, PerDay: 500}
}

// LimitError reports which window rejected a request.
type LimitError struct {
	Window string
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded: Too many requests per %s.", e.Window)
}

type window struct {
	name string
	span time.Duration
	cap  int
}

// Pacer tracks timestamps of admitted requests and enforces three nested
// sliding windows. It is not safe for concurrent use; the event loop owns it.
type Pacer struct {
	cfg Config
	log []time.Time
}

// New constructs a Pacer with the given caps. Non-positive caps fall back
// to the defaults.
func New(cfg Config) *Pacer {
	def := DefaultConfig()
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = def.PerMinute
	}
	if cfg.PerHour <= 0 {
		cfg.PerHour = def.PerHour
	}
	if cfg.PerDay <= 0 {
		cfg.PerDay = def.PerDay
	}
	return &Pacer{cfg: cfg}
}

// CheckAndRecord admits or rejects a request at the given instant. Windows
// are evaluated in ascending order; a request that would bring a window's
// count up to its cap is rejected. The timestamp is recorded only on
// admission, exactly once, so rejected attempts never count toward future
// windows.
func (p *Pacer) CheckAndRecord(now time.Time) error {
	p.prune(now)
	windows := []window{
		{name: "minute", span: time.Minute, cap: p.cfg.PerMinute},
		{name: "hour", span: time.Hour, cap: p.cfg.PerHour},
		{name: "day", span: 24 * time.Hour, cap: p.cfg.PerDay},
	}
	for _, w := range windows {
		if p.countSince(now.Add(-w.span))+1 >= w.cap {
			return &LimitError{Window: w.name}
		}
	}
	p.log = append(p.log, now)
	return nil
}

// Recorded returns the number of retained log entries.
func (p *Pacer) Recorded() int {
	return len(p.log)
}

func (p *Pacer) countSince(cutoff time.Time) int {
	count := 0
	for _, t := range p.log {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}

// prune drops entries older than the longest window. The log is
// time-ordered, so the first retained entry bounds the rest.
func (p *Pacer) prune(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	keep := 0
	for keep < len(p.log) && !p.log[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		p.log = append(p.log[:0], p.log[keep:]...)
	}
}
