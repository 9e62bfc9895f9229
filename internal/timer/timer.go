// Package timer derives the countdown phase and ticks a client-local
// countdown. Nothing here is shared between clients.
package timer

import (
	"fmt"

	"github.com/palemoky/spelling-bee/internal/config"
)

// Phase is the countdown color.
type Phase string

const (
	PhaseGreen  Phase = "green"
	PhaseYellow Phase = "yellow"
	PhaseRed    Phase = "red"
)

// Config holds the phase thresholds in seconds.
type Config struct {
	TotalTime        int
	YellowPhaseStart int
	RedPhaseStart    int
}

// DefaultConfig is 90s total, yellow from 60s, red from 30s.
func DefaultConfig() Config {
	return Config{TotalTime: 90, YellowPhaseStart: 60, RedPhaseStart: 30}
}

// ConfigFrom converts the file configuration.
func ConfigFrom(c config.TimerConfig) Config {
	return Config{
		TotalTime:        c.TotalTime,
		YellowPhaseStart: c.YellowPhaseStart,
		RedPhaseStart:    c.RedPhaseStart,
	}
}

// Phase maps remaining seconds to a phase. Boundaries belong to the more
// severe phase: exactly 30 is red, exactly 60 is yellow.
func (c Config) Phase(timeLeft int) Phase {
	switch {
	case timeLeft <= c.RedPhaseStart:
		return PhaseRed
	case timeLeft <= c.YellowPhaseStart:
		return PhaseYellow
	default:
		return PhaseGreen
	}
}

// State is a countdown snapshot.
type State struct {
	TimeLeft int
	Phase    Phase
	Active   bool
}

// Countdown is ticked once per second by its owner. It is not safe for
// concurrent use.
type Countdown struct {
	cfg   Config
	state State
}

// NewCountdown returns an inactive countdown showing the full time.
func NewCountdown(cfg Config) *Countdown {
	c := &Countdown{cfg: cfg}
	c.Reset()
	return c
}

// Config returns the thresholds in use.
func (c *Countdown) Config() Config { return c.cfg }

// State returns the current snapshot.
func (c *Countdown) State() State { return c.state }

// Start runs the countdown from duration seconds.
func (c *Countdown) Start(duration int) State {
	c.set(duration, duration > 0)
	return c.state
}

// Reset stops the countdown and restores the full time.
func (c *Countdown) Reset() State {
	c.set(c.cfg.TotalTime, false)
	return c.state
}

// Stop freezes the countdown at its current value.
func (c *Countdown) Stop() State {
	c.state.Active = false
	return c.state
}

// Tick advances one second. expired is true on the tick that reaches zero;
// the countdown is then inactive.
func (c *Countdown) Tick() (s State, expired bool) {
	if !c.state.Active {
		return c.state, false
	}
	left := c.state.TimeLeft - 1
	if left <= 0 {
		c.set(0, false)
		return c.state, true
	}
	c.set(left, true)
	return c.state, false
}

func (c *Countdown) set(timeLeft int, active bool) {
	c.state = State{
		TimeLeft: timeLeft,
		Phase:    c.cfg.Phase(timeLeft),
		Active:   active,
	}
}

// Format renders seconds as m:ss.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
