// Package session holds the per-role game state a client derives from relay
// events. The judge issues events, displays apply them. Nothing here is
// shared between clients; each one converges only through received events.
package session

import (
	"time"

	"github.com/palemoky/spelling-bee/internal/protocol"
)

// State is a step in the round cycle. There is no terminal state.
type State string

const (
	StateIdle      State = "idle"
	StateWordReady State = "word_ready"
	StateSpelling  State = "spelling_in_progress"
	StateJudged    State = "judged"
)

// Status lines shown on the display.
const (
	StatusWaiting      = "Waiting for word..."
	StatusWordSelected = "Word selected - Ready to start"
	StatusSpelling     = "Spelling in progress..."
	StatusTimerReset   = "Timer reset - Ready to start"
	StatusCorrect      = "Correct!"
	StatusIncorrect    = "Incorrect"
	StatusTimeExpired  = "Time expired!"
)

// SideMessageTTL is how long info-provided and request-info content stays
// visible on the receiving side.
const SideMessageTTL = 5 * time.Second

// Verdict is the judge's last decision as seen by a client.
type Verdict struct {
	Correct       bool
	Word          string
	TypedSpelling string
}

// SideMessage is transient content next to the main view.
type SideMessage struct {
	Event     protocol.MessageType
	Kind      string // definition, sentence, ...
	Content   string
	ExpiresAt time.Time
}

// Expired reports whether the message should no longer be shown at now.
func (m *SideMessage) Expired(now time.Time) bool {
	return m == nil || !now.Before(m.ExpiresAt)
}

// Option configures a Display or Judge.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
