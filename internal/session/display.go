package session

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/timer"
)

// View is a read-only copy of the display state.
type View struct {
	State         State
	Status        string
	Word          string
	AvailableInfo []string
	Timer         timer.State
	Result        *Verdict
	// Revealed is set once the word has been shown next to the attempt.
	Revealed *Verdict
	Side     *SideMessage
}

// Display applies received events to the display and audience views.
type Display struct {
	mu        sync.Mutex
	log       *zap.Logger
	now       func() time.Time
	countdown *timer.Countdown

	state         State
	status        string
	word          string
	availableInfo []string
	result        *Verdict
	revealed      *Verdict
	side          *SideMessage
}

// NewDisplay returns an idle display waiting for a word.
func NewDisplay(cfg timer.Config, log *zap.Logger, opts ...Option) *Display {
	o := buildOptions(opts)
	return &Display{
		log:       log,
		now:       o.now,
		countdown: timer.NewCountdown(cfg),
		state:     StateIdle,
		status:    StatusWaiting,
	}
}

// Apply updates the view from one relay event.
func (d *Display) Apply(ev protocol.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Name {
	case protocol.EventWordSelected:
		p, err := protocol.DecodePayload[protocol.WordSelectedPayload](ev)
		if err != nil {
			return d.bad(ev, err)
		}
		d.word = p.Word
		d.availableInfo = slices.Clone(p.AvailableInfo)
		d.result = nil
		d.revealed = nil
		d.countdown.Reset()
		d.state = StateWordReady
		d.status = StatusWordSelected

	case protocol.EventTimerStart:
		p, err := protocol.DecodePayload[protocol.TimerStartPayload](ev)
		if err != nil {
			return d.bad(ev, err)
		}
		d.countdown.Start(p.Duration)
		d.state = StateSpelling
		d.status = StatusSpelling

	case protocol.EventTimerReset:
		d.countdown.Reset()
		if d.state != StateIdle {
			d.state = StateWordReady
		}
		d.status = StatusTimerReset

	case protocol.EventJudgeDecision:
		p, err := protocol.DecodePayload[protocol.JudgeDecisionPayload](ev)
		if err != nil {
			return d.bad(ev, err)
		}
		v := &Verdict{Correct: p.Correct, Word: p.Spelling()}
		if p.TypedSpelling != nil {
			v.TypedSpelling = *p.TypedSpelling
		}
		d.countdown.Stop()
		d.result = v
		d.revealed = v
		d.state = StateJudged
		if p.Correct {
			d.status = StatusCorrect
		} else {
			d.status = StatusIncorrect
		}

	case protocol.EventWordRevealed:
		p, err := protocol.DecodePayload[protocol.WordRevealedPayload](ev)
		if err != nil {
			return d.bad(ev, err)
		}
		v := &Verdict{Word: p.Word, TypedSpelling: p.TypedSpelling}
		if d.result != nil {
			v.Correct = d.result.Correct
		}
		d.countdown.Stop()
		d.revealed = v
		d.state = StateJudged

	case protocol.EventInfoProvided:
		p, err := protocol.DecodePayload[protocol.InfoProvidedPayload](ev)
		if err != nil {
			return d.bad(ev, err)
		}
		d.setSide(ev.Name, p.Type, p.Content)

	case protocol.EventRequestInfo:
		p, err := protocol.DecodePayload[protocol.RequestInfoPayload](ev)
		if err != nil {
			return d.bad(ev, err)
		}
		d.setSide(ev.Name, p.Type, "")

	default:
		return apperrors.ErrUnknownEvent
	}
	return nil
}

// Tick advances the local countdown by one second.
func (d *Display) Tick() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, expired := d.countdown.Tick(); expired {
		d.status = StatusTimeExpired
	}
	return d.viewLocked()
}

// View returns the current state. Expired side messages are dropped.
func (d *Display) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

func (d *Display) viewLocked() View {
	if d.side.Expired(d.now()) {
		d.side = nil
	}
	v := View{
		State:         d.state,
		Status:        d.status,
		Word:          d.word,
		AvailableInfo: slices.Clone(d.availableInfo),
		Timer:         d.countdown.State(),
	}
	if d.result != nil {
		r := *d.result
		v.Result = &r
	}
	if d.revealed != nil {
		r := *d.revealed
		v.Revealed = &r
	}
	if d.side != nil {
		s := *d.side
		v.Side = &s
	}
	return v
}

func (d *Display) setSide(name protocol.MessageType, kind, content string) {
	d.side = &SideMessage{
		Event:     name,
		Kind:      kind,
		Content:   content,
		ExpiresAt: d.now().Add(SideMessageTTL),
	}
}

func (d *Display) bad(ev protocol.Event, err error) error {
	d.log.Warn("dropping malformed event",
		zap.String("event", string(ev.Name)),
		zap.String("room", ev.Room),
		zap.Error(err),
	)
	return apperrors.ErrInvalidMessage.Wrap(err)
}
