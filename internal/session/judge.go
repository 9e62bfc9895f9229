package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/words"
)

// WordSource picks words for the judge, e.g. *words.Bank.
type WordSource interface {
	Random(ctx context.Context, level words.Difficulty) (words.Word, bool, error)
}

// JudgeView is a read-only copy of the judge state.
type JudgeView struct {
	State       State
	Selection   *words.Selection
	TimerActive bool
	Result      *Verdict
	// Request is the latest pending request-info from the room.
	Request *SideMessage
}

// Judge issues relay events for one room. Local state changes are applied
// before publishing and rolled back when the publish fails.
type Judge struct {
	mu       sync.Mutex
	pub      relay.Publisher
	source   WordSource
	log      *zap.Logger
	now      func() time.Time
	cfg      timer.Config
	room     string
	memberID string

	state       State
	selection   *words.Selection
	timerActive bool
	result      *Verdict
	request     *SideMessage
}

// NewJudge binds a judge to room. memberID is excluded from fan-out.
func NewJudge(pub relay.Publisher, source WordSource, cfg timer.Config, room, memberID string, log *zap.Logger, opts ...Option) *Judge {
	o := buildOptions(opts)
	return &Judge{
		pub:      pub,
		source:   source,
		log:      log,
		now:      o.now,
		cfg:      cfg,
		room:     room,
		memberID: memberID,
		state:    StateIdle,
	}
}

// Room returns the room code the judge publishes to.
func (j *Judge) Room() string { return j.room }

type judgeSnapshot struct {
	state       State
	selection   *words.Selection
	timerActive bool
	result      *Verdict
}

func (j *Judge) snapshot() judgeSnapshot {
	return judgeSnapshot{j.state, j.selection, j.timerActive, j.result}
}

func (j *Judge) restore(s judgeSnapshot) {
	j.state, j.selection, j.timerActive, j.result = s.state, s.selection, s.timerActive, s.result
}

// publish sends ev and restores prev on failure. Callers hold j.mu.
func (j *Judge) publish(ctx context.Context, name protocol.MessageType, payload any, prev judgeSnapshot) relay.Result {
	ev, err := protocol.NewEvent(name, j.room, payload)
	if err != nil {
		j.restore(prev)
		return relay.Result{Err: apperrors.From(err)}
	}
	res := j.pub.Publish(ctx, j.room, ev, j.memberID)
	if res.Err != nil {
		j.restore(prev)
		j.log.Error("publish failed",
			zap.String("room", j.room),
			zap.String("event", string(name)),
			zap.Error(res.Err),
		)
	}
	return res
}

// SelectWord picks a random word at level and announces it. ok is false
// when no word exists at that level; nothing is published then.
func (j *Judge) SelectWord(ctx context.Context, level words.Difficulty) (sel words.Selection, ok bool, res relay.Result) {
	w, ok, err := j.source.Random(ctx, level)
	if err != nil {
		return words.Selection{}, false, relay.Result{Err: err}
	}
	if !ok {
		return words.Selection{}, false, relay.Result{}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	prev := j.snapshot()
	sel = words.Select(w)
	j.selection = &sel
	j.state = StateWordReady
	j.timerActive = false
	j.result = nil

	res = j.publish(ctx, protocol.EventWordSelected, protocol.WordSelectedPayload{
		Word:          sel.Word.Word,
		AvailableInfo: sel.AvailableInfo,
	}, prev)
	if res.Err != nil {
		return words.Selection{}, false, res
	}
	return sel, true, res
}

// StartTimer starts every display's countdown at the configured total.
func (j *Judge) StartTimer(ctx context.Context) relay.Result {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.selection == nil {
		return relay.Result{Err: apperrors.ErrNoWordSelected}
	}
	if j.timerActive {
		return relay.Result{Err: apperrors.ErrTimerState.WithMessage("timer already running")}
	}

	prev := j.snapshot()
	j.timerActive = true
	j.state = StateSpelling
	return j.publish(ctx, protocol.EventTimerStart, protocol.TimerStartPayload{Duration: j.cfg.TotalTime}, prev)
}

// ResetTimer stops the countdown everywhere and restores the full time.
func (j *Judge) ResetTimer(ctx context.Context) relay.Result {
	j.mu.Lock()
	defer j.mu.Unlock()

	prev := j.snapshot()
	j.timerActive = false
	if j.state != StateIdle {
		j.state = StateWordReady
	}
	return j.publish(ctx, protocol.EventTimerReset, protocol.TimerResetPayload{}, prev)
}

// Decide publishes the verdict for the selected word. typed may be empty.
func (j *Judge) Decide(ctx context.Context, correct bool, typed string) relay.Result {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.selection == nil {
		return relay.Result{Err: apperrors.ErrNoWordSelected}
	}

	prev := j.snapshot()
	word := j.selection.Word.Word
	j.timerActive = false
	j.state = StateJudged
	j.result = &Verdict{Correct: correct, Word: word, TypedSpelling: typed}

	payload := protocol.JudgeDecisionPayload{Correct: correct, Word: word}
	if typed != "" {
		payload.TypedSpelling = &typed
	}
	return j.publish(ctx, protocol.EventJudgeDecision, payload, prev)
}

// Reveal shows the word next to what the speller typed.
func (j *Judge) Reveal(ctx context.Context, typed string) relay.Result {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.selection == nil {
		return relay.Result{Err: apperrors.ErrNoWordSelected}
	}

	prev := j.snapshot()
	word := j.selection.Word.Word
	j.timerActive = false
	j.state = StateJudged
	if j.result != nil {
		r := *j.result
		r.TypedSpelling = typed
		j.result = &r
	} else {
		j.result = &Verdict{Word: word, TypedSpelling: typed}
	}
	return j.publish(ctx, protocol.EventWordRevealed, protocol.WordRevealedPayload{
		Word:          word,
		TypedSpelling: typed,
	}, prev)
}

// ProvideInfo sends the definition or sentence of the selected word. Only
// kinds available at selection time can be sent.
func (j *Judge) ProvideInfo(ctx context.Context, kind string) relay.Result {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.selection == nil {
		return relay.Result{Err: apperrors.ErrNoWordSelected}
	}
	content, ok := j.selection.Info(kind)
	if !ok {
		return relay.Result{Err: apperrors.ErrInvalidMessage.WithMessage("info not available: " + kind)}
	}

	prev := j.snapshot()
	res := j.publish(ctx, protocol.EventInfoProvided, protocol.InfoProvidedPayload{Type: kind, Content: content}, prev)
	if res.Err == nil && j.request != nil && j.request.Kind == kind {
		j.request = nil
	}
	return res
}

// Apply records events the judge receives. Only request-info matters to
// the judge; everything else is ignored.
func (j *Judge) Apply(ev protocol.Event) error {
	if ev.Name != protocol.EventRequestInfo {
		return nil
	}
	p, err := protocol.DecodePayload[protocol.RequestInfoPayload](ev)
	if err != nil {
		return apperrors.ErrInvalidMessage.Wrap(err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.request = &SideMessage{
		Event:     ev.Name,
		Kind:      p.Type,
		ExpiresAt: j.now().Add(SideMessageTTL),
	}
	return nil
}

// View returns the current judge state.
func (j *Judge) View() JudgeView {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.request.Expired(j.now()) {
		j.request = nil
	}
	v := JudgeView{State: j.state, TimerActive: j.timerActive}
	if j.selection != nil {
		s := *j.selection
		v.Selection = &s
	}
	if j.result != nil {
		r := *j.result
		v.Result = &r
	}
	if j.request != nil {
		r := *j.request
		v.Request = &r
	}
	return v
}
