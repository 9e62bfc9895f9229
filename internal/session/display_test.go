package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/timer"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 19, 0, 0, 0, time.UTC)}
}

func event(name protocol.MessageType, payload string) protocol.Event {
	return protocol.Event{Name: name, Room: "4821", Payload: json.RawMessage(payload)}
}

func newDisplay(clock *fakeClock) *Display {
	return NewDisplay(timer.DefaultConfig(), zap.NewNop(), WithClock(clock.now))
}

func TestDisplay_Initial(t *testing.T) {
	d := newDisplay(newClock())
	v := d.View()

	assert.Equal(t, StateIdle, v.State)
	assert.Equal(t, StatusWaiting, v.Status)
	assert.Empty(t, v.Word)
	assert.Equal(t, timer.State{TimeLeft: 90, Phase: timer.PhaseGreen}, v.Timer)
	assert.Nil(t, v.Result)
}

func TestDisplay_RoundCycle(t *testing.T) {
	d := newDisplay(newClock())

	require.NoError(t, d.Apply(event(protocol.EventWordSelected,
		`{"word":"kangoeroe","availableInfo":["definition","sentence"]}`)))
	v := d.View()
	assert.Equal(t, StateWordReady, v.State)
	assert.Equal(t, StatusWordSelected, v.Status)
	assert.Equal(t, "kangoeroe", v.Word)
	assert.Equal(t, []string{"definition", "sentence"}, v.AvailableInfo)

	require.NoError(t, d.Apply(event(protocol.EventTimerStart, `{"duration":90}`)))
	v = d.View()
	assert.Equal(t, StateSpelling, v.State)
	assert.Equal(t, StatusSpelling, v.Status)
	assert.True(t, v.Timer.Active)

	d.Tick()
	d.Tick()
	require.NoError(t, d.Apply(event(protocol.EventTimerReset, `{}`)))
	v = d.View()
	assert.Equal(t, StateWordReady, v.State)
	assert.Equal(t, StatusTimerReset, v.Status)
	assert.Equal(t, timer.State{TimeLeft: 90, Phase: timer.PhaseGreen}, v.Timer)

	require.NoError(t, d.Apply(event(protocol.EventTimerStart, `{"duration":90}`)))
	d.Tick()
	require.NoError(t, d.Apply(event(protocol.EventJudgeDecision, `{"correct":true,"word":"kangoeroe"}`)))
	v = d.View()
	assert.Equal(t, StateJudged, v.State)
	assert.Equal(t, StatusCorrect, v.Status)
	assert.False(t, v.Timer.Active)
	assert.Equal(t, 89, v.Timer.TimeLeft)
	require.NotNil(t, v.Result)
	assert.True(t, v.Result.Correct)
	require.NotNil(t, v.Revealed)
	assert.Equal(t, "kangoeroe", v.Revealed.Word)

	// 下一轮从 judged 重新开始
	require.NoError(t, d.Apply(event(protocol.EventWordSelected, `{"word":"fiets","availableInfo":[]}`)))
	v = d.View()
	assert.Equal(t, StateWordReady, v.State)
	assert.Nil(t, v.Result)
	assert.Nil(t, v.Revealed)
	assert.Equal(t, 90, v.Timer.TimeLeft)
	assert.Empty(t, v.AvailableInfo)
}

func TestDisplay_JudgeDecisionLegacyField(t *testing.T) {
	d := newDisplay(newClock())
	require.NoError(t, d.Apply(event(protocol.EventJudgeDecision,
		`{"correct":false,"correctSpelling":"bibliotheek","typedSpelling":"bibliotek"}`)))

	v := d.View()
	assert.Equal(t, StatusIncorrect, v.Status)
	require.NotNil(t, v.Revealed)
	assert.Equal(t, "bibliotheek", v.Revealed.Word)
	assert.Equal(t, "bibliotek", v.Revealed.TypedSpelling)
}

func TestDisplay_WordRevealed(t *testing.T) {
	d := newDisplay(newClock())
	require.NoError(t, d.Apply(event(protocol.EventJudgeDecision, `{"correct":false,"word":"bibliotheek"}`)))
	require.NoError(t, d.Apply(event(protocol.EventWordRevealed, `{"word":"bibliotheek","typedSpelling":"biblioteek"}`)))

	v := d.View()
	assert.Equal(t, StateJudged, v.State)
	require.NotNil(t, v.Revealed)
	assert.False(t, v.Revealed.Correct)
	assert.Equal(t, "biblioteek", v.Revealed.TypedSpelling)
}

func TestDisplay_TimeExpired(t *testing.T) {
	d := newDisplay(newClock())
	require.NoError(t, d.Apply(event(protocol.EventTimerStart, `{"duration":3}`)))

	d.Tick()
	d.Tick()
	v := d.Tick()
	assert.Equal(t, StatusTimeExpired, v.Status)
	assert.Equal(t, 0, v.Timer.TimeLeft)
	assert.False(t, v.Timer.Active)
	assert.Equal(t, timer.PhaseRed, v.Timer.Phase)
	// 倒计时结束不改变状态机
	assert.Equal(t, StateSpelling, v.State)

	v = d.Tick()
	assert.Equal(t, 0, v.Timer.TimeLeft)
}

func TestDisplay_PhaseTurnsRedAtTick60(t *testing.T) {
	d := newDisplay(newClock())
	require.NoError(t, d.Apply(event(protocol.EventTimerStart, `{"duration":90}`)))

	firstRed := 0
	for tick := 1; tick <= 61; tick++ {
		v := d.Tick()
		if v.Timer.Phase == timer.PhaseRed && firstRed == 0 {
			firstRed = tick
			assert.Equal(t, 30, v.Timer.TimeLeft)
		}
	}
	assert.Equal(t, 60, firstRed)
}

func TestDisplay_SideMessageExpires(t *testing.T) {
	clock := newClock()
	d := newDisplay(clock)

	require.NoError(t, d.Apply(event(protocol.EventInfoProvided,
		`{"type":"definition","content":"buideldier uit Australië"}`)))
	v := d.View()
	require.NotNil(t, v.Side)
	assert.Equal(t, "definition", v.Side.Kind)
	assert.Equal(t, "buideldier uit Australië", v.Side.Content)
	assert.Equal(t, StateIdle, v.State)

	clock.advance(4 * time.Second)
	assert.NotNil(t, d.View().Side)

	clock.advance(time.Second)
	assert.Nil(t, d.View().Side)

	require.NoError(t, d.Apply(event(protocol.EventRequestInfo, `{"type":"sentence"}`)))
	v = d.View()
	require.NotNil(t, v.Side)
	assert.Equal(t, protocol.EventRequestInfo, v.Side.Event)
	assert.Equal(t, "sentence", v.Side.Kind)
}

func TestDisplay_Rejects(t *testing.T) {
	d := newDisplay(newClock())

	err := d.Apply(event(protocol.EventTimerStart, `{"duration":"soon"}`))
	assert.ErrorIs(t, err, apperrors.ErrInvalidMessage)

	err = d.Apply(event(protocol.MsgJoinRoom, `{}`))
	assert.ErrorIs(t, err, apperrors.ErrUnknownEvent)

	assert.Equal(t, StateIdle, d.View().State)
}

func TestDisplay_ResetWhileIdleStaysIdle(t *testing.T) {
	d := newDisplay(newClock())
	require.NoError(t, d.Apply(event(protocol.EventTimerReset, `{}`)))

	v := d.View()
	assert.Equal(t, StateIdle, v.State)
	assert.Equal(t, StatusTimerReset, v.Status)
}
