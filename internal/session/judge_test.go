package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/testutil"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/words"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, code string, ev protocol.Event, senderID string) relay.Result {
	args := m.Called(ctx, code, ev, senderID)
	return args.Get(0).(relay.Result)
}

type staticSource struct {
	words []words.Word
	err   error
}

func (s staticSource) Random(_ context.Context, level words.Difficulty) (words.Word, bool, error) {
	if s.err != nil {
		return words.Word{}, false, s.err
	}
	filtered := words.FilterByDifficulty(s.words, level)
	if len(filtered) == 0 {
		return words.Word{}, false, nil
	}
	return filtered[0], true, nil
}

var (
	kangoeroe = words.Word{
		ID:         1,
		Word:       "kangoeroe",
		Sentence:   "De kangoeroe springt weg.",
		Definition: "Een buideldier uit Australië.",
		Difficulty: words.Medium,
	}
	bibliotheek = words.Word{
		ID:         2,
		Word:       "bibliotheek",
		Definition: "Plek waar je boeken leent.",
		Difficulty: words.Hard,
	}
)

func bank() staticSource {
	return staticSource{words: []words.Word{kangoeroe, bibliotheek}}
}

type roomFixture struct {
	relay   *relay.Broadcast
	judge   *Judge
	judgeM  *testutil.RecordingMember
	display *testutil.RecordingMember
}

func newRoom(t *testing.T) *roomFixture {
	t.Helper()
	b := relay.NewBroadcast(room.NewRegistry(zap.NewNop()), zap.NewNop())
	f := &roomFixture{
		relay:   b,
		judgeM:  testutil.NewMember("j", protocol.RoleJudge),
		display: testutil.NewMember("d", protocol.RoleDisplay),
	}
	ctx := context.Background()
	require.NoError(t, b.Join(ctx, "4821", f.judgeM))
	require.NoError(t, b.Join(ctx, "4821", f.display))
	f.judge = NewJudge(b, bank(), timer.DefaultConfig(), "4821", "j", zap.NewNop())
	return f
}

// feed applies everything m received to d.
func feed(t *testing.T, d *Display, m *testutil.RecordingMember) {
	t.Helper()
	for _, ev := range m.Events() {
		require.NoError(t, d.Apply(ev))
	}
}

func TestJudge_KangoeroeScenario(t *testing.T) {
	f := newRoom(t)
	ctx := context.Background()

	sel, ok, res := f.judge.SelectWord(ctx, words.Medium)
	require.NoError(t, res.Err)
	require.True(t, ok)
	assert.Equal(t, "kangoeroe", sel.Word.Word)
	assert.Equal(t, []string{words.InfoDefinition, words.InfoSentence}, sel.AvailableInfo)
	assert.Equal(t, 1, res.Delivered)

	d := newDisplay(newClock())
	feed(t, d, f.display)
	v := d.View()
	assert.Equal(t, StateWordReady, v.State)
	assert.Equal(t, "kangoeroe", v.Word)
	assert.Equal(t, []string{"definition", "sentence"}, v.AvailableInfo)

	assert.Empty(t, f.judgeM.Events())
	assert.Equal(t, StateWordReady, f.judge.View().State)
}

func TestJudge_BibliotheekWithLateDisplay(t *testing.T) {
	f := newRoom(t)
	ctx := context.Background()

	_, ok, res := f.judge.SelectWord(ctx, words.Hard)
	require.True(t, ok)
	require.NoError(t, res.Err)
	require.NoError(t, f.judge.StartTimer(ctx).Err)
	require.NoError(t, f.judge.Decide(ctx, false, "").Err)

	d := newDisplay(newClock())
	feed(t, d, f.display)
	v := d.View()
	assert.Equal(t, StateJudged, v.State)
	assert.Equal(t, StatusIncorrect, v.Status)
	require.NotNil(t, v.Revealed)
	assert.Equal(t, "bibliotheek", v.Revealed.Word)

	late := testutil.NewMember("late", protocol.RoleDisplay)
	require.NoError(t, f.relay.Join(ctx, "4821", late))
	lateDisplay := newDisplay(newClock())
	feed(t, lateDisplay, late)
	assert.Equal(t, StateIdle, lateDisplay.View().State)
	assert.Empty(t, lateDisplay.View().Word)

	require.NoError(t, f.judge.Reveal(ctx, "bibliotek").Err)
	feed(t, lateDisplay, late)
	v = lateDisplay.View()
	assert.Equal(t, StateJudged, v.State)
	require.NotNil(t, v.Revealed)
	assert.Equal(t, "bibliotek", v.Revealed.TypedSpelling)
}

func TestJudge_NoWordAtLevel(t *testing.T) {
	pub := new(mockPublisher)
	j := NewJudge(pub, bank(), timer.DefaultConfig(), "4821", "j", zap.NewNop())

	_, ok, res := j.SelectWord(context.Background(), words.VeryHard)
	assert.False(t, ok)
	assert.NoError(t, res.Err)
	assert.Equal(t, StateIdle, j.View().State)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestJudge_SourceError(t *testing.T) {
	boom := errors.New("disk gone")
	j := NewJudge(new(mockPublisher), staticSource{err: boom}, timer.DefaultConfig(), "4821", "j", zap.NewNop())

	_, ok, res := j.SelectWord(context.Background(), words.Easy)
	assert.False(t, ok)
	assert.ErrorIs(t, res.Err, boom)
}

func TestJudge_Preconditions(t *testing.T) {
	pub := new(mockPublisher)
	j := NewJudge(pub, bank(), timer.DefaultConfig(), "4821", "j", zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, j.StartTimer(ctx).Err, apperrors.ErrNoWordSelected)
	assert.ErrorIs(t, j.Decide(ctx, true, "").Err, apperrors.ErrNoWordSelected)
	assert.ErrorIs(t, j.Reveal(ctx, "x").Err, apperrors.ErrNoWordSelected)
	assert.ErrorIs(t, j.ProvideInfo(ctx, words.InfoDefinition).Err, apperrors.ErrNoWordSelected)

	pub.On("Publish", mock.Anything, "4821", mock.Anything, "j").Return(relay.Result{Delivered: 1})
	_, ok, res := j.SelectWord(ctx, words.Hard)
	require.True(t, ok)
	require.NoError(t, res.Err)

	assert.ErrorIs(t, j.ProvideInfo(ctx, words.InfoSentence).Err, apperrors.ErrInvalidMessage)

	require.NoError(t, j.StartTimer(ctx).Err)
	assert.ErrorIs(t, j.StartTimer(ctx).Err, apperrors.ErrTimerState)
}

func TestJudge_RollbackOnPublishFailure(t *testing.T) {
	pub := new(mockPublisher)
	j := NewJudge(pub, bank(), timer.DefaultConfig(), "4821", "j", zap.NewNop())
	ctx := context.Background()

	pub.On("Publish", mock.Anything, "4821", mock.MatchedBy(func(ev protocol.Event) bool {
		return ev.Name == protocol.EventWordSelected
	}), "j").Return(relay.Result{Delivered: 1}).Once()
	_, ok, res := j.SelectWord(ctx, words.Medium)
	require.True(t, ok)
	require.NoError(t, res.Err)

	failed := relay.Result{Err: apperrors.ErrRelayFailed}
	pub.On("Publish", mock.Anything, "4821", mock.Anything, "j").Return(failed)

	res = j.StartTimer(ctx)
	assert.ErrorIs(t, res.Err, apperrors.ErrRelayFailed)
	v := j.View()
	assert.False(t, v.TimerActive)
	assert.Equal(t, StateWordReady, v.State)

	res = j.Decide(ctx, true, "kangoeroe")
	assert.ErrorIs(t, res.Err, apperrors.ErrRelayFailed)
	v = j.View()
	assert.Nil(t, v.Result)
	assert.Equal(t, StateWordReady, v.State)

	_, ok, res = j.SelectWord(ctx, words.Hard)
	assert.False(t, ok)
	assert.ErrorIs(t, res.Err, apperrors.ErrRelayFailed)
	require.NotNil(t, j.View().Selection)
	assert.Equal(t, "kangoeroe", j.View().Selection.Word.Word)
}

func TestJudge_PublishedPayloads(t *testing.T) {
	pub := new(mockPublisher)
	j := NewJudge(pub, bank(), timer.Config{TotalTime: 60, YellowPhaseStart: 40, RedPhaseStart: 20}, "4821", "j", zap.NewNop())
	ctx := context.Background()

	var sent []protocol.Event
	pub.On("Publish", mock.Anything, "4821", mock.Anything, "j").
		Run(func(args mock.Arguments) { sent = append(sent, args.Get(2).(protocol.Event)) }).
		Return(relay.Result{Delivered: 2})

	_, _, res := j.SelectWord(ctx, words.Medium)
	require.NoError(t, res.Err)
	require.NoError(t, j.StartTimer(ctx).Err)
	require.NoError(t, j.ProvideInfo(ctx, words.InfoSentence).Err)
	require.NoError(t, j.ResetTimer(ctx).Err)
	require.NoError(t, j.Decide(ctx, true, "kangoeroe").Err)

	require.Len(t, sent, 5)
	start, err := protocol.DecodePayload[protocol.TimerStartPayload](sent[1])
	require.NoError(t, err)
	assert.Equal(t, 60, start.Duration)

	info, err := protocol.DecodePayload[protocol.InfoProvidedPayload](sent[2])
	require.NoError(t, err)
	assert.Equal(t, "De kangoeroe springt weg.", info.Content)

	assert.Equal(t, protocol.EventTimerReset, sent[3].Name)

	decision, err := protocol.DecodePayload[protocol.JudgeDecisionPayload](sent[4])
	require.NoError(t, err)
	assert.True(t, decision.Correct)
	assert.Equal(t, "kangoeroe", decision.Word)
	require.NotNil(t, decision.TypedSpelling)
	assert.Equal(t, "kangoeroe", *decision.TypedSpelling)
}

func TestJudge_RequestInfo(t *testing.T) {
	clock := newClock()
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, "4821", mock.Anything, "j").Return(relay.Result{Delivered: 1})
	j := NewJudge(pub, bank(), timer.DefaultConfig(), "4821", "j", zap.NewNop(), WithClock(clock.now))
	ctx := context.Background()

	require.NoError(t, j.Apply(event(protocol.EventTimerStart, `{"duration":90}`)))
	assert.Nil(t, j.View().Request)

	require.NoError(t, j.Apply(event(protocol.EventRequestInfo, `{"type":"definition"}`)))
	require.NotNil(t, j.View().Request)
	assert.Equal(t, "definition", j.View().Request.Kind)

	_, _, res := j.SelectWord(ctx, words.Medium)
	require.NoError(t, res.Err)
	require.NoError(t, j.ProvideInfo(ctx, words.InfoDefinition).Err)
	assert.Nil(t, j.View().Request)

	require.NoError(t, j.Apply(event(protocol.EventRequestInfo, `{"type":"sentence"}`)))
	clock.advance(SideMessageTTL)
	assert.Nil(t, j.View().Request)
}
