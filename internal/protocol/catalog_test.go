package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	f, err := ParseFields([]byte(body))
	require.NoError(t, err)
	return f
}

func TestIsRelayEvent(t *testing.T) {
	t.Parallel()

	for _, name := range Events() {
		assert.True(t, IsRelayEvent(name), name)
	}
	assert.False(t, IsRelayEvent(MsgJoinRoom))
	assert.False(t, IsRelayEvent("word-deleted"))
	assert.Len(t, Events(), len(catalog))
}

func TestExtractPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   MessageType
		body    string
		want    string
		wantErr string
	}{
		{
			name:  "word selected drops room code and extras",
			event: EventWordSelected,
			body:  `{"roomCode":"4821","word":"kangoeroe","availableInfo":["definition","sentence"],"extra":1}`,
			want:  `{"word":"kangoeroe","availableInfo":["definition","sentence"]}`,
		},
		{
			name:  "word selected with empty availability",
			event: EventWordSelected,
			body:  `{"word":"fiets","availableInfo":[]}`,
			want:  `{"word":"fiets","availableInfo":[]}`,
		},
		{
			name:    "word selected missing word",
			event:   EventWordSelected,
			body:    `{"availableInfo":[]}`,
			wantErr: "word: is required",
		},
		{
			name:    "word selected missing availability",
			event:   EventWordSelected,
			body:    `{"word":"fiets"}`,
			wantErr: "availableInfo: is required",
		},
		{
			name:  "timer start",
			event: EventTimerStart,
			body:  `{"duration":90}`,
			want:  `{"duration":90}`,
		},
		{
			name:    "timer start zero duration",
			event:   EventTimerStart,
			body:    `{"duration":0}`,
			wantErr: "duration: must be a positive whole number of seconds",
		},
		{
			name:    "timer start string duration",
			event:   EventTimerStart,
			body:    `{"duration":"90"}`,
			wantErr: "duration: must be a number",
		},
		{
			name:    "timer start fractional literal duration",
			event:   EventTimerStart,
			body:    `{"duration":90.0}`,
			wantErr: "duration: must be a positive whole number of seconds",
		},
		{
			name:    "timer start exponent literal duration",
			event:   EventTimerStart,
			body:    `{"duration":1e2}`,
			wantErr: "duration: must be a positive whole number of seconds",
		},
		{
			name:    "timer start huge exponent duration",
			event:   EventTimerStart,
			body:    `{"duration":1e300}`,
			wantErr: "duration: must be a positive whole number of seconds",
		},
		{
			name:    "timer start negative duration",
			event:   EventTimerStart,
			body:    `{"duration":-5}`,
			wantErr: "duration: must be a positive whole number of seconds",
		},
		{
			name:    "timer start over an hour duration",
			event:   EventTimerStart,
			body:    `{"duration":3601}`,
			wantErr: "duration: must be a positive whole number of seconds",
		},
		{
			name:  "timer start one hour",
			event: EventTimerStart,
			body:  `{"duration":3600}`,
			want:  `{"duration":3600}`,
		},
		{
			name:  "timer reset takes nothing",
			event: EventTimerReset,
			body:  `{"roomCode":"4821"}`,
			want:  `{}`,
		},
		{
			name:  "judge decision with legacy spelling",
			event: EventJudgeDecision,
			body:  `{"correct":false,"correctSpelling":"bibliotheek"}`,
			want:  `{"correct":false,"correctSpelling":"bibliotheek"}`,
		},
		{
			name:    "judge decision correct must be boolean",
			event:   EventJudgeDecision,
			body:    `{"correct":"yes","word":"bibliotheek"}`,
			wantErr: "correct: must be a boolean",
		},
		{
			name:    "judge decision missing correct",
			event:   EventJudgeDecision,
			body:    `{"word":"bibliotheek"}`,
			wantErr: "correct: is required",
		},
		{
			name:  "word revealed allows empty typed spelling",
			event: EventWordRevealed,
			body:  `{"word":"bibliotheek","typedSpelling":""}`,
			want:  `{"word":"bibliotheek","typedSpelling":""}`,
		},
		{
			name:    "word revealed missing typed spelling",
			event:   EventWordRevealed,
			body:    `{"word":"bibliotheek"}`,
			wantErr: "typedSpelling: is required",
		},
		{
			name:    "info provided missing content",
			event:   EventInfoProvided,
			body:    `{"type":"definition"}`,
			wantErr: "content: is required",
		},
		{
			name:  "request info",
			event: EventRequestInfo,
			body:  `{"type":"sentence"}`,
			want:  `{"type":"sentence"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractPayload(tt.event, fields(t, tt.body))
			if tt.wantErr != "" {
				var fe *FieldError
				require.ErrorAs(t, err, &fe)
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestExtractPayload_UnknownEvent(t *testing.T) {
	t.Parallel()

	_, err := ExtractPayload("word-deleted", map[string]json.RawMessage{})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestExtractPayload_ValuesUnchanged(t *testing.T) {
	t.Parallel()

	// String contents are forwarded as sent
	got, err := ExtractPayload(EventInfoProvided, fields(t, `{"type":"definition","content":"Een buideldier én springer"}`))
	require.NoError(t, err)
	assert.Contains(t, string(got), `"Een buideldier én springer"`)
}

func TestParseFields_NotObject(t *testing.T) {
	t.Parallel()

	_, err := ParseFields([]byte(`[1,2]`))
	var fe *FieldError
	assert.ErrorAs(t, err, &fe)

	f, err := ParseFields(nil)
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	ev, err := NewEvent(EventJudgeDecision, "4821", JudgeDecisionPayload{Correct: false, Word: "bibliotheek"})
	require.NoError(t, err)
	assert.Equal(t, "4821", ev.Room)

	p, err := DecodePayload[JudgeDecisionPayload](ev)
	require.NoError(t, err)
	assert.False(t, p.Correct)
	assert.Equal(t, "bibliotheek", p.Spelling())
	assert.Nil(t, p.TypedSpelling)

	_, err = NewEvent(EventTimerStart, "4821", TimerStartPayload{})
	assert.Error(t, err)
}

func TestEventMessageRoundTrip(t *testing.T) {
	t.Parallel()

	ev := Event{Name: EventTimerStart, Room: "4821", Payload: json.RawMessage(`{"duration":90}`)}
	msg := ev.ToMessage()
	assert.Equal(t, "4821", msg.RoomCode)

	back, ok := EventFromMessage(msg)
	require.True(t, ok)
	assert.Equal(t, ev, back)

	_, ok = EventFromMessage(&Message{Type: MsgJoinRoom})
	assert.False(t, ok)
	_, ok = EventFromMessage(nil)
	assert.False(t, ok)
}

func TestJudgeDecisionSpelling(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a", JudgeDecisionPayload{Word: "a", CorrectSpelling: "b"}.Spelling())
	assert.Equal(t, "b", JudgeDecisionPayload{CorrectSpelling: "b"}.Spelling())
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleJudge, RoleDisplay, RoleAudience} {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("Judge"))
}

func TestExtractPayload_DurationDecodesAsInt(t *testing.T) {
	payload, err := ValidatePayload(EventTimerStart, json.RawMessage(`{"duration":90}`))
	require.NoError(t, err)
	p, err := DecodePayload[TimerStartPayload](Event{Name: EventTimerStart, Payload: payload})
	require.NoError(t, err)
	assert.Equal(t, 90, p.Duration)

	// 客户端无法解码为 int 的字面量必须在转发前拒绝
	for _, body := range []string{`{"duration":90.0}`, `{"duration":1e2}`, `{"duration":1e300}`} {
		_, err := ValidatePayload(EventTimerStart, json.RawMessage(body))
		var fe *FieldError
		require.ErrorAs(t, err, &fe, body)
		assert.Equal(t, "duration", fe.Field)
	}
}
