package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/session"
	"github.com/palemoky/spelling-bee/internal/timer"
	"github.com/palemoky/spelling-bee/internal/words"
)

func TestMaskWord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want string
	}{
		{"", ""},
		{"fiets", "_ _ _ _ _"},
		{"één", "_ _ _"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskWord(tt.word), tt.word)
	}
}

func TestCountdown(t *testing.T) {
	t.Parallel()

	assert.Contains(t, Countdown(timer.State{TimeLeft: 90, Phase: timer.PhaseGreen}), "1:30")
	assert.Contains(t, Countdown(timer.State{TimeLeft: 5, Phase: timer.PhaseRed, Active: true}), "0:05")
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		view    session.View
		want    []string
		notWant []string
	}{
		{
			name: "waiting",
			view: session.View{State: session.StateIdle, Status: session.StatusWaiting},
			want: []string{session.StatusWaiting, "4821"},
		},
		{
			name: "word hidden while spelling",
			view: session.View{
				State:  session.StateSpelling,
				Status: session.StatusSpelling,
				Word:   "fiets",
				Timer:  timer.State{TimeLeft: 42, Phase: timer.PhaseYellow, Active: true},
			},
			want:    []string{"_ _ _ _ _", "0:42"},
			notWant: []string{"fiets"},
		},
		{
			name: "revealed with typed spelling",
			view: session.View{
				State:    session.StateJudged,
				Word:     "bibliotheek",
				Revealed: &session.Verdict{Word: "bibliotheek", TypedSpelling: "bibleotheek"},
			},
			want: []string{"bibliotheek", "Typed: bibleotheek"},
		},
		{
			name: "judged incorrect",
			view: session.View{
				State:    session.StateJudged,
				Status:   session.StatusIncorrect,
				Word:     "fiets",
				Result:   &session.Verdict{Word: "fiets"},
				Revealed: &session.Verdict{Word: "fiets"},
			},
			want: []string{"fiets", session.StatusIncorrect},
		},
		{
			name: "info side message",
			view: session.View{
				Side: &session.SideMessage{
					Event:     protocol.EventInfoProvided,
					Kind:      "definition",
					Content:   "Een fiets heeft twee wielen.",
					ExpiresAt: time.Now().Add(time.Second),
				},
			},
			want: []string{"Definition", "Een fiets heeft twee wielen."},
		},
		{
			name: "request side message",
			view: session.View{
				Side: &session.SideMessage{Event: protocol.EventRequestInfo, Kind: "sentence"},
			},
			want: []string{"Requested: sentence"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := Display(tt.view, Header{Room: "4821", Role: protocol.RoleDisplay, Width: 80}, "")
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestJudge(t *testing.T) {
	t.Parallel()

	sel := words.Select(words.Word{
		Word:       "bibliotheek",
		Definition: "Een plek waar je boeken leent.",
		Difficulty: words.Hard,
	})
	out := Judge(JudgeData{
		View: session.JudgeView{
			State:     session.StateWordReady,
			Selection: &sel,
			Request:   &session.SideMessage{Kind: "definition"},
		},
		Timer: timer.State{TimeLeft: 90, Phase: timer.PhaseGreen},
		Level: words.Hard,
	}, Header{Room: "4821", Role: protocol.RoleJudge, Width: 80, Notice: "relay down", NoticeErr: true})

	assert.Contains(t, out, "bibliotheek")
	assert.Contains(t, out, "Een plek waar je boeken leent.")
	assert.NotContains(t, out, "Sentence:")
	assert.Contains(t, out, "Level: Hard (4)")
	assert.Contains(t, out, "Audience requests: definition")
	assert.Contains(t, out, "relay down")
	assert.Contains(t, out, session.StatusWordSelected)
	assert.Contains(t, out, "Spelling Bee · Room 4821")
}
