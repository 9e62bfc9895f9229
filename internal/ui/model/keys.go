package model

import (
	"github.com/charmbracelet/bubbles/key"
)

// judgeKeys 裁判快捷键
type judgeKeys struct {
	Level      key.Binding
	NewWord    key.Binding
	Start      key.Binding
	Reset      key.Binding
	Correct    key.Binding
	Incorrect  key.Binding
	Reveal     key.Binding
	Definition key.Binding
	Sentence   key.Binding
	Type       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newJudgeKeys() judgeKeys {
	return judgeKeys{
		Level:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "level")),
		NewWord:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new word")),
		Start:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start timer")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset timer")),
		Correct:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "correct")),
		Incorrect:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "incorrect")),
		Reveal:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "reveal")),
		Definition: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "send definition")),
		Sentence:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "send sentence")),
		Type:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "type spelling")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k judgeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NewWord, k.Start, k.Correct, k.Incorrect, k.Help, k.Quit}
}

func (k judgeKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Level, k.NewWord, k.Start, k.Reset},
		{k.Correct, k.Incorrect, k.Reveal, k.Type},
		{k.Definition, k.Sentence, k.Help, k.Quit},
	}
}

// displayKeys 显示端快捷键。观众可以请求提示
type displayKeys struct {
	Definition key.Binding
	Sentence   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newDisplayKeys(canRequest bool) displayKeys {
	k := displayKeys{
		Definition: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "ask definition")),
		Sentence:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "ask sentence")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
	if !canRequest {
		k.Definition.SetEnabled(false)
		k.Sentence.SetEnabled(false)
	}
	return k
}

func (k displayKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Definition, k.Sentence, k.Quit}
}

func (k displayKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Definition, k.Sentence}, {k.Help, k.Quit}}
}
