// Package words holds the word bank: the Word model, difficulty filtering,
// random selection and the file and SQL backed stores.
package words

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/palemoky/spelling-bee/internal/apperrors"
)

// Difficulty is a level from 1 (very easy) to 5 (very hard).
type Difficulty int

const (
	VeryEasy Difficulty = iota + 1
	Easy
	Medium
	Hard
	VeryHard
)

var difficultyNames = map[Difficulty]string{
	VeryEasy: "VERY_EASY",
	Easy:     "EASY",
	Medium:   "MEDIUM",
	Hard:     "HARD",
	VeryHard: "VERY_HARD",
}

var difficultyLabels = map[Difficulty]string{
	VeryEasy: "Very Easy",
	Easy:     "Easy",
	Medium:   "Medium",
	Hard:     "Hard",
	VeryHard: "Very Hard",
}

// Difficulties lists every valid level in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{VeryEasy, Easy, Medium, Hard, VeryHard}
}

// Valid reports whether d is within 1..5.
func (d Difficulty) Valid() bool {
	return d >= VeryEasy && d <= VeryHard
}

// String returns the enum name, e.g. VERY_EASY.
func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return strconv.Itoa(int(d))
}

// Label returns a human readable name, e.g. "Very Easy".
func (d Difficulty) Label() string {
	if label, ok := difficultyLabels[d]; ok {
		return label
	}
	return d.String()
}

// ParseDifficulty accepts a level number or an enum name.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		d := Difficulty(n)
		if !d.Valid() {
			return 0, fmt.Errorf("difficulty %d out of range 1-5", n)
		}
		return d, nil
	}
	upper := strings.ToUpper(s)
	for d, name := range difficultyNames {
		if name == upper {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

// UnmarshalJSON accepts 3, "3" and "MEDIUM". Range checks happen in
// Word.Validate so a bad level reports as a validation error.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Difficulty(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("difficulty must be a number or a level name")
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		*d = Difficulty(n)
		return nil
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := ParseDifficulty(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Word is a word bank entry. The word text is unique case-insensitively.
type Word struct {
	ID         int        `json:"id"`
	Word       string     `json:"word"`
	Sentence   string     `json:"sentence"`
	Definition string     `json:"definition"`
	Difficulty Difficulty `json:"difficulty"`
}

// Key is the case-folded word text used for uniqueness checks.
func (w Word) Key() string {
	return strings.ToLower(strings.TrimSpace(w.Word))
}

// Validate checks the fields required by the word bank.
func (w Word) Validate() error {
	if strings.TrimSpace(w.Word) == "" ||
		strings.TrimSpace(w.Sentence) == "" ||
		strings.TrimSpace(w.Definition) == "" ||
		w.Difficulty == 0 {
		return apperrors.ErrMissingField
	}
	if !w.Difficulty.Valid() {
		return apperrors.ErrInvalidMessage.WithMessage("difficulty must be between 1 and 5")
	}
	return nil
}
