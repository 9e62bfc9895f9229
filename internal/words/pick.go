package words

import "math/rand/v2"

// Info kinds a judge can reveal on request.
const (
	InfoDefinition = "definition"
	InfoSentence   = "sentence"
)

// FilterByDifficulty returns the words at level, preserving order.
func FilterByDifficulty(words []Word, level Difficulty) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Difficulty == level {
			out = append(out, w)
		}
	}
	return out
}

// PickRandom chooses uniformly among the words at level. It reports false
// when no word matches.
func PickRandom(rng *rand.Rand, words []Word, level Difficulty) (Word, bool) {
	filtered := FilterByDifficulty(words, level)
	if len(filtered) == 0 {
		return Word{}, false
	}
	return filtered[rng.IntN(len(filtered))], true
}

// AvailableInfoKinds lists the optional fields of w that are non-empty,
// definition first.
func AvailableInfoKinds(w Word) []string {
	available := make([]string, 0, 2)
	if w.Definition != "" {
		available = append(available, InfoDefinition)
	}
	if w.Sentence != "" {
		available = append(available, InfoSentence)
	}
	return available
}

// Selection is a word as it was when the judge picked it. Later edits to
// the bank do not change it.
type Selection struct {
	Word          Word     `json:"word"`
	AvailableInfo []string `json:"availableInfo"`
}

// Select snapshots w and its available info kinds.
func Select(w Word) Selection {
	return Selection{Word: w, AvailableInfo: AvailableInfoKinds(w)}
}

// Info returns the content for kind if it was available at selection time.
func (s Selection) Info(kind string) (string, bool) {
	for _, k := range s.AvailableInfo {
		if k != kind {
			continue
		}
		switch kind {
		case InfoDefinition:
			return s.Word.Definition, true
		case InfoSentence:
			return s.Word.Sentence, true
		}
	}
	return "", false
}
