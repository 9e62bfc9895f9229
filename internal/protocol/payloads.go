package protocol

// --- Relay event payloads ---

// WordSelectedPayload announces the word the judge picked.
type WordSelectedPayload struct {
	Word          string   `json:"word"`
	AvailableInfo []string `json:"availableInfo"`
}

// TimerStartPayload starts every client's local countdown.
type TimerStartPayload struct {
	Duration int `json:"duration"` // seconds
}

// TimerResetPayload has no fields.
type TimerResetPayload struct{}

// JudgeDecisionPayload carries the verdict. Older clients send the word as
// correctSpelling instead of word.
type JudgeDecisionPayload struct {
	Correct         bool    `json:"correct"`
	Word            string  `json:"word,omitempty"`
	CorrectSpelling string  `json:"correctSpelling,omitempty"`
	TypedSpelling   *string `json:"typedSpelling,omitempty"`
}

// Spelling returns whichever of word / correctSpelling is set.
func (p JudgeDecisionPayload) Spelling() string {
	if p.Word != "" {
		return p.Word
	}
	return p.CorrectSpelling
}

// WordRevealedPayload reveals the word next to what the speller typed.
type WordRevealedPayload struct {
	Word          string `json:"word"`
	TypedSpelling string `json:"typedSpelling"`
}

// InfoProvidedPayload carries a definition or sentence to the audience.
type InfoProvidedPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// RequestInfoPayload asks the judge for a piece of information.
type RequestInfoPayload struct {
	Type string `json:"type"`
}

// --- Control payloads ---

// ConnectedPayload is sent once per websocket connection.
type ConnectedPayload struct {
	MemberID string `json:"memberId"`
}

// ErrorPayload is sent back to the offending client only.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
