package protocol

// Error codes carried in error payloads
const (
	ErrCodeUnknown         = 1000
	ErrCodeInvalidMsg      = 1001
	ErrCodeMissingField    = 1002
	ErrCodeUnknownEvent    = 1003
	ErrCodeRoomNotFound    = 2001
	ErrCodeInvalidRoomCode = 2002
	ErrCodeNotInRoom       = 2003
	ErrCodeWordNotFound    = 3001
	ErrCodeDuplicateWord   = 3002
	ErrCodeNoWordSelected  = 3003
	ErrCodeTimerState      = 3004
	ErrCodeRelayFailed     = 5001
	ErrCodeMaintenance     = 5002
	ErrCodeRateLimit       = 5003
)

// ErrorMessages maps codes to default text.
var ErrorMessages = map[int]string{
	ErrCodeUnknown:         "unknown error",
	ErrCodeInvalidMsg:      "invalid message format",
	ErrCodeMissingField:    "missing required fields",
	ErrCodeUnknownEvent:    "unknown event",
	ErrCodeRoomNotFound:    "room not found",
	ErrCodeInvalidRoomCode: "room code must be 4 digits",
	ErrCodeNotInRoom:       "not in a room",
	ErrCodeWordNotFound:    "word not found",
	ErrCodeDuplicateWord:   "word already exists",
	ErrCodeNoWordSelected:  "no word selected",
	ErrCodeTimerState:      "timer is not in the required state",
	ErrCodeRelayFailed:     "failed to trigger event",
	ErrCodeMaintenance:     "server is shutting down",
	ErrCodeRateLimit:       "too many messages, slow down",
}

// FieldError reports a missing or malformed field in an inbound payload.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
