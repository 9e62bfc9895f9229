package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrUnknownEvent is returned for names outside the relay catalog.
var ErrUnknownEvent = errors.New("unknown event")

// MaxDurationSeconds caps timer-start durations.
const MaxDurationSeconds = 60 * 60

type fieldKind int

const (
	kindString fieldKind = iota
	kindStrings
	kindBool
	kindSeconds
)

type fieldDef struct {
	name       string
	kind       fieldKind
	required   bool
	allowEmpty bool
}

// catalog lists the fields forwarded for each relay event. Fields not listed
// here are dropped from the payload before fan-out.
var catalog = map[MessageType][]fieldDef{
	EventWordSelected: {
		{name: "word", kind: kindString, required: true},
		{name: "availableInfo", kind: kindStrings, required: true, allowEmpty: true},
	},
	EventTimerStart: {
		{name: "duration", kind: kindSeconds, required: true},
	},
	EventTimerReset: {},
	EventJudgeDecision: {
		{name: "correct", kind: kindBool, required: true},
		{name: "word", kind: kindString, allowEmpty: true},
		{name: "correctSpelling", kind: kindString, allowEmpty: true},
		{name: "typedSpelling", kind: kindString, allowEmpty: true},
	},
	EventWordRevealed: {
		{name: "word", kind: kindString, required: true},
		{name: "typedSpelling", kind: kindString, required: true, allowEmpty: true},
	},
	EventInfoProvided: {
		{name: "type", kind: kindString, required: true},
		{name: "content", kind: kindString, required: true},
	},
	EventRequestInfo: {
		{name: "type", kind: kindString, required: true},
	},
}

// Events returns the relay catalog in a stable order.
func Events() []MessageType {
	return []MessageType{
		EventWordSelected,
		EventTimerStart,
		EventTimerReset,
		EventJudgeDecision,
		EventWordRevealed,
		EventInfoProvided,
		EventRequestInfo,
	}
}

// IsRelayEvent reports whether t belongs to the relay catalog.
func IsRelayEvent(t MessageType) bool {
	_, ok := catalog[t]
	return ok
}

// ParseFields decodes a JSON object into its top-level fields.
func ParseFields(data []byte) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(data)) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &FieldError{Message: "body must be a JSON object"}
	}
	return fields, nil
}

// ExtractPayload validates fields against the catalog entry for name and
// returns the payload to forward. Field values are copied byte for byte.
func ExtractPayload(name MessageType, fields map[string]json.RawMessage) (json.RawMessage, error) {
	defs, ok := catalog[name]
	if !ok {
		return nil, ErrUnknownEvent
	}

	out := make(map[string]json.RawMessage, len(defs))
	for _, def := range defs {
		raw, present := fields[def.name]
		if !present || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if def.required {
				return nil, &FieldError{Field: def.name, Message: "is required"}
			}
			continue
		}
		if err := checkField(def, raw); err != nil {
			return nil, err
		}
		out[def.name] = raw
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ValidatePayload checks an already extracted payload, for example one read
// off the websocket.
func ValidatePayload(name MessageType, payload json.RawMessage) (json.RawMessage, error) {
	fields, err := ParseFields(payload)
	if err != nil {
		return nil, err
	}
	return ExtractPayload(name, fields)
}

func checkField(def fieldDef, raw json.RawMessage) error {
	switch def.kind {
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return &FieldError{Field: def.name, Message: "must be a string"}
		}
		if s == "" && !def.allowEmpty {
			return &FieldError{Field: def.name, Message: "is required"}
		}
	case kindStrings:
		var ss []string
		if err := json.Unmarshal(raw, &ss); err != nil {
			return &FieldError{Field: def.name, Message: "must be an array of strings"}
		}
	case kindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return &FieldError{Field: def.name, Message: "must be a boolean"}
		}
	case kindSeconds:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return &FieldError{Field: def.name, Message: "must be a number"}
		}
		if _, ok := v.(float64); !ok {
			return &FieldError{Field: def.name, Message: "must be a number"}
		}
		// 只接受整数字面量，90.0 和 1e2 客户端无法解码为 int
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil || n <= 0 || n > MaxDurationSeconds {
			return &FieldError{Field: def.name, Message: "must be a positive whole number of seconds"}
		}
	}
	return nil
}

// DecodePayload unmarshals an event payload into T.
func DecodePayload[T any](ev Event) (T, error) {
	var payload T
	if len(ev.Payload) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(ev.Payload, &payload)
	return payload, err
}

// NewEvent builds a validated event from a typed payload.
func NewEvent(name MessageType, room string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	data, err = ValidatePayload(name, data)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Room: room, Payload: data}, nil
}
