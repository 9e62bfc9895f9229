package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
	"github.com/palemoky/spelling-bee/internal/room"
)

type successBody struct {
	Success bool `json:"success"`
}

// TriggerEvent handles POST /api/pusher/{event}. The body carries roomCode,
// an optional senderId excluded from fan-out, and the event fields.
func (a *API) TriggerEvent(w http.ResponseWriter, r *http.Request) {
	name := protocol.MessageType(chi.URLParam(r, "event"))
	if !protocol.IsRelayEvent(name) {
		a.writeError(w, apperrors.ErrUnknownEvent, "")
		return
	}

	data, err := readBody(w, r)
	if err != nil {
		a.writeError(w, err, "")
		return
	}
	fields, err := protocol.ParseFields(data)
	if err != nil {
		a.writeError(w, err, "")
		return
	}

	code, err := roomCodeField(fields)
	if err != nil {
		a.writeError(w, err, "")
		return
	}
	if !room.ValidCode(code) {
		a.writeError(w, apperrors.ErrInvalidRoomCode, "")
		return
	}
	senderID, _ := stringField(fields, "senderId")

	payload, err := protocol.ExtractPayload(name, fields)
	if err != nil {
		a.writeError(w, err, "")
		return
	}

	res := a.relay.Publish(r.Context(), code, protocol.Event{Name: name, Room: code, Payload: payload}, senderID)
	if res.Err != nil {
		a.writeError(w, res.Err, apperrors.ErrRelayFailed.Message)
		return
	}

	a.log.Debug("event triggered over http",
		zap.String("room", code),
		zap.String("event", string(name)),
		zap.Int("delivered", res.Delivered),
	)
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// roomCodeField reads roomCode as a string or a bare JSON number.
func roomCodeField(fields map[string]json.RawMessage) (string, error) {
	raw, ok := fields["roomCode"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", &protocol.FieldError{Field: "roomCode", Message: "is required"}
	}
	if code, ok := stringField(fields, "roomCode"); ok {
		if code == "" {
			return "", &protocol.FieldError{Field: "roomCode", Message: "is required"}
		}
		return code, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", &protocol.FieldError{Field: "roomCode", Message: "must be a string"}
	}
	return n.String(), nil
}
