package protocol

import "encoding/json"

// Message is the envelope exchanged over the websocket broadcast server.
type Message struct {
	Type     MessageType     `json:"type"`
	RoomCode string          `json:"roomCode,omitempty"`
	Role     string          `json:"role,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// MessageType names either a room control message or a relay event.
type MessageType string

// Client → server room control
const (
	MsgJoinRoom  MessageType = "join-room"
	MsgLeaveRoom MessageType = "leave-room"
)

// Server → client room control
const (
	MsgConnected  MessageType = "connected"
	MsgRoomJoined MessageType = "room-joined"
	MsgRoomLeft   MessageType = "room-left"
	MsgError      MessageType = "error"
)

// Relay events. These are forwarded verbatim to the rest of the room.
const (
	EventWordSelected  MessageType = "word-selected"
	EventTimerStart    MessageType = "timer-start"
	EventTimerReset    MessageType = "timer-reset"
	EventJudgeDecision MessageType = "judge-decision"
	EventWordRevealed  MessageType = "word-revealed"
	EventInfoProvided  MessageType = "info-provided"
	EventRequestInfo   MessageType = "request-info"
)

// Member roles announced on join-room. Roles are informational only.
const (
	RoleJudge    = "judge"
	RoleDisplay  = "display"
	RoleAudience = "audience"
)

// ValidRole reports whether role is one of the known member roles.
func ValidRole(role string) bool {
	return role == RoleJudge || role == RoleDisplay || role == RoleAudience
}

// Event is a relay event bound to a room.
type Event struct {
	Name    MessageType     `json:"name"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ToMessage wraps the event in a websocket envelope.
func (e Event) ToMessage() *Message {
	return &Message{
		Type:     e.Name,
		RoomCode: e.Room,
		Payload:  e.Payload,
	}
}

// EventFromMessage extracts a relay event from a websocket envelope.
func EventFromMessage(msg *Message) (Event, bool) {
	if msg == nil || !IsRelayEvent(msg.Type) {
		return Event{}, false
	}
	return Event{Name: msg.Type, Room: msg.RoomCode, Payload: msg.Payload}, true
}
