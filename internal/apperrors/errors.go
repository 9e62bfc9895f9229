package apperrors

import (
	"errors"
	"net/http"

	"github.com/palemoky/spelling-bee/internal/protocol"
)

// Kind classifies an error for transport surfaces.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTransport
)

// AppError is shared by the relay, registry, word bank and session layers.
type AppError struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so detailed copies still
// satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy carrying a more specific message.
func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	return &cp
}

// Wrap returns a copy of e with err as its cause.
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// 预定义错误
var (
	ErrInvalidMessage  = &AppError{Kind: KindValidation, Code: protocol.ErrCodeInvalidMsg, Message: "invalid message format"}
	ErrMissingField    = &AppError{Kind: KindValidation, Code: protocol.ErrCodeMissingField, Message: "Missing required fields"}
	ErrInvalidRoomCode = &AppError{Kind: KindValidation, Code: protocol.ErrCodeInvalidRoomCode, Message: "room code must be 4 digits"}
	ErrUnknownEvent    = &AppError{Kind: KindNotFound, Code: protocol.ErrCodeUnknownEvent, Message: "unknown event"}
	ErrRoomNotFound    = &AppError{Kind: KindNotFound, Code: protocol.ErrCodeRoomNotFound, Message: "room not found"}
	ErrNotInRoom       = &AppError{Kind: KindValidation, Code: protocol.ErrCodeNotInRoom, Message: "not in a room"}
	ErrWordNotFound    = &AppError{Kind: KindNotFound, Code: protocol.ErrCodeWordNotFound, Message: "Word not found"}
	ErrDuplicateWord   = &AppError{Kind: KindConflict, Code: protocol.ErrCodeDuplicateWord, Message: "Word already exists"}
	ErrNoWordSelected  = &AppError{Kind: KindValidation, Code: protocol.ErrCodeNoWordSelected, Message: "no word selected"}
	ErrTimerState      = &AppError{Kind: KindValidation, Code: protocol.ErrCodeTimerState, Message: "timer is not in the required state"}
	ErrRelayFailed     = &AppError{Kind: KindTransport, Code: protocol.ErrCodeRelayFailed, Message: "Failed to trigger event"}
)

// From maps any error onto an AppError. Field errors become validation
// errors, unknown catalog names become ErrUnknownEvent, everything else is
// internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	var fe *protocol.FieldError
	if errors.As(err, &fe) {
		return ErrMissingField.WithMessage(fe.Error())
	}
	if errors.Is(err, protocol.ErrUnknownEvent) {
		return ErrUnknownEvent
	}
	return &AppError{Kind: KindInternal, Code: protocol.ErrCodeUnknown, Message: "internal error", Err: err}
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch From(err).Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the protocol error code for err.
func Code(err error) int {
	if err == nil {
		return 0
	}
	return From(err).Code
}
