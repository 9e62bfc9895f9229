package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/protocol"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and {"error": ...}. Internal errors are
// logged and reported with fallback text.
func (a *API) writeError(w http.ResponseWriter, err error, fallback string) {
	ae := apperrors.From(err)
	status := apperrors.HTTPStatus(ae)
	body := errorBody{Error: ae.Message}

	var fe *protocol.FieldError
	if errors.As(err, &fe) {
		body = errorBody{Error: apperrors.ErrMissingField.Message, Field: fe.Field}
	}
	if status == http.StatusInternalServerError {
		a.log.Error(fallback, zap.Error(err))
		body = errorBody{Error: fallback}
	}
	writeJSON(w, status, body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.ErrInvalidMessage.WithMessage("request body too large or unreadable")
	}
	return data, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.ErrInvalidMessage.WithMessage("invalid JSON body")
	}
	return nil
}
