package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/server/storage"
)

const qrSize = 256

type createRoomResponse struct {
	Code string `json:"code"`
}

// CreateRoom hands out a fresh code. The room itself only exists once a
// member joins; codes are not checked for collisions.
func (a *API) CreateRoom(w http.ResponseWriter, _ *http.Request) {
	a.rngMu.Lock()
	code := room.GenerateCode(a.rng)
	a.rngMu.Unlock()

	writeJSON(w, http.StatusCreated, createRoomResponse{Code: code})
}

// ListRooms returns the mirrored rooms when a mirror is configured, the
// local registry otherwise.
func (a *API) ListRooms(w http.ResponseWriter, r *http.Request) {
	var rooms []*storage.RoomData
	if a.mirror != nil {
		var err error
		rooms, err = a.mirror.ListRooms(r.Context())
		if err != nil {
			a.writeError(w, err, "Failed to list rooms")
			return
		}
	} else {
		rooms = a.registry.Snapshots()
	}
	if rooms == nil {
		rooms = []*storage.RoomData{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

// GetRoom returns the local membership of one room.
func (a *API) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !room.ValidCode(code) {
		a.writeError(w, apperrors.ErrInvalidRoomCode, "")
		return
	}
	data, ok := a.registry.Snapshot(code)
	if !ok {
		a.writeError(w, apperrors.ErrRoomNotFound, "")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// RoomQRCode renders a PNG linking to the display page of the room.
func (a *API) RoomQRCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !room.ValidCode(code) {
		a.writeError(w, apperrors.ErrInvalidRoomCode, "")
		return
	}

	png, err := qrcode.Encode(a.displayURL(r, code), qrcode.Medium, qrSize)
	if err != nil {
		a.writeError(w, err, "Failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// displayURL points at the display page, from public_url or the request.
func (a *API) displayURL(r *http.Request, code string) string {
	base := strings.TrimRight(a.publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/display?room=" + url.QueryEscape(code)
}
