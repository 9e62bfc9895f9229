package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/words"
)

// ListWords returns {categories, words}.
func (a *API) ListWords(w http.ResponseWriter, r *http.Request) {
	catalog, err := a.bank.Catalog(r.Context())
	if err != nil {
		a.writeError(w, err, "Failed to read words")
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// RandomWord picks a word at ?difficulty=N. No word at that level is 204.
func (a *API) RandomWord(w http.ResponseWriter, r *http.Request) {
	level, err := words.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		a.writeError(w, apperrors.ErrInvalidMessage.WithMessage(err.Error()), "")
		return
	}

	word, ok, err := a.bank.Random(r.Context(), level)
	if err != nil {
		a.writeError(w, err, "Failed to read words")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, words.Select(word))
}

func (a *API) GetWord(w http.ResponseWriter, r *http.Request) {
	id, ok := a.wordID(w, r)
	if !ok {
		return
	}
	word, err := a.bank.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, err, "Failed to read word")
		return
	}
	writeJSON(w, http.StatusOK, word)
}

func (a *API) CreateWord(w http.ResponseWriter, r *http.Request) {
	var in words.Word
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, err, "")
		return
	}
	created, err := a.bank.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, err, "Failed to create word")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) UpdateWord(w http.ResponseWriter, r *http.Request) {
	id, ok := a.wordID(w, r)
	if !ok {
		return
	}
	var in words.Word
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, err, "")
		return
	}
	updated, err := a.bank.Update(r.Context(), id, in)
	if err != nil {
		a.writeError(w, err, "Failed to update word")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteWord returns the removed word.
func (a *API) DeleteWord(w http.ResponseWriter, r *http.Request) {
	id, ok := a.wordID(w, r)
	if !ok {
		return
	}
	deleted, err := a.bank.Delete(r.Context(), id)
	if err != nil {
		a.writeError(w, err, "Failed to delete word")
		return
	}
	writeJSON(w, http.StatusOK, deleted)
}

func (a *API) wordID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		a.writeError(w, apperrors.ErrWordNotFound, "")
		return 0, false
	}
	return id, true
}
