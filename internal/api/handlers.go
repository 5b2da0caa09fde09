package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wordhoard/internal/apperr"
	"github.com/starford/wordhoard/internal/checksum"
	"github.com/starford/wordhoard/internal/wordservice"
)

// Random sample bounds for GET /api/words/random.
const (
	defaultSampleSize = 10
	maxSampleSize     = 100
)

// Handler holds API route handlers.
type Handler struct {
	svc *wordservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *wordservice.Service) *Handler {
	return &Handler{svc: svc}
}

// wordParam extracts the {word} segment, decoding escaped characters.
func wordParam(r *http.Request) string {
	raw := chi.URLParam(r, "word")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListWords handles GET /api/words.
//
//	@Summary		List every stored word
//	@Tags			words
//	@Produce		json
//	@Success		200	{object}	WordListResponse
//	@Router			/words [get]
func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.svc.ListKnownWords(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WordListResponse{Words: words, Total: len(words)})
}

// RandomWords handles GET /api/words/random.
//
//	@Summary		Random sample of stored words
//	@Tags			words
//	@Produce		json
//	@Param			n	query		int	false	"Sample size (1-100)"
//	@Success		200	{object}	RandomWordsResponse
//	@Failure		400	{object}	errResponse
//	@Router			/words/random [get]
func (h *Handler) RandomWords(w http.ResponseWriter, r *http.Request) {
	n := defaultSampleSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "query parameter 'n' must be a positive integer")
			return
		}
		n = min(v, maxSampleSize)
	}

	words, err := h.svc.SampleKnownWords(r.Context(), n)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RandomWordsResponse{Words: words})
}

// GetWord handles GET /api/words/{word}.
//
//	@Summary		Get stored definitions for a word
//	@Tags			words
//	@Produce		json
//	@Param			word			path		string	true	"Word"
//	@Param			If-None-Match	header		string	false	"Entity tag from a previous response"
//	@Success		200				{object}	WordResponse
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Router			/words/{word} [get]
func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	word := wordParam(r)
	entries, found, err := h.svc.GetDefinitions(r.Context(), word)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidWord) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeInternalError(w, r, err)
		}
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("There are no records found with the word: '%s'", word))
		return
	}
	if sum, err := checksum.Entries(entries); err == nil {
		w.Header().Set("ETag", `"`+sum+`"`)
		if etagMatches(r.Header.Get("If-None-Match"), sum) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	normalized, _ := wordservice.NormalizeWord(word)
	writeJSON(w, http.StatusOK, WordResponse{Word: normalized, Entries: entries})
}

// AddWord handles POST /api/words.
//
//	@Summary		Fetch a word from the dictionary and store it
//	@Description	Returns the stored entries without contacting the dictionary when the word is already known.
//	@Tags			words
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddWordRequest	true	"Word to add"
//	@Success		200		{object}	WordResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	NoDefinitionsResponse
//	@Router			/words [post]
func (h *Handler) AddWord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	var req AddWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entries, err := h.svc.FetchAndPersist(r.Context(), req.Word)
	if err != nil {
		var nde *apperr.NoDefinitionsError
		switch {
		case errors.As(err, &nde):
			writeJSON(w, http.StatusNotFound, NoDefinitionsResponse{
				Error:      nde.Error(),
				Message:    nde.Message,
				Resolution: nde.Resolution,
			})
		case errors.Is(err, apperr.ErrInvalidWord):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	word, _ := wordservice.NormalizeWord(req.Word)
	w.Header().Set("Location", "/api/words/"+url.PathEscape(word))
	writeJSON(w, http.StatusOK, WordResponse{Word: word, Entries: entries})
}

// RemoveWord handles DELETE /api/words/{word}. Removal is not supported.
//
//	@Summary		Remove a word (not implemented)
//	@Tags			words
//	@Param			word	path	string	true	"Word"
//	@Failure		501		{object}	errResponse
//	@Router			/words/{word} [delete]
func (h *Handler) RemoveWord(w http.ResponseWriter, r *http.Request) {
	slog.Info("word removal requested", slog.String("word", wordParam(r)))
	writeError(w, http.StatusNotImplemented, "word removal is not supported")
}

// etagMatches reports whether an If-None-Match header value names the strong
// tag sum. Weak tags compare by their opaque part and "*" matches anything.
func etagMatches(header, sum string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		tag = strings.TrimPrefix(tag, "W/")
		if strings.Trim(tag, `"`) == sum {
			return true
		}
	}
	return false
}
