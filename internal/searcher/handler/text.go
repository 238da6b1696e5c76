package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/highlight"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/matcher"
	"github.com/Adithya-Monish-Kumar-K/arabic-quote-search/internal/arabic/normalize"
	apperrors "github.com/Adithya-Monish-Kumar-K/arabic-quote-search/pkg/errors"
)

const maxTextBody = 1 << 20

// TextRequest is the body of the /api/v1/text endpoints. Fuzzy defaults to
// true and Mode to the configured highlight mode.
type TextRequest struct {
	Text  string `json:"text"`
	Query string `json:"query"`
	Fuzzy *bool  `json:"fuzzy,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"normalized": normalize.Normalize(req.Text)})
}

func (h *Handler) Contains(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	fuzzy := true
	if req.Fuzzy != nil {
		fuzzy = *req.Fuzzy
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"contains": matcher.Contains(req.Text, req.Query, fuzzy)})
}

func (h *Handler) Highlight(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	mode := highlight.ParseMode(h.cfg.HighlightMode)
	if req.Mode != "" {
		m, err := parseMode(req.Mode)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		mode = m
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"mode":     mode,
		"segments": highlight.Apply(mode, req.Text, req.Query),
	})
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"count": matcher.CountOccurrences(req.Text, req.Query)})
}

func (h *Handler) decodeText(w http.ResponseWriter, r *http.Request) (TextRequest, bool) {
	var req TextRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		h.writeAppError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "invalid request body: %v", err))
		return req, false
	}
	return req, true
}
