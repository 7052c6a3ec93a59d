package handlers

import (
	"errors"
	"net/http"

	"reelstream/models"
	"reelstream/services/history"
)

type historyService interface {
	Touch(userID string, input models.HistoryUpsert) (models.WatchHistoryItem, error)
	ReportProgress(userID string, patch models.ProgressPatch) (models.WatchHistoryItem, error)
	Get(userID string, ref models.ContentRef) (*models.WatchHistoryItem, error)
	ListRecent(userID string) ([]models.WatchHistoryItem, error)
	Remove(userID string, ref models.ContentRef) (bool, error)
}

var _ historyService = (*history.Service)(nil)

type HistoryHandler struct {
	Service historyService
}

func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{Service: service}
}

// List returns the user's recent history. Anonymous requests get an empty list.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"items": []models.WatchHistoryItem{}})
		return
	}

	items, err := h.Service.ListRecent(userID)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Get returns the single history row for a piece of content. A row that
// does not exist, or an anonymous request, yields null.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref, err := parseRefQuery(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"item": nil})
		return
	}

	item, err := h.Service.Get(userID, ref)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

type touchRequest struct {
	TmdbID     int64  `json:"tmdbId"`
	MediaType  string `json:"mediaType"`
	Season     int    `json:"season,omitempty"`
	Episode    int    `json:"episode,omitempty"`
	Title      string `json:"title,omitempty"`
	PosterPath string `json:"posterPath,omitempty"`
}

// Touch records that the user opened a piece of content.
func (h *HistoryHandler) Touch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req touchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Touch(userID, models.HistoryUpsert{
		Ref: models.ContentRef{
			TmdbID:    req.TmdbID,
			MediaType: req.MediaType,
			Season:    req.Season,
			Episode:   req.Episode,
		},
		Title:      req.Title,
		PosterPath: req.PosterPath,
	})
	if err != nil {
		writeHistoryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": item})
}

type progressRequest struct {
	TmdbID     int64  `json:"tmdbId"`
	MediaType  string `json:"mediaType"`
	Season     int    `json:"season,omitempty"`
	Episode    int    `json:"episode,omitempty"`
	PositionMs *int64 `json:"positionMs,omitempty"`
	DeltaMs    *int64 `json:"deltaMs,omitempty"`
	DurationMs *int64 `json:"durationMs,omitempty"`
	Title      string `json:"title,omitempty"`
	PosterPath string `json:"posterPath,omitempty"`
}

// Progress applies a playhead update and returns the reconciled row.
func (h *HistoryHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.ReportProgress(userID, models.ProgressPatch{
		Ref: models.ContentRef{
			TmdbID:    req.TmdbID,
			MediaType: req.MediaType,
			Season:    req.Season,
			Episode:   req.Episode,
		},
		PositionMs: req.PositionMs,
		DeltaMs:    req.DeltaMs,
		DurationMs: req.DurationMs,
		Title:      req.Title,
		PosterPath: req.PosterPath,
	})
	if err != nil {
		writeHistoryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": item})
}

// Remove deletes a history row. Removing an absent row succeeds.
func (h *HistoryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ref, err := parseRefQuery(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.Service.Remove(userID, ref); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *HistoryHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeHistoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrTmdbIDRequired),
		errors.Is(err, models.ErrMediaTypeRequired),
		errors.Is(err, history.ErrTitleRequired),
		errors.Is(err, history.ErrDurationInvalid):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
