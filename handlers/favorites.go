package handlers

import (
	"errors"
	"net/http"

	"reelstream/models"
	"reelstream/services/favorites"
)

type favoritesService interface {
	List(userID string) ([]models.Favorite, error)
	Exists(userID string, tmdbID int64, mediaType string) (bool, error)
	Add(userID string, input models.FavoriteUpsert) (models.Favorite, error)
	Remove(userID string, tmdbID int64, mediaType string) (bool, error)
}

var _ favoritesService = (*favorites.Service)(nil)

type FavoritesHandler struct {
	Service favoritesService
}

func NewFavoritesHandler(service favoritesService) *FavoritesHandler {
	return &FavoritesHandler{Service: service}
}

// List returns the user's favorites. Anonymous requests get an empty list.
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusOK, map[string]any{"favorites": []models.Favorite{}})
		return
	}

	items, err := h.Service.List(userID)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"favorites": items})
}

// Status reports whether a piece of content is on the user's list.
// Anonymous callers and malformed references both read as "not a
// favorite" rather than an error, so logged-out pages render cleanly.
func (h *FavoritesHandler) Status(w http.ResponseWriter, r *http.Request) {
	ref, err := parseRefQuery(r)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"exists": false})
		return
	}

	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"exists": false})
		return
	}

	exists, err := h.Service.Exists(userID, ref.TmdbID, ref.MediaType)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Add upserts a favorite for the authenticated user.
func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input models.FavoriteUpsert
	if err := decodeJSONBody(r, &input); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.Service.Add(userID, input)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTmdbIDRequired),
			errors.Is(err, models.ErrMediaTypeRequired),
			errors.Is(err, favorites.ErrTitleRequired):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "favorite": item})
}

type removeFavoriteRequest struct {
	TmdbID    int64  `json:"tmdbId"`
	MediaType string `json:"mediaType"`
}

// Remove deletes a favorite. Removing something not on the list succeeds.
func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req removeFavoriteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ref := models.ContentRef{TmdbID: req.TmdbID, MediaType: req.MediaType}.Normalise()
	if err := ref.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.Service.Remove(userID, ref.TmdbID, ref.MediaType); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *FavoritesHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
