package handlers

import (
	"net/http"

	"reelstream/models"
	"reelstream/services/profiles"
)

type profilesService interface {
	Get(userID string) (models.Profile, error)
	SetPreferences(userID string, patch models.PreferencePatch) (models.Profile, error)
}

var _ profilesService = (*profiles.Service)(nil)

type ProfileHandler struct {
	Service profilesService
}

func NewProfileHandler(service profilesService) *ProfileHandler {
	return &ProfileHandler{Service: service}
}

// Get returns the user's profile, creating it with defaults on first access.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.Service.Get(userID)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// Patch applies a partial preference update and returns the merged profile.
func (h *ProfileHandler) Patch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch models.PreferencePatch
	if err := decodeJSONBody(r, &patch); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := h.Service.SetPreferences(userID, patch)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "profile": profile})
}

func (h *ProfileHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
