package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"reelstream/models"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// ContextWithUserID attaches the authenticated user's id to the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user's id, or "" for an
// anonymous request.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return userID
}

// requireUser extracts the authenticated user or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		writeJSONError(w, "authentication required", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func decodeJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// parseRefQuery reads a content reference from query parameters. Season and
// episode are optional and only meaningful for tv content.
func parseRefQuery(r *http.Request) (models.ContentRef, error) {
	q := r.URL.Query()

	tmdbID, err := strconv.ParseInt(strings.TrimSpace(q.Get("tmdbId")), 10, 64)
	if err != nil {
		return models.ContentRef{}, models.ErrTmdbIDRequired
	}

	ref := models.ContentRef{
		TmdbID:    tmdbID,
		MediaType: q.Get("mediaType"),
	}

	if season := strings.TrimSpace(q.Get("season")); season != "" {
		if n, err := strconv.Atoi(season); err == nil {
			ref.Season = n
		}
	}
	if episode := strings.TrimSpace(q.Get("episode")); episode != "" {
		if n, err := strconv.Atoi(episode); err == nil {
			ref.Episode = n
		}
	}

	ref = ref.Normalise()
	if err := ref.Validate(); err != nil {
		return models.ContentRef{}, err
	}

	return ref, nil
}
