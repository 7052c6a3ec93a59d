package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelstream/handlers"
	"reelstream/models"
)

type fakeFavoritesService struct {
	items   []models.Favorite
	added   models.Favorite
	exists  bool
	removed bool
	err     error
}

func (f *fakeFavoritesService) List(userID string) ([]models.Favorite, error) {
	return f.items, f.err
}

func (f *fakeFavoritesService) Exists(userID string, tmdbID int64, mediaType string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeFavoritesService) Add(userID string, input models.FavoriteUpsert) (models.Favorite, error) {
	return f.added, f.err
}

func (f *fakeFavoritesService) Remove(userID string, tmdbID int64, mediaType string) (bool, error) {
	return f.removed, f.err
}

func authedRequest(req *http.Request, userID string) *http.Request {
	return req.WithContext(handlers.ContextWithUserID(req.Context(), userID))
}

func TestFavoritesHandler_StatusAnonymous(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{exists: true})

	req := httptest.NewRequest(http.MethodGet, "/api/favorites/status?tmdbId=550&mediaType=movie", nil)
	rec := httptest.NewRecorder()

	handler.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var response map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["exists"] {
		t.Fatal("expected anonymous status to report false")
	}
}

func TestFavoritesHandler_StatusAuthenticated(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{exists: true})

	req := httptest.NewRequest(http.MethodGet, "/api/favorites/status?tmdbId=550&mediaType=movie", nil)
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var response map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response["exists"] {
		t.Fatal("expected favorite status to be true")
	}
}

func TestFavoritesHandler_StatusBadQuery(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{exists: true})

	req := httptest.NewRequest(http.MethodGet, "/api/favorites/status?tmdbId=abc&mediaType=movie", nil)
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected a non-numeric id to degrade to 200, got %d", rec.Code)
	}

	var response map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["exists"] {
		t.Fatal("expected a non-numeric id to read as not a favorite")
	}
}

func TestFavoritesHandler_AddRequiresAuth(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{})

	body, _ := json.Marshal(models.FavoriteUpsert{TmdbID: 550, MediaType: "movie", Title: "Fight Club"})
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Add(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous write, got %d", rec.Code)
	}
}

func TestFavoritesHandler_Add(t *testing.T) {
	svc := &fakeFavoritesService{added: models.Favorite{ID: "fav-1", TmdbID: 550, MediaType: "movie", Title: "Fight Club"}}
	handler := handlers.NewFavoritesHandler(svc)

	body, _ := json.Marshal(models.FavoriteUpsert{TmdbID: 550, MediaType: "movie", Title: "Fight Club"})
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewReader(body))
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Add(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var response struct {
		OK       bool            `json:"ok"`
		Favorite models.Favorite `json:"favorite"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.OK {
		t.Fatal("expected ok to be true")
	}
	if response.Favorite.ID != "fav-1" {
		t.Fatalf("unexpected favorite id %q", response.Favorite.ID)
	}
}

func TestFavoritesHandler_AddValidationError(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{err: models.ErrMediaTypeRequired})

	body, _ := json.Marshal(models.FavoriteUpsert{TmdbID: 550, MediaType: "book", Title: "Fight Club"})
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewReader(body))
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Add(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid media type, got %d", rec.Code)
	}
}

func TestFavoritesHandler_ListAnonymous(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{items: []models.Favorite{{ID: "fav-1"}}})

	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var response struct {
		Favorites []models.Favorite `json:"favorites"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Favorites) != 0 {
		t.Fatalf("expected empty list for anonymous request, got %d items", len(response.Favorites))
	}
}

func TestFavoritesHandler_Remove(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{removed: true})

	body, _ := json.Marshal(map[string]any{"tmdbId": 550, "mediaType": "movie"})
	req := httptest.NewRequest(http.MethodDelete, "/api/favorites", bytes.NewReader(body))
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Remove(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var response map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response["ok"] {
		t.Fatal("expected ok to be true")
	}
}

func TestFavoritesHandler_RemoveMissingFields(t *testing.T) {
	handler := handlers.NewFavoritesHandler(&fakeFavoritesService{})

	body, _ := json.Marshal(map[string]any{"mediaType": "movie"})
	req := httptest.NewRequest(http.MethodDelete, "/api/favorites", bytes.NewReader(body))
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Remove(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing tmdbId, got %d", rec.Code)
	}
}
