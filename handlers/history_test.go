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

type fakeHistoryService struct {
	item      models.WatchHistoryItem
	items     []models.WatchHistoryItem
	found     *models.WatchHistoryItem
	removed   bool
	err       error
	lastPatch models.ProgressPatch
}

func (f *fakeHistoryService) Touch(userID string, input models.HistoryUpsert) (models.WatchHistoryItem, error) {
	return f.item, f.err
}

func (f *fakeHistoryService) ReportProgress(userID string, patch models.ProgressPatch) (models.WatchHistoryItem, error) {
	f.lastPatch = patch
	return f.item, f.err
}

func (f *fakeHistoryService) Get(userID string, ref models.ContentRef) (*models.WatchHistoryItem, error) {
	return f.found, f.err
}

func (f *fakeHistoryService) ListRecent(userID string) ([]models.WatchHistoryItem, error) {
	return f.items, f.err
}

func (f *fakeHistoryService) Remove(userID string, ref models.ContentRef) (bool, error) {
	return f.removed, f.err
}

func TestHistoryHandler_ProgressForwardsPointerFields(t *testing.T) {
	svc := &fakeHistoryService{item: models.WatchHistoryItem{PositionMs: 75_000}}
	handler := handlers.NewHistoryHandler(svc)

	body := []byte(`{"tmdbId":1399,"mediaType":"tv","season":1,"episode":2,"deltaMs":15000}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/history/progress", bytes.NewReader(body))
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Progress(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	if svc.lastPatch.PositionMs != nil {
		t.Fatal("expected omitted positionMs to stay nil")
	}
	if svc.lastPatch.DeltaMs == nil || *svc.lastPatch.DeltaMs != 15000 {
		t.Fatalf("expected deltaMs 15000, got %+v", svc.lastPatch.DeltaMs)
	}
	if svc.lastPatch.Ref.Season != 1 || svc.lastPatch.Ref.Episode != 2 {
		t.Fatalf("expected episode identity to survive, got %+v", svc.lastPatch.Ref)
	}

	var response struct {
		OK   bool                    `json:"ok"`
		Item models.WatchHistoryItem `json:"item"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.OK {
		t.Fatal("expected ok to be true")
	}
	if response.Item.PositionMs != 75_000 {
		t.Fatalf("unexpected position %d", response.Item.PositionMs)
	}
}

func TestHistoryHandler_ProgressExplicitZeroPosition(t *testing.T) {
	svc := &fakeHistoryService{}
	handler := handlers.NewHistoryHandler(svc)

	body := []byte(`{"tmdbId":550,"mediaType":"movie","positionMs":0}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/history/progress", bytes.NewReader(body))
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Progress(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.lastPatch.PositionMs == nil || *svc.lastPatch.PositionMs != 0 {
		t.Fatal("expected explicit zero positionMs to arrive as a set pointer")
	}
}

func TestHistoryHandler_ProgressRequiresAuth(t *testing.T) {
	handler := handlers.NewHistoryHandler(&fakeHistoryService{})

	body := []byte(`{"tmdbId":550,"mediaType":"movie","positionMs":1000}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/history/progress", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Progress(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHistoryHandler_ProgressIdentityOnlyBody(t *testing.T) {
	svc := &fakeHistoryService{}
	handler := handlers.NewHistoryHandler(svc)

	body := []byte(`{"tmdbId":550,"mediaType":"movie"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/history/progress", bytes.NewReader(body))
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Progress(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected an identity-only body to succeed, got %d", rec.Code)
	}
	if svc.lastPatch.PositionMs != nil || svc.lastPatch.DeltaMs != nil || svc.lastPatch.DurationMs != nil {
		t.Fatal("expected all progress pointers to stay nil")
	}
	if svc.lastPatch.Ref.TmdbID != 550 {
		t.Fatalf("unexpected ref %+v", svc.lastPatch.Ref)
	}
}

func TestHistoryHandler_ListAnonymous(t *testing.T) {
	handler := handlers.NewHistoryHandler(&fakeHistoryService{items: []models.WatchHistoryItem{{ID: "h1"}}})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var response struct {
		Items []models.WatchHistoryItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Items) != 0 {
		t.Fatalf("expected empty list for anonymous request, got %d items", len(response.Items))
	}
}

func TestHistoryHandler_GetMissingRowIsNull(t *testing.T) {
	handler := handlers.NewHistoryHandler(&fakeHistoryService{found: nil})

	req := httptest.NewRequest(http.MethodGet, "/api/history/item?tmdbId=550&mediaType=movie", nil)
	req = authedRequest(req, "user-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var response map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(bytes.TrimSpace(response["item"])) != "null" {
		t.Fatalf("expected null item, got %s", response["item"])
	}
}

func TestHistoryHandler_Remove(t *testing.T) {
	handler := handlers.NewHistoryHandler(&fakeHistoryService{removed: true})

	req := httptest.NewRequest(http.MethodDelete, "/api/history?tmdbId=1399&mediaType=tv&season=1&episode=2", nil)
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
