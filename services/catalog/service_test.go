package catalog

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"reelstream/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}, nil
}

func TestHomeRowsAssemblesShelves(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			switch {
			case strings.HasPrefix(req.URL.Path, "/3/trending/movie"):
				return jsonResponse(http.StatusOK, `{"results":[{"id":550,"title":"Fight Club","poster_path":"/fc.jpg","release_date":"1999-10-15","vote_average":8.4}]}`)
			case strings.HasPrefix(req.URL.Path, "/3/trending/tv"):
				return jsonResponse(http.StatusOK, `{"results":[{"id":1399,"name":"Game of Thrones","first_air_date":"2011-04-17"}]}`)
			default:
				// Remaining shelves are empty.
				return jsonResponse(http.StatusOK, `{"results":[]}`)
			}
		}),
	}

	svc := NewService("test-key", "en", httpc)
	svc.client.minInterval = 0

	rows, err := svc.HomeRows(context.Background())
	if err != nil {
		t.Fatalf("HomeRows failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 non-empty rows, got %d", len(rows))
	}
	if rows[0].Key != "trending-movies" {
		t.Fatalf("expected trending-movies first, got %q", rows[0].Key)
	}

	movie := rows[0].Titles[0]
	if movie.Title != "Fight Club" {
		t.Fatalf("expected movie title from payload, got %q", movie.Title)
	}
	if movie.MediaType != models.MediaTypeMovie {
		t.Fatalf("expected media type movie, got %q", movie.MediaType)
	}
	if movie.PosterPath != "https://image.tmdb.org/t/p/w500/fc.jpg" {
		t.Fatalf("unexpected poster URL %q", movie.PosterPath)
	}

	show := rows[1].Titles[0]
	if show.Title != "Game of Thrones" {
		t.Fatalf("expected series name from payload, got %q", show.Title)
	}
	if show.ReleaseDate != "2011-04-17" {
		t.Fatalf("expected first air date, got %q", show.ReleaseDate)
	}
}

func TestHomeRowsToleratesFailedShelf(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if strings.HasPrefix(req.URL.Path, "/3/trending/movie") {
				return jsonResponse(http.StatusOK, `{"results":[{"id":550,"title":"Fight Club"}]}`)
			}
			return jsonResponse(http.StatusNotFound, `{"status_message":"not found"}`)
		}),
	}

	svc := NewService("test-key", "en", httpc)
	svc.client.minInterval = 0

	rows, err := svc.HomeRows(context.Background())
	if err != nil {
		t.Fatalf("HomeRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the surviving row only, got %d", len(rows))
	}
}

func TestSearchFiltersNonVideoResults(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("query") != "fight" {
				t.Fatalf("expected query parameter, got %q", req.URL.Query().Get("query"))
			}
			return jsonResponse(http.StatusOK, `{"results":[
				{"id":550,"title":"Fight Club","media_type":"movie"},
				{"id":819,"name":"Edward Norton","media_type":"person"},
				{"id":1399,"name":"Game of Thrones","media_type":"tv"}
			]}`)
		}),
	}

	svc := NewService("test-key", "en", httpc)
	svc.client.minInterval = 0

	titles, err := svc.Search(context.Background(), "fight")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("expected person results to be dropped, got %d titles", len(titles))
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := NewService("test-key", "en", nil)

	if _, err := svc.Search(context.Background(), "   "); err != ErrQueryRequired {
		t.Fatalf("expected ErrQueryRequired, got %v", err)
	}
}

func TestDoGETRetriesServerErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			calls++
			attempt := calls
			mu.Unlock()
			if attempt == 1 {
				return jsonResponse(http.StatusInternalServerError, `{}`)
			}
			return jsonResponse(http.StatusOK, `{"results":[]}`)
		}),
	}

	client := newTMDBClient("test-key", "en", httpc)
	client.minInterval = 0

	var payload tmdbListResponse
	if err := client.doGET(context.Background(), tmdbBaseURL+"/trending/movie/week", &payload); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDoGETDoesNotRetryClientErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)

	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return jsonResponse(http.StatusNotFound, `{}`)
		}),
	}

	client := newTMDBClient("test-key", "en", httpc)
	client.minInterval = 0

	var payload tmdbListResponse
	if err := client.doGET(context.Background(), tmdbBaseURL+"/movie/0", &payload); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt for a 4xx response, got %d", calls)
	}
}

func TestUnconfiguredService(t *testing.T) {
	svc := NewService("", "en", nil)

	if svc.Configured() {
		t.Fatal("expected service without key to report unconfigured")
	}
	if _, err := svc.HomeRows(context.Background()); err == nil {
		t.Fatal("expected HomeRows to fail without an api key")
	}
}
