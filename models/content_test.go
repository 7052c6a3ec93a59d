package models_test

import (
	"testing"

	"reelstream/models"
)

func TestContentRefKey(t *testing.T) {
	cases := []struct {
		name string
		ref  models.ContentRef
		want string
	}{
		{"movie", models.MovieRef(550), "movie:550"},
		{"series", models.ContentRef{TmdbID: 1399, MediaType: "tv"}, "tv:1399"},
		{"episode", models.EpisodeRef(1399, 1, 2), "tv:1399:s01e02"},
		{"double digit episode", models.EpisodeRef(1399, 10, 12), "tv:1399:s10e12"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ref.Key(); got != tc.want {
				t.Fatalf("expected key %q, got %q", tc.want, got)
			}
		})
	}
}

func TestContentRefNormaliseDropsEpisodeForMovies(t *testing.T) {
	ref := models.ContentRef{TmdbID: 550, MediaType: "Movie", Season: 1, Episode: 2}.Normalise()

	if ref.MediaType != models.MediaTypeMovie {
		t.Fatalf("expected lowercased media type, got %q", ref.MediaType)
	}
	if ref.Season != 0 || ref.Episode != 0 {
		t.Fatal("expected season and episode to be cleared for movies")
	}
}

func TestContentRefValidate(t *testing.T) {
	if err := models.MovieRef(550).Validate(); err != nil {
		t.Fatalf("expected valid ref, got %v", err)
	}
	if err := (models.ContentRef{MediaType: "movie"}).Validate(); err != models.ErrTmdbIDRequired {
		t.Fatalf("expected ErrTmdbIDRequired, got %v", err)
	}
	if err := (models.ContentRef{TmdbID: 550, MediaType: "song"}).Validate(); err != models.ErrMediaTypeRequired {
		t.Fatalf("expected ErrMediaTypeRequired, got %v", err)
	}
}

func TestWatchHistoryItemCompleted(t *testing.T) {
	item := models.WatchHistoryItem{PositionMs: 7_180_000, DurationMs: 7_200_000}
	if !item.Completed() {
		t.Fatal("expected position within final 30s to count as completed")
	}

	item.PositionMs = 1_000_000
	if item.Completed() {
		t.Fatal("expected mid-playback position to not count as completed")
	}

	item = models.WatchHistoryItem{PositionMs: 999_999_999}
	if item.Completed() {
		t.Fatal("expected unknown duration to never count as completed")
	}
}
