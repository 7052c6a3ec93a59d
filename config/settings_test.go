package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"reelstream/config"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	mgr := config.NewManager(path)

	settings, err := mgr.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if settings.Server.Port != 7788 {
		t.Fatalf("unexpected default port %d", settings.Server.Port)
	}
	if settings.Storage.Directory != "data" {
		t.Fatalf("unexpected default storage dir %q", settings.Storage.Directory)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected settings file to be written: %v", err)
	}
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"server":{"port":9000}}`), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := config.NewManager(path).Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if settings.Server.Port != 9000 {
		t.Fatalf("expected explicit port to survive, got %d", settings.Server.Port)
	}
	if settings.Server.Host != "0.0.0.0" {
		t.Fatalf("expected host backfill, got %q", settings.Server.Host)
	}
	if settings.Auth.SessionTTLHours != 720 {
		t.Fatalf("expected session ttl backfill, got %d", settings.Auth.SessionTTLHours)
	}
	if settings.Log.MaxSize != 50 {
		t.Fatalf("expected log size backfill, got %d", settings.Log.MaxSize)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	mgr := config.NewManager(path)

	settings := config.DefaultSettings()
	settings.Catalog.TMDBAPIKey = "tmdb-key"

	if err := mgr.Save(settings); err != nil {
		t.Fatalf("save returned error: %v", err)
	}

	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if loaded.Catalog.TMDBAPIKey != "tmdb-key" {
		t.Fatalf("expected saved key to round trip, got %q", loaded.Catalog.TMDBAPIKey)
	}
}
