package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"reelstream/api"
	"reelstream/config"
	"reelstream/handlers"
	"reelstream/services/accounts"
	"reelstream/services/catalog"
	"reelstream/services/favorites"
	"reelstream/services/history"
	"reelstream/services/profiles"
	"reelstream/services/sessions"
	"reelstream/utils/credentials"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 reelstream Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("REELSTREAM_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Generate the admin password on first run and persist it
	settings.Auth.AdminPassword = strings.TrimSpace(settings.Auth.AdminPassword)
	passwordGenerated := false
	if settings.Auth.AdminPassword == "" {
		generated, err := credentials.GenerateAdminPassword()
		if err != nil {
			log.Fatalf("failed to generate admin password: %v", err)
		}
		settings.Auth.AdminPassword = generated
		if err := cfgManager.Save(settings); err != nil {
			log.Fatalf("failed to persist generated admin password: %v", err)
		}
		passwordGenerated = true
	}

	// Construct services
	storageDir := settings.Storage.Directory

	accountsSvc, err := accounts.NewService(storageDir)
	if err != nil {
		log.Fatalf("failed to init accounts service: %v", err)
	}

	seeded, err := accountsSvc.SeedAdmin(settings.Auth.AdminEmail, settings.Auth.AdminPassword)
	if err != nil {
		log.Fatalf("failed to seed admin account: %v", err)
	}
	if seeded || passwordGenerated {
		fmt.Printf("🔑 Admin login: %s / %s\n", settings.Auth.AdminEmail, settings.Auth.AdminPassword)
	}

	sessionsSvc, err := sessions.NewService(storageDir, time.Duration(settings.Auth.SessionTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("failed to init sessions service: %v", err)
	}
	favoritesSvc, err := favorites.NewService(storageDir)
	if err != nil {
		log.Fatalf("failed to init favorites service: %v", err)
	}
	historySvc, err := history.NewService(storageDir)
	if err != nil {
		log.Fatalf("failed to init history service: %v", err)
	}
	profilesSvc, err := profiles.NewService(storageDir)
	if err != nil {
		log.Fatalf("failed to init profiles service: %v", err)
	}
	catalogSvc := catalog.NewService(settings.Catalog.TMDBAPIKey, settings.Catalog.Language, nil)
	if !catalogSvc.Configured() {
		fmt.Println("⚠️  No TMDB API key configured; catalog endpoints will be unavailable.")
	}

	// Construct router and register API routes
	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewAuthHandler(accountsSvc, sessionsSvc),
		handlers.NewFavoritesHandler(favoritesSvc),
		handlers.NewHistoryHandler(historySvc),
		handlers.NewProfileHandler(profilesSvc),
		handlers.NewCatalogHandler(catalogSvc),
		sessionsSvc,
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if dropped, err := sessionsSvc.Prune(); err != nil {
		log.Printf("session prune error: %v", err)
	} else if dropped > 0 {
		log.Printf("pruned %d expired sessions", dropped)
	}

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
