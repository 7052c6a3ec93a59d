package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"reelstream/handlers"
	"reelstream/services/sessions"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IdentityMiddleware resolves the bearer token, when one is presented, and
// attaches the user id to the request context. Requests without a valid
// token pass through anonymously; each handler decides whether that is
// acceptable.
func IdentityMiddleware(sessionsSvc *sessions.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := handlers.BearerToken(r)
			if token != "" {
				if userID, err := sessionsSvc.Resolve(token); err == nil {
					r = r.WithContext(handlers.ContextWithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	authHandler *handlers.AuthHandler,
	favoritesHandler *handlers.FavoritesHandler,
	historyHandler *handlers.HistoryHandler,
	profileHandler *handlers.ProfileHandler,
	catalogHandler *handlers.CatalogHandler,
	sessionsSvc *sessions.Service,
) {
	api := r.PathPrefix("/api").Subrouter()

	api.Use(corsMiddleware)
	api.Use(IdentityMiddleware(sessionsSvc))

	// Auth
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", authHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	api.HandleFunc("/auth/me", authHandler.Options).Methods(http.MethodOptions)

	// Favorites
	api.HandleFunc("/favorites", favoritesHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/favorites", favoritesHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/favorites", favoritesHandler.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/favorites", favoritesHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/favorites/status", favoritesHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/favorites/status", handleOptions).Methods(http.MethodOptions)

	// History
	api.HandleFunc("/history", historyHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/history", historyHandler.Touch).Methods(http.MethodPost)
	api.HandleFunc("/history", historyHandler.Remove).Methods(http.MethodDelete)
	api.HandleFunc("/history", historyHandler.Options).Methods(http.MethodOptions)
	api.HandleFunc("/history/item", historyHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/history/item", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/history/progress", historyHandler.Progress).Methods(http.MethodPatch)
	api.HandleFunc("/history/progress", handleOptions).Methods(http.MethodOptions)

	// Profile
	api.HandleFunc("/profile", profileHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/profile", profileHandler.Patch).Methods(http.MethodPatch)
	api.HandleFunc("/profile", profileHandler.Options).Methods(http.MethodOptions)

	// Catalog
	api.HandleFunc("/catalog/home", catalogHandler.Home).Methods(http.MethodGet)
	api.HandleFunc("/catalog/home", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/search", catalogHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/catalog/search", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/catalog/{mediaType}/{tmdbID}", catalogHandler.Details).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{mediaType}/{tmdbID}", handleOptions).Methods(http.MethodOptions)
}
