package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"reelstream/models"
	"reelstream/services/catalog"
)

type catalogService interface {
	HomeRows(ctx context.Context) ([]models.CatalogRow, error)
	Search(ctx context.Context, query string) ([]models.CatalogTitle, error)
	Details(ctx context.Context, ref models.ContentRef) (models.CatalogTitle, error)
}

var _ catalogService = (*catalog.Service)(nil)

type CatalogHandler struct {
	Service catalogService
}

func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{Service: service}
}

// Home returns the shelves for the browse screen.
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.HomeRows(r.Context())
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

// Search runs a text search across movies and shows.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	titles, err := h.Service.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, catalog.ErrQueryRequired) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": titles})
}

// Details returns the full card for one movie or show.
func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	tmdbID, err := strconv.ParseInt(strings.TrimSpace(vars["tmdbID"]), 10, 64)
	if err != nil {
		writeJSONError(w, models.ErrTmdbIDRequired.Error(), http.StatusBadRequest)
		return
	}

	ref := models.ContentRef{TmdbID: tmdbID, MediaType: vars["mediaType"]}.Normalise()
	if err := ref.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	title, err := h.Service.Details(r.Context(), ref)
	if err != nil {
		writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, title)
}

func (h *CatalogHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotConfigured) {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSONError(w, err.Error(), http.StatusInternalServerError)
}
