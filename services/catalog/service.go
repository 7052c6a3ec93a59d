package catalog

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"reelstream/models"
)

var ErrQueryRequired = errors.New("search query is required")

// Service exposes the browsable catalog backed by TMDB.
type Service struct {
	client *tmdbClient
}

// NewService creates a catalog service. The language is an ISO 639-1 code
// and the http client may be nil.
func NewService(apiKey, language string, httpc *http.Client) *Service {
	return &Service{client: newTMDBClient(apiKey, language, httpc)}
}

// Configured reports whether the service has an API key to work with.
func (s *Service) Configured() bool {
	return s.client.isConfigured()
}

type rowSpec struct {
	key       string
	label     string
	fetch     func(context.Context, string) ([]models.CatalogTitle, error)
	mediaType string
}

// HomeRows fetches the shelves for the home screen concurrently. A row
// whose fetch fails is dropped rather than failing the whole page.
func (s *Service) HomeRows(ctx context.Context) ([]models.CatalogRow, error) {
	if !s.client.isConfigured() {
		return nil, ErrNotConfigured
	}

	specs := []rowSpec{
		{key: "trending-movies", label: "Trending Movies", fetch: s.client.trending, mediaType: models.MediaTypeMovie},
		{key: "trending-tv", label: "Trending TV", fetch: s.client.trending, mediaType: models.MediaTypeTV},
		{key: "popular-movies", label: "Popular Movies", fetch: s.client.popular, mediaType: models.MediaTypeMovie},
		{key: "popular-tv", label: "Popular TV", fetch: s.client.popular, mediaType: models.MediaTypeTV},
		{key: "top-rated-movies", label: "Top Rated Movies", fetch: s.client.topRated, mediaType: models.MediaTypeMovie},
		{key: "top-rated-tv", label: "Top Rated TV", fetch: s.client.topRated, mediaType: models.MediaTypeTV},
	}

	results := make([][]models.CatalogTitle, len(specs))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(4)
	for idx, spec := range specs {
		idx, spec := idx, spec
		p.Go(func(ctx context.Context) error {
			titles, err := spec.fetch(ctx, spec.mediaType)
			if err != nil {
				log.Printf("[catalog] %s row failed: %v", spec.key, err)
				return nil
			}
			results[idx] = titles
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	rows := make([]models.CatalogRow, 0, len(specs))
	for idx, spec := range specs {
		if len(results[idx]) == 0 {
			continue
		}
		rows = append(rows, models.CatalogRow{
			Key:    spec.key,
			Label:  spec.label,
			Titles: results[idx],
		})
	}

	return rows, nil
}

// Search runs a multi search across movies and shows.
func (s *Service) Search(ctx context.Context, query string) ([]models.CatalogTitle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	return s.client.search(ctx, query)
}

// Details returns the full card for a single movie or show.
func (s *Service) Details(ctx context.Context, ref models.ContentRef) (models.CatalogTitle, error) {
	ref = ref.Normalise()
	if err := ref.Validate(); err != nil {
		return models.CatalogTitle{}, err
	}

	return s.client.details(ctx, ref)
}
