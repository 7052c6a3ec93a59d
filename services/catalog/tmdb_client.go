package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"reelstream/models"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	// Posters render in cards around 200-300px, backdrops as 1080p backgrounds.
	tmdbPosterSize   = "w500"
	tmdbBackdropSize = "w1280"
)

// ErrNotConfigured is returned when no TMDB API key has been set.
var ErrNotConfigured = errors.New("tmdb api key not configured")

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    language,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

type retriableStatusError struct {
	status string
}

func (e *retriableStatusError) Error() string {
	return fmt.Sprintf("tmdb request failed: %s", e.status)
}

// doGET performs a rate-limited GET and decodes the JSON body into v.
// Transport errors, 429 and 5xx responses retry with exponential backoff;
// other 4xx responses fail immediately.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, v any) error {
	return retry.Do(
		func() error {
			c.throttleMu.Lock()
			since := time.Since(c.lastRequest)
			if since < c.minInterval {
				time.Sleep(c.minInterval - since)
			}
			c.lastRequest = time.Now()
			c.throttleMu.Unlock()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return &retriableStatusError{status: resp.Status}
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			log.Printf("[tmdb] request failed (attempt %d/3): %v", attempt+1, err)
		}),
	)
}

func (c *tmdbClient) buildURL(elem ...string) (string, error) {
	endpoint, err := url.JoinPath(tmdbBaseURL, elem...)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	if lang := strings.TrimSpace(c.language); lang != "" {
		q.Set("language", normaliseLanguage(lang))
	} else {
		q.Set("language", "en-US")
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

type tmdbListResponse struct {
	Results []tmdbListEntry `json:"results"`
}

type tmdbListEntry struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	FirstAirDate string  `json:"first_air_date"`
	ReleaseDate  string  `json:"release_date"`
	MediaType    string  `json:"media_type"`
}

func (c *tmdbClient) trending(ctx context.Context, mediaType string) ([]models.CatalogTitle, error) {
	if !c.isConfigured() {
		return nil, ErrNotConfigured
	}

	endpoint, err := c.buildURL("trending", mediaType, "week")
	if err != nil {
		return nil, err
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	return mapListEntries(payload.Results, mediaType), nil
}

func (c *tmdbClient) popular(ctx context.Context, mediaType string) ([]models.CatalogTitle, error) {
	if !c.isConfigured() {
		return nil, ErrNotConfigured
	}

	endpoint, err := c.buildURL(mediaType, "popular")
	if err != nil {
		return nil, err
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	return mapListEntries(payload.Results, mediaType), nil
}

func (c *tmdbClient) topRated(ctx context.Context, mediaType string) ([]models.CatalogTitle, error) {
	if !c.isConfigured() {
		return nil, ErrNotConfigured
	}

	endpoint, err := c.buildURL(mediaType, "top_rated")
	if err != nil {
		return nil, err
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	return mapListEntries(payload.Results, mediaType), nil
}

func (c *tmdbClient) search(ctx context.Context, query string) ([]models.CatalogTitle, error) {
	if !c.isConfigured() {
		return nil, ErrNotConfigured
	}

	endpoint, err := c.buildURL("search", "multi")
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("include_adult", "false")
	u.RawQuery = q.Encode()

	var payload tmdbListResponse
	if err := c.doGET(ctx, u.String(), &payload); err != nil {
		return nil, err
	}

	titles := make([]models.CatalogTitle, 0, len(payload.Results))
	for _, entry := range payload.Results {
		if entry.MediaType != models.MediaTypeMovie && entry.MediaType != models.MediaTypeTV {
			continue
		}
		titles = append(titles, mapListEntry(entry, entry.MediaType))
	}

	return titles, nil
}

func (c *tmdbClient) details(ctx context.Context, ref models.ContentRef) (models.CatalogTitle, error) {
	if !c.isConfigured() {
		return models.CatalogTitle{}, ErrNotConfigured
	}

	endpoint, err := c.buildURL(ref.MediaType, fmt.Sprintf("%d", ref.TmdbID))
	if err != nil {
		return models.CatalogTitle{}, err
	}

	var entry tmdbListEntry
	if err := c.doGET(ctx, endpoint, &entry); err != nil {
		return models.CatalogTitle{}, err
	}

	return mapListEntry(entry, ref.MediaType), nil
}

func mapListEntries(entries []tmdbListEntry, mediaType string) []models.CatalogTitle {
	titles := make([]models.CatalogTitle, 0, len(entries))
	for _, entry := range entries {
		titles = append(titles, mapListEntry(entry, mediaType))
	}
	return titles
}

func mapListEntry(entry tmdbListEntry, mediaType string) models.CatalogTitle {
	return models.CatalogTitle{
		TmdbID:       entry.ID,
		MediaType:    mediaType,
		Title:        pickName(mediaType, entry.Name, entry.Title),
		Overview:     entry.Overview,
		PosterPath:   buildImageURL(entry.PosterPath, tmdbPosterSize),
		BackdropPath: buildImageURL(entry.BackdropPath, tmdbBackdropSize),
		ReleaseDate:  pickDate(entry.ReleaseDate, entry.FirstAirDate),
		VoteAverage:  entry.VoteAverage,
	}
}

func pickName(mediaType, seriesName, movieTitle string) string {
	if mediaType == models.MediaTypeMovie && movieTitle != "" {
		return movieTitle
	}
	if seriesName != "" {
		return seriesName
	}
	return movieTitle
}

func pickDate(movieDate, seriesDate string) string {
	if movieDate != "" {
		return movieDate
	}
	return seriesDate
}

func buildImageURL(imagePath, size string) string {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, path.Join(size, strings.TrimPrefix(trimmed, "/")))
}

func normaliseLanguage(lang string) string {
	lang = strings.ReplaceAll(lang, "_", "-")
	if len(lang) == 2 {
		return strings.ToLower(lang) + "-US"
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:])
	}
	return "en-US"
}
