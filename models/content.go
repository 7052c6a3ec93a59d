package models

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MediaTypeMovie identifies feature-length catalog entries.
	MediaTypeMovie = "movie"
	// MediaTypeTV identifies episodic catalog entries.
	MediaTypeTV = "tv"
)

var (
	ErrTmdbIDRequired    = errors.New("tmdb id is required")
	ErrMediaTypeRequired = errors.New("media type must be movie or tv")
)

// ContentRef identifies a piece of media by its external catalog id plus
// media kind. Season/Episode participate in identity only for tv content:
// a movie and a tv show sharing a TMDB id never collide, and neither do a
// show-level record and an episode-level record.
type ContentRef struct {
	TmdbID    int64  `json:"tmdbId"`
	MediaType string `json:"mediaType"` // movie | tv
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
}

// MovieRef builds a reference to a movie.
func MovieRef(tmdbID int64) ContentRef {
	return ContentRef{TmdbID: tmdbID, MediaType: MediaTypeMovie}
}

// EpisodeRef builds a reference to a specific episode of a show.
func EpisodeRef(tmdbID int64, season, episode int) ContentRef {
	return ContentRef{TmdbID: tmdbID, MediaType: MediaTypeTV, Season: season, Episode: episode}
}

// Normalise lowercases the media type and drops episode coordinates that
// cannot apply to the media kind.
func (c ContentRef) Normalise() ContentRef {
	c.MediaType = strings.ToLower(strings.TrimSpace(c.MediaType))
	if c.MediaType != MediaTypeTV {
		c.Season = 0
		c.Episode = 0
	}
	return c
}

// Validate reports whether the reference can identify a record.
func (c ContentRef) Validate() error {
	if c.TmdbID <= 0 {
		return ErrTmdbIDRequired
	}
	if c.MediaType != MediaTypeMovie && c.MediaType != MediaTypeTV {
		return ErrMediaTypeRequired
	}
	return nil
}

// HasEpisode reports whether the reference pins a specific episode.
func (c ContentRef) HasEpisode() bool {
	return c.MediaType == MediaTypeTV && c.Season > 0 && c.Episode > 0
}

// Key returns the stable composite identity used by the stores, e.g.
// "movie:550", "tv:1399" or "tv:1399:s01e02".
func (c ContentRef) Key() string {
	if c.HasEpisode() {
		return fmt.Sprintf("%s:%d:s%02de%02d", c.MediaType, c.TmdbID, c.Season, c.Episode)
	}
	return fmt.Sprintf("%s:%d", c.MediaType, c.TmdbID)
}
