package models

import "time"

// Favorite represents a catalog entry the user saved to their list. Identity
// is (user, tmdbId, mediaType); the surrogate ID never leaves the store
// layer since callers only know the identity tuple.
type Favorite struct {
	ID         string    `json:"id"`
	TmdbID     int64     `json:"tmdbId"`
	MediaType  string    `json:"mediaType"` // movie | tv
	Title      string    `json:"title"`
	PosterPath string    `json:"posterPath,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Key returns the composite identity of the favorite within a user's list.
func (f Favorite) Key() string {
	return ContentRef{TmdbID: f.TmdbID, MediaType: f.MediaType}.Key()
}

// FavoriteUpsert captures the data required to add or refresh a favorite.
type FavoriteUpsert struct {
	TmdbID     int64  `json:"tmdbId"`
	MediaType  string `json:"mediaType"`
	Title      string `json:"title"`
	PosterPath string `json:"posterPath,omitempty"`
}
