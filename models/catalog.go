package models

// CatalogTitle is a browsable movie or show as returned by the metadata
// provider, trimmed to the fields the frontend renders.
type CatalogTitle struct {
	TmdbID       int64   `json:"tmdbId"`
	MediaType    string  `json:"mediaType"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"posterPath,omitempty"`
	BackdropPath string  `json:"backdropPath,omitempty"`
	ReleaseDate  string  `json:"releaseDate,omitempty"`
	VoteAverage  float64 `json:"voteAverage,omitempty"`
}

// CatalogRow is a named shelf of titles for the home screen.
type CatalogRow struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Titles []CatalogTitle `json:"titles"`
}
