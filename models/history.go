package models

import "time"

// WatchHistoryItem records how far a user got into a piece of content.
// Identity is the user plus the full ContentRef, so an episode row never
// collides with the row for its parent series.
type WatchHistoryItem struct {
	ID         string     `json:"id"`
	Ref        ContentRef `json:"ref"`
	Title      string     `json:"title,omitempty"`
	PosterPath string     `json:"posterPath,omitempty"`
	PositionMs int64      `json:"positionMs"`
	DurationMs int64      `json:"durationMs,omitempty"` // 0 means unknown
	UpdatedAt  time.Time  `json:"updatedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Completed reports whether the recorded position is within the final
// thirty seconds of a known duration.
func (w WatchHistoryItem) Completed() bool {
	if w.DurationMs <= 0 {
		return false
	}
	return w.PositionMs >= w.DurationMs-30_000
}

// HistoryUpsert is the payload for touching a history row without moving
// the playhead. Title and poster refresh the stored copies when non-empty.
type HistoryUpsert struct {
	Ref        ContentRef `json:"ref"`
	Title      string     `json:"title,omitempty"`
	PosterPath string     `json:"posterPath,omitempty"`
}

// ProgressPatch describes a playhead update. Pointer fields distinguish an
// omitted value from an explicit zero: a nil PositionMs with a set DeltaMs
// nudges the stored position, while a set PositionMs wins outright.
type ProgressPatch struct {
	Ref        ContentRef `json:"ref"`
	PositionMs *int64     `json:"positionMs,omitempty"`
	DeltaMs    *int64     `json:"deltaMs,omitempty"`
	DurationMs *int64     `json:"durationMs,omitempty"`
	Title      string     `json:"title,omitempty"`
	PosterPath string     `json:"posterPath,omitempty"`
}
