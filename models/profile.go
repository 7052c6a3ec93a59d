package models

import "time"

// Default values applied when a profile is created lazily on first touch.
const (
	DefaultProfileName     = "Primary"
	DefaultAvatarColor     = "red"
	DefaultProfileLanguage = "en"
)

// Profile holds a user's viewing preferences. Exactly one profile exists
// per user and it is created on demand with defaults.
type Profile struct {
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	AvatarColor      string    `json:"avatarColor"`
	IsKids           bool      `json:"isKids"`
	AutoplayNext     bool      `json:"autoplayNext"`
	AutoplayPreviews bool      `json:"autoplayPreviews"`
	Language         string    `json:"language"`
	UpdatedAt        time.Time `json:"updatedAt"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewProfile returns a profile populated with the stock defaults.
func NewProfile(userID string, now time.Time) Profile {
	return Profile{
		UserID:           userID,
		Name:             DefaultProfileName,
		AvatarColor:      DefaultAvatarColor,
		IsKids:           false,
		AutoplayNext:     true,
		AutoplayPreviews: true,
		Language:         DefaultProfileLanguage,
		UpdatedAt:        now,
		CreatedAt:        now,
	}
}

// PreferencePatch is a partial profile update. Nil fields leave the stored
// value untouched; set fields overwrite it, including explicit false/empty.
type PreferencePatch struct {
	Name             *string `json:"name,omitempty"`
	AvatarColor      *string `json:"avatarColor,omitempty"`
	IsKids           *bool   `json:"isKids,omitempty"`
	AutoplayNext     *bool   `json:"autoplayNext,omitempty"`
	AutoplayPreviews *bool   `json:"autoplayPreviews,omitempty"`
	Language         *string `json:"language,omitempty"`
}
