package domain

import "time"

// Recognized theme preference values.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// UserPreference holds per-user console UI preferences. The theme is plain
// preference state: read on load, written on toggle.
type UserPreference struct {
	UserEmail string    `json:"user_email" db:"user_email"`
	Theme     string    `json:"theme" db:"theme"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpdatePreferenceRequest is the request body for updating preferences.
type UpdatePreferenceRequest struct {
	Theme string `json:"theme"`
}
