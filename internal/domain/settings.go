package domain

import "time"

// UserSettings holds per-user preference documents.
type UserSettings struct {
	UserID        string         `json:"userId"`
	Notifications map[string]bool `json:"notifications"`
	Privacy       map[string]any `json:"privacy"`
	Security      map[string]any `json:"security"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// DefaultSettings returns the settings applied when a user has none stored.
func DefaultSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID: userID,
		Notifications: map[string]bool{
			"email":          true,
			"repair_updates": true,
			"marketing":      false,
		},
		Privacy:  map[string]any{"profile_visible": true},
		Security: map[string]any{"two_factor_enabled": false},
	}
}
