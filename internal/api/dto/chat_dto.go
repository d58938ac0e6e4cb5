package dto

// ChatRequest payload for assistant queries.
type ChatRequest struct {
	Query   string         `json:"query"`
	Context map[string]any `json:"context"`
}

// SettingsRequest payload for per-user settings updates. Nil sections are
// left untouched.
type SettingsRequest struct {
	Notifications map[string]bool `json:"notifications"`
	Privacy       map[string]any  `json:"privacy"`
	Security      map[string]any  `json:"security"`
}

// PermissionUpsertRequest payload for replacing a role's permission document.
type PermissionUpsertRequest struct {
	Description string                           `json:"description"`
	Resources   map[string]ResourcePermissionDTO `json:"resources"`
}

// ResourcePermissionDTO is one resource grant inside a permission document.
type ResourcePermissionDTO struct {
	Actions []string `json:"actions"`
	Scope   string   `json:"scope"`
}
