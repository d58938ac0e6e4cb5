package dto

// ChangeRoleRequest payload for role changes.
type ChangeRoleRequest struct {
	NewRole string `json:"newRole"`
	Reason  string `json:"reason"`
}

// StatusChangeRequest payload for deactivate/reactivate.
type StatusChangeRequest struct {
	Reason *string `json:"reason"`
}

// UpdateUserRequest payload for the combined admin update.
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Mobile *string `json:"mobile"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
	Reason *string `json:"reason"`
}

// UserListResponse pages the admin user listing.
type UserListResponse struct {
	Users   []UserView `json:"users"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
	HasMore bool       `json:"hasMore"`
}

// UserStatsResponse aggregates dashboard counts.
type UserStatsResponse struct {
	Total         int            `json:"total"`
	ByRole        map[string]int `json:"byRole"`
	ByStatus      map[string]int `json:"byStatus"`
	RecentSignups int            `json:"recentSignups"`
}
