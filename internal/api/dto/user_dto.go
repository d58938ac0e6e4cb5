package dto

import (
	"time"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Mobile   string `json:"mobile"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserView is the API shape of an account.
type UserView struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	FirstName       string     `json:"firstName,omitempty"`
	LastName        string     `json:"lastName,omitempty"`
	Mobile          string     `json:"mobile,omitempty"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	PreviousRole    *string    `json:"previousRole,omitempty"`
	RoleChangedAt   *time.Time `json:"roleChangedAt,omitempty"`
	RoleChangedBy   *string    `json:"roleChangedBy,omitempty"`
	StatusChangedAt *time.Time `json:"statusChangedAt,omitempty"`
	StatusChangedBy *string    `json:"statusChangedBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewUserView maps a domain user to its API shape. The password hash never
// leaves the service.
func NewUserView(user *domain.User) UserView {
	view := UserView{
		ID:              user.ID,
		Email:           user.Email,
		Name:            user.Name,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Mobile:          user.Mobile,
		Role:            string(user.Role),
		Status:          string(user.Status),
		RoleChangedAt:   user.RoleChangedAt,
		RoleChangedBy:   user.RoleChangedBy,
		StatusChangedAt: user.StatusChangedAt,
		StatusChangedBy: user.StatusChangedBy,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
	if user.PreviousRole != nil {
		prev := string(*user.PreviousRole)
		view.PreviousRole = &prev
	}
	return view
}

// NewUserViews maps a slice of users.
func NewUserViews(users []domain.User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, NewUserView(&users[i]))
	}
	return views
}
