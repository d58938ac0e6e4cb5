package service

import (
	"fmt"
	"strings"

	"github.com/spec-kit/gadgetcloud-admin/internal/domain"
	apperrors "github.com/spec-kit/gadgetcloud-admin/pkg/util"
)

const minReasonLength = 10

func errInvalidRole(role domain.Role) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("invalid role: %s (must be one of: customer, partner, support, admin)", role),
		map[string]any{"role": string(role)})
}

func errInvalidStatus(status domain.UserStatus) error {
	return apperrors.NewValidationError(
		fmt.Sprintf("invalid status: %s (must be one of: active, inactive, suspended)", status),
		map[string]any{"status": string(status)})
}

// validateReason enforces the audit-reason guard: at least 10 characters
// after trimming.
func validateReason(reason string) error {
	if len(strings.TrimSpace(reason)) < minReasonLength {
		return apperrors.NewValidationError("reason must be at least 10 characters long", nil)
	}
	return nil
}
