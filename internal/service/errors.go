package service

import (
	"errors"
	"fmt"

	"occ-api/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("access denied")
	ErrConflict  = errors.New("already exists")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrInactiveUser       = errors.New("user is inactive")

	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrRoleNotFound         = fmt.Errorf("role %w", ErrNotFound)
	ErrClientNotFound       = fmt.Errorf("client %w", ErrNotFound)
	ErrCompanyNotFound      = fmt.Errorf("company %w", ErrNotFound)
	ErrReportNotFound       = fmt.Errorf("tax calculation report %w", ErrNotFound)
	ErrCNAENotFound         = fmt.Errorf("CNAE %w", ErrNotFound)
	ErrPostNotFound         = fmt.Errorf("post %w", ErrNotFound)
	ErrCategoryNotFound     = fmt.Errorf("category %w", ErrNotFound)
	ErrSurveyNotFound       = fmt.Errorf("survey %w", ErrNotFound)
	ErrTaxPlanNotFound      = fmt.Errorf("tax plan %w", ErrNotFound)
	ErrPlanEntryNotFound    = fmt.Errorf("tax plan entry %w", ErrNotFound)
	ErrActivityTypeNotFound = fmt.Errorf("activity type %w", ErrNotFound)

	ErrEmailTaken      = fmt.Errorf("email %w", ErrConflict)
	ErrCNPJTaken       = fmt.Errorf("CNPJ %w", ErrConflict)
	ErrNameTaken       = fmt.Errorf("name %w", ErrConflict)
	ErrAlreadyAnswered = fmt.Errorf("survey response %w", ErrConflict)
)

// InputError is a request field that failed a business rule binding tags
// cannot express.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Field + ": " + e.Message
}

func invalidInput(field, format string, args ...any) error {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Actor is the authenticated caller of a service method.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsStaff() bool { return model.IsStaffRole(a.Role) }

func (a Actor) userRef() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}
