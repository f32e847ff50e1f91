package validation

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RegisterRequest mirrors the fields needed for registration validation.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// ValidateRegisterRequest validates the fields of a user registration request.
// Returns a slice of field errors; empty slice means valid.
func ValidateRegisterRequest(req RegisterRequest) []FieldError {
	var errs []FieldError

	if req.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	} else if len(req.Username) > 50 {
		errs = append(errs, FieldError{Field: "username", Message: "username must be 50 characters or fewer"})
	}

	if req.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if !emailRegex.MatchString(req.Email) || len(req.Email) > 100 {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address of 100 characters or fewer"})
	}

	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	} else if len(req.Password) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead.
		errs = append(errs, FieldError{Field: "password", Message: "password must be 72 characters or fewer"})
	}

	return errs
}

// ValidateLoginRequest validates a username/password login request.
func ValidateLoginRequest(username, password string) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(username) == "" {
		errs = append(errs, FieldError{Field: "username", Message: "username is required"})
	}
	if password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}
