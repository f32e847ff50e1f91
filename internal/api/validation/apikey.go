package validation

// CreateAPIKeyRequest mirrors the fields needed for API key create validation.
type CreateAPIKeyRequest struct {
	Name    string
	Key     string
	Service string
}

// ValidateCreateAPIKeyRequest validates the fields of a create API key request.
func ValidateCreateAPIKeyRequest(req CreateAPIKeyRequest) []FieldError {
	var errs []FieldError

	if req.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(req.Name) > 100 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be 100 characters or fewer"})
	}

	if req.Key == "" {
		errs = append(errs, FieldError{Field: "key", Message: "key is required"})
	} else if len(req.Key) > 255 {
		errs = append(errs, FieldError{Field: "key", Message: "key must be 255 characters or fewer"})
	}

	if req.Service == "" {
		errs = append(errs, FieldError{Field: "service", Message: "service is required"})
	} else if len(req.Service) > 100 {
		errs = append(errs, FieldError{Field: "service", Message: "service must be 100 characters or fewer"})
	}

	return errs
}
