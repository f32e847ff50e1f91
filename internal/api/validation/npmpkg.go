package validation

import "strings"

// CreatePackageRequest mirrors the fields needed for package create validation.
type CreatePackageRequest struct {
	Name    string
	Version string
}

// ValidateCreatePackageRequest validates the fields of a create package request.
func ValidateCreatePackageRequest(req CreatePackageRequest) []FieldError {
	var errs []FieldError

	if req.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(req.Name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be 255 characters or fewer"})
	}

	if req.Version == "" {
		errs = append(errs, FieldError{Field: "version", Message: "version is required"})
	} else if len(req.Version) > 50 {
		errs = append(errs, FieldError{Field: "version", Message: "version must be 50 characters or fewer"})
	}

	return errs
}

// ValidateInstallRequest validates a package install request. The package
// name is passed straight to the npm subprocess as a single argv element, so
// reject anything that could smuggle flags or whitespace.
func ValidateInstallRequest(packageName, version string) []FieldError {
	var errs []FieldError

	if packageName == "" {
		errs = append(errs, FieldError{Field: "package_name", Message: "package_name is required"})
	} else if strings.HasPrefix(packageName, "-") || strings.ContainsAny(packageName, " \t\n") {
		errs = append(errs, FieldError{Field: "package_name", Message: "package_name must not contain whitespace or start with a dash"})
	}

	if strings.ContainsAny(version, " \t\n") || strings.HasPrefix(version, "-") {
		errs = append(errs, FieldError{Field: "version", Message: "version must not contain whitespace or start with a dash"})
	}

	return errs
}
