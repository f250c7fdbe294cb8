package doctors

import "errors"

var (
	// ErrDoctorNotFound is returned when a doctor id does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrInvalidName is returned when the name is missing.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidSpecialty is returned when the specialty is missing.
	ErrInvalidSpecialty = errors.New("specialty is required")
)
