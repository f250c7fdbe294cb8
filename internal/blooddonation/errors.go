package blooddonation

import "errors"

var (
	// ErrInvalidBloodType is returned for strings outside the eight
	// ABO/Rh groups.
	ErrInvalidBloodType = errors.New("invalid blood type")

	// ErrInvalidName is returned when the donor name is missing.
	ErrInvalidName = errors.New("name is required")

	// ErrRequestNotFound is returned when a blood request id does not
	// exist.
	ErrRequestNotFound = errors.New("blood request not found")
)
