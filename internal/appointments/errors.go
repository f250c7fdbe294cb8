package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when an appointment id does not
	// exist.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrDoctorNotFound is returned when booking references a doctor id
	// that does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")

	// ErrInvalidStatus is returned for status strings outside the known set.
	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrInvalidType is returned for type strings outside the known set.
	ErrInvalidType = errors.New("invalid appointment type")

	// ErrUnauthenticated is returned when booking is attempted without a
	// session.
	ErrUnauthenticated = errors.New("booking requires a signed-in user")
)
