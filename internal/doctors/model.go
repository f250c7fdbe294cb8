package doctors

import "strings"

// Doctor is a bookable practitioner profile.
type Doctor struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	Hospital        string  `json:"hospital"`
	Rating          float64 `json:"rating"`
	ReviewCount     int     `json:"review_count"`
	Fee             float64 `json:"fee"`
	Location        string  `json:"location"`
	Education       string  `json:"education,omitempty"`
	Experience      string  `json:"experience,omitempty"`
	ImageRef        string  `json:"image_ref,omitempty"`
	Online          bool    `json:"online"`
	Available       bool    `json:"available"`
	NextAvailableAt string  `json:"next_available_at,omitempty"`
}

// CreateDoctorRequest is the payload for registering a doctor.
type CreateDoctorRequest struct {
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	Hospital        string  `json:"hospital"`
	Fee             float64 `json:"fee"`
	Location        string  `json:"location"`
	Education       string  `json:"education"`
	Experience      string  `json:"experience"`
	ImageRef        string  `json:"image_ref"`
	Online          bool    `json:"online"`
	Available       bool    `json:"available"`
	NextAvailableAt string  `json:"next_available_at"`
}

// Validate checks required fields before any remote call is attempted.
func (r *CreateDoctorRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Specialty) == "" {
		return ErrInvalidSpecialty
	}
	return nil
}

// UpdateDoctorRequest is a partial update; nil fields are left untouched.
type UpdateDoctorRequest struct {
	Name            *string  `json:"name,omitempty"`
	Specialty       *string  `json:"specialty,omitempty"`
	Hospital        *string  `json:"hospital,omitempty"`
	Fee             *float64 `json:"fee,omitempty"`
	Location        *string  `json:"location,omitempty"`
	Education       *string  `json:"education,omitempty"`
	Experience      *string  `json:"experience,omitempty"`
	ImageRef        *string  `json:"image_ref,omitempty"`
	Online          *bool    `json:"online,omitempty"`
	Available       *bool    `json:"available,omitempty"`
	NextAvailableAt *string  `json:"next_available_at,omitempty"`
}

func (r *UpdateDoctorRequest) apply(d *Doctor) {
	if r.Name != nil {
		d.Name = *r.Name
	}
	if r.Specialty != nil {
		d.Specialty = *r.Specialty
	}
	if r.Hospital != nil {
		d.Hospital = *r.Hospital
	}
	if r.Fee != nil {
		d.Fee = *r.Fee
	}
	if r.Location != nil {
		d.Location = *r.Location
	}
	if r.Education != nil {
		d.Education = *r.Education
	}
	if r.Experience != nil {
		d.Experience = *r.Experience
	}
	if r.ImageRef != nil {
		d.ImageRef = *r.ImageRef
	}
	if r.Online != nil {
		d.Online = *r.Online
	}
	if r.Available != nil {
		d.Available = *r.Available
	}
	if r.NextAvailableAt != nil {
		d.NextAvailableAt = *r.NextAvailableAt
	}
}

// matches reports whether the doctor matches a case-insensitive substring
// search on name, specialty, or hospital.
func (d *Doctor) matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(d.Name), term) ||
		strings.Contains(strings.ToLower(d.Specialty), term) ||
		strings.Contains(strings.ToLower(d.Hospital), term)
}
