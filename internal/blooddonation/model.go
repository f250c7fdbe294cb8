package blooddonation

import (
	"fmt"
	"strings"
	"time"
)

// BloodType is one of the eight ABO/Rh groups.
type BloodType string

var bloodTypes = map[BloodType]bool{
	"A+": true, "A-": true,
	"B+": true, "B-": true,
	"AB+": true, "AB-": true,
	"O+": true, "O-": true,
}

// ParseBloodType validates a raw blood type string.
func ParseBloodType(raw string) (BloodType, error) {
	bt := BloodType(strings.ToUpper(strings.TrimSpace(raw)))
	if !bloodTypes[bt] {
		return "", fmt.Errorf("%w: %q", ErrInvalidBloodType, raw)
	}
	return bt, nil
}

// Donor is a registered blood donor.
type Donor struct {
	ID           int64     `json:"id"`
	IdentityID   string    `json:"identity_id,omitempty"`
	Name         string    `json:"name"`
	BloodType    BloodType `json:"blood_type"`
	Phone        string    `json:"phone,omitempty"`
	City         string    `json:"city,omitempty"`
	LastDonation string    `json:"last_donation,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegisterDonorRequest is the payload for donor registration.
type RegisterDonorRequest struct {
	Name         string `json:"name"`
	BloodType    string `json:"blood_type"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	LastDonation string `json:"last_donation"`
}

// Validate checks required fields and the blood type enum.
func (r *RegisterDonorRequest) Validate() (BloodType, error) {
	if strings.TrimSpace(r.Name) == "" {
		return "", ErrInvalidName
	}
	return ParseBloodType(r.BloodType)
}

// Center is a donation center, with the blood types it urgently needs.
type Center struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Hours       string      `json:"hours"`
	UrgentTypes []BloodType `json:"urgent_types"`
}

// Request is an open blood request a donor can ask to be notified about.
type Request struct {
	ID        int64     `json:"id"`
	BloodType BloodType `json:"blood_type"`
	Hospital  string    `json:"hospital"`
	Urgency   string    `json:"urgency"`
	NotifyIDs []string  `json:"notify_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
