package appointments

import (
	"fmt"
	"strings"
	"time"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCanceled:
		return StatusCanceled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Type is the consultation channel.
type Type string

const (
	TypeVideo    Type = "video"
	TypeInPerson Type = "in-person"
)

// ParseType validates a raw type string.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeVideo:
		return TypeVideo, nil
	case TypeInPerson:
		return TypeInPerson, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, raw)
	}
}

// Appointment links one doctor and one patient identity by id. Neither
// reference cascades: deleting a doctor leaves the appointment row behind.
type Appointment struct {
	ID          int64     `json:"id"`
	DoctorID    int64     `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Type        Type      `json:"type"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookRequest is the payload for booking a consultation. Omitted fields
// take booking defaults: today's date, the first morning slot, video.
type BookRequest struct {
	DoctorID int64  `json:"doctor_id"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Type     string `json:"type,omitempty"`
}

const defaultSlot = "10:00 AM"

func (r *BookRequest) withDefaults(now time.Time) (date, slot string, typ Type, err error) {
	date = r.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	slot = r.Time
	if slot == "" {
		slot = defaultSlot
	}
	typ = TypeVideo
	if r.Type != "" {
		typ, err = ParseType(r.Type)
		if err != nil {
			return "", "", "", err
		}
	}
	return date, slot, typ, nil
}

// Filter narrows appointment listings. Zero values mean "no constraint".
type Filter struct {
	PatientID string
	DoctorID  int64
	Status    Status
}

func (a *Appointment) matches(f Filter) bool {
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != 0 && a.DoctorID != f.DoctorID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}
