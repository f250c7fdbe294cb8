package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mediwrap/platform/internal/doctors"
	"github.com/mediwrap/platform/internal/notify"
	"github.com/mediwrap/platform/internal/observability/metrics"
	"github.com/mediwrap/platform/internal/session"
	"github.com/mediwrap/platform/pkg/logging"
)

// DoctorDirectory is the doctor lookup the booking flow validates against.
// doctors.Repository satisfies it.
type DoctorDirectory interface {
	Get(ctx context.Context, id int64) (*doctors.Doctor, error)
}

// Profiles resolves patient contact details for confirmation email.
type Profiles interface {
	Get(ctx context.Context, identityID string) (*session.Profile, error)
}

// Mailer enqueues asynchronous email jobs.
type Mailer interface {
	EnqueueEmail(ctx context.Context, msg notify.EmailMessage) error
}

// Service runs the booking and status-change flow: the durable write is
// awaited first, local/list state changes only after it succeeds, and a
// failed call leaves everything untouched except for exactly one failure
// notification.
type Service struct {
	repo     Repository
	dir      DoctorDirectory
	profiles Profiles
	notifier notify.Notifier
	mailer   Mailer
	metrics  *metrics.StoreMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService creates the appointment service. notifier, profiles, and
// mailer may be nil.
func NewService(repo Repository, dir DoctorDirectory, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, dir: dir, logger: logger, now: time.Now}
}

// WithNotifier attaches a notification publisher.
func (s *Service) WithNotifier(n notify.Notifier) *Service {
	s.notifier = n
	return s
}

// WithMailer attaches the profile lookup and email queue used for
// confirmation email.
func (s *Service) WithMailer(profiles Profiles, m Mailer) *Service {
	s.profiles = profiles
	s.mailer = m
	return s
}

// WithMetrics attaches the booking counters. m may be nil.
func (s *Service) WithMetrics(m *metrics.StoreMetrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) notifyInfo(ctx context.Context, identityID, title, description string) {
	if s.notifier != nil && identityID != "" {
		s.notifier.Publish(ctx, identityID, notify.Info(title, description))
	}
}

func (s *Service) notifyFailure(ctx context.Context, identityID, title, description string) {
	if s.notifier != nil && identityID != "" {
		s.notifier.Publish(ctx, identityID, notify.Destructive(title, description))
	}
}

// Book creates a pending appointment for the signed-in patient. Omitted
// date, time, and type fall back to today, the first morning slot, and a
// video consultation. The doctor must exist; booking never creates
// dangling doctor references.
func (s *Service) Book(ctx context.Context, sess *session.Session, req BookRequest) (*Appointment, error) {
	if sess == nil || sess.IdentityID == "" {
		return nil, ErrUnauthenticated
	}

	date, slot, typ, err := req.withDefaults(s.now())
	if err != nil {
		return nil, err
	}

	doctor, err := s.dir.Get(ctx, req.DoctorID)
	if errors.Is(err, doctors.ErrDoctorNotFound) {
		s.notifyFailure(ctx, sess.IdentityID, "Booking failed", "The selected doctor is no longer available")
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		s.logger.Error("booking: doctor lookup failed", "doctor_id", req.DoctorID, "error", err)
		s.notifyFailure(ctx, sess.IdentityID, "Booking failed", "The appointment could not be created")
		return nil, fmt.Errorf("booking: doctor lookup: %w", err)
	}

	appt := &Appointment{
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
		PatientID:   sess.IdentityID,
		PatientName: sess.DisplayName,
		Date:        date,
		Time:        slot,
		Type:        typ,
		Status:      StatusPending,
	}
	created, err := s.repo.Create(ctx, appt)
	if err != nil {
		s.logger.Error("booking: create failed", "doctor_id", doctor.ID, "patient_id", sess.IdentityID, "error", err)
		s.notifyFailure(ctx, sess.IdentityID, "Booking failed", "The appointment could not be created")
		return nil, err
	}

	s.metrics.ObserveBooking(string(created.Status))
	s.logger.Info("appointment booked",
		"appointment_id", created.ID,
		"doctor_id", created.DoctorID,
		"patient_id", created.PatientID,
		"type", string(created.Type),
	)
	s.notifyInfo(ctx, sess.IdentityID, "Appointment requested",
		fmt.Sprintf("Your appointment with %s on %s at %s is awaiting confirmation", doctor.Name, created.Date, created.Time))
	return created, nil
}

// UpdateStatus moves an appointment to a new status. A miss leaves every
// list unchanged and produces one failure notification for the caller.
// Confirmation additionally notifies the patient and enqueues an email.
func (s *Service) UpdateStatus(ctx context.Context, sess *session.Session, id int64, raw string) (*Appointment, error) {
	if sess == nil || sess.IdentityID == "" {
		return nil, ErrUnauthenticated
	}
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if errors.Is(err, ErrAppointmentNotFound) {
		s.notifyFailure(ctx, sess.IdentityID, "Update failed", "The appointment no longer exists")
		return nil, err
	}
	if err != nil {
		s.logger.Error("appointment status change failed", "appointment_id", id, "status", string(status), "error", err)
		s.notifyFailure(ctx, sess.IdentityID, "Update failed", "The appointment status could not be changed")
		return nil, err
	}

	s.metrics.ObserveBooking(string(updated.Status))
	s.logger.Info("appointment status changed", "appointment_id", id, "status", string(status))
	switch status {
	case StatusConfirmed:
		s.notifyInfo(ctx, updated.PatientID, "Appointment confirmed",
			fmt.Sprintf("Your appointment with %s on %s at %s is confirmed", updated.DoctorName, updated.Date, updated.Time))
		s.sendConfirmationEmail(ctx, updated)
	case StatusCanceled:
		s.notifyInfo(ctx, updated.PatientID, "Appointment canceled",
			fmt.Sprintf("Your appointment with %s on %s was canceled", updated.DoctorName, updated.Date))
	}
	return updated, nil
}

func (s *Service) sendConfirmationEmail(ctx context.Context, appt *Appointment) {
	if s.mailer == nil || s.profiles == nil {
		return
	}
	profile, err := s.profiles.Get(ctx, appt.PatientID)
	if err != nil {
		s.logger.Error("confirmation email: profile lookup failed", "patient_id", appt.PatientID, "error", err)
		return
	}
	msg := notify.AppointmentConfirmedEmail(profile.Email, profile.Name, appt.DoctorName, appt.Date, appt.Time)
	if err := s.mailer.EnqueueEmail(ctx, msg); err != nil {
		s.logger.Error("confirmation email: enqueue failed", "appointment_id", appt.ID, "error", err)
	}
}

// ListForPatient returns the signed-in patient's appointments.
func (s *Service) ListForPatient(ctx context.Context, sess *session.Session) ([]Appointment, error) {
	if sess == nil || sess.IdentityID == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.List(ctx, Filter{PatientID: sess.IdentityID})
}

// ListForDoctor returns a doctor's queue, optionally narrowed by status.
func (s *Service) ListForDoctor(ctx context.Context, doctorID int64, rawStatus string) ([]Appointment, error) {
	filter := Filter{DoctorID: doctorID}
	if rawStatus != "" {
		status, err := ParseStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}
	return s.repo.List(ctx, filter)
}
