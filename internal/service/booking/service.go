// Package booking coordinates the appointment lifecycle: reserving a
// slot against the practitioner's work grid, finalizing or canceling,
// and rating a finalized consultation.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
	"medagenda/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

var (
	ErrOutsideWorkingHours = errors.New("booking: start time outside working hours")
	ErrSlotTaken           = errors.New("booking: slot already taken")
	ErrForbidden           = errors.New("booking: actor not a party to the appointment")
	ErrInvalidState        = errors.New("booking: appointment not in the required status")
	ErrAlreadyRated        = errors.New("booking: appointment already rated")
)

type Service struct {
	appointments  store.AppointmentRepository
	schedules     store.WorkScheduleRepository
	practitioners store.PractitionerRepository
}

func NewService(appointments store.AppointmentRepository, schedules store.WorkScheduleRepository, practitioners store.PractitionerRepository) *Service {
	return &Service{
		appointments:  appointments,
		schedules:     schedules,
		practitioners: practitioners,
	}
}

type CreateInput struct {
	PatientID       uuid.UUID
	PractitionerID  uuid.UUID
	StartTime       time.Time
	DurationMinutes int
}

// Create books a slot. The start must land inside one of the
// practitioner's work-hour rules for that weekday and the exact instant
// must be free; the repository re-checks under the agenda lock so two
// concurrent calls cannot both win.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Appointment, error) {
	if in.PatientID == uuid.Nil {
		return domain.Appointment{}, validationError("patient_id is required")
	}
	if in.PractitionerID == uuid.Nil {
		return domain.Appointment{}, validationError("practitioner_id is required")
	}
	if in.StartTime.IsZero() {
		return domain.Appointment{}, validationError("start_time is required")
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = domain.SlotMinutes
	}
	if duration < 0 || duration > 24*60 {
		return domain.Appointment{}, validationError("duration_minutes out of range")
	}

	practitioner, err := s.practitioners.GetByID(ctx, in.PractitionerID)
	if err != nil {
		return domain.Appointment{}, err
	}

	start := in.StartTime.UTC()
	rules, err := s.schedules.RulesForDay(ctx, in.PractitionerID, domain.ISOWeekday(start))
	if err != nil {
		return domain.Appointment{}, err
	}
	if !domain.RuleCovers(rules, domain.MinuteOfDay(start)) {
		return domain.Appointment{}, ErrOutsideWorkingHours
	}

	_, err = s.appointments.FindConflict(ctx, in.PractitionerID, start)
	if err == nil {
		return domain.Appointment{}, ErrSlotTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Appointment{}, err
	}

	booked, err := s.appointments.Book(ctx, domain.Appointment{
		PractitionerID:  in.PractitionerID,
		PatientID:       in.PatientID,
		AddressID:       practitioner.AddressID,
		StartTime:       start,
		DurationMinutes: duration,
	})
	if errors.Is(err, store.ErrConflict) {
		return domain.Appointment{}, ErrSlotTaken
	}
	if err != nil {
		return domain.Appointment{}, err
	}
	return booked, nil
}

// Finalize marks a scheduled appointment as held. Either party may
// finalize.
func (s *Service) Finalize(ctx context.Context, actorUserID, appointmentID uuid.UUID) (domain.Appointment, error) {
	return s.transition(ctx, actorUserID, appointmentID, domain.AppointmentFinalized)
}

// Cancel releases a scheduled appointment's slot. Either party may
// cancel.
func (s *Service) Cancel(ctx context.Context, actorUserID, appointmentID uuid.UUID) (domain.Appointment, error) {
	return s.transition(ctx, actorUserID, appointmentID, domain.AppointmentCanceled)
}

func (s *Service) transition(ctx context.Context, actorUserID, appointmentID uuid.UUID, to domain.AppointmentStatus) (domain.Appointment, error) {
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	appt, err := s.appointments.GetWithActors(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if actorUserID != appt.PatientUserID && actorUserID != appt.PractitionerUserID {
		return domain.Appointment{}, ErrForbidden
	}

	updated, err := s.appointments.UpdateStatus(ctx, appointmentID, domain.AppointmentScheduled, to)
	if errors.Is(err, store.ErrNotFound) {
		// The row exists, so the conditional update missed on status.
		return domain.Appointment{}, ErrInvalidState
	}
	if err != nil {
		return domain.Appointment{}, err
	}
	return updated, nil
}

type RateInput struct {
	ActorUserID   uuid.UUID
	AppointmentID uuid.UUID
	Score         int
	Comment       *string
}

// Rate records the patient's score for a finalized appointment, once.
func (s *Service) Rate(ctx context.Context, in RateInput) (domain.Appointment, error) {
	if in.AppointmentID == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if in.Score < 1 || in.Score > 5 {
		return domain.Appointment{}, validationError("score must be between 1 and 5")
	}

	appt, err := s.appointments.GetWithActors(ctx, in.AppointmentID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if in.ActorUserID != appt.PatientUserID {
		return domain.Appointment{}, ErrForbidden
	}
	if appt.Status != domain.AppointmentFinalized {
		return domain.Appointment{}, ErrInvalidState
	}
	if appt.RatingScore != nil {
		return domain.Appointment{}, ErrAlreadyRated
	}

	rated, err := s.appointments.SetRating(ctx, in.AppointmentID, in.Score, in.Comment)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Appointment{}, ErrAlreadyRated
	}
	if err != nil {
		return domain.Appointment{}, err
	}
	return rated, nil
}

// ListByPatient returns the patient's scheduled appointments with the
// practitioner and address details their agenda screen shows.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.PatientAppointment, error) {
	if patientID == uuid.Nil {
		return nil, validationError("patient_id is required")
	}
	return s.appointments.ListActiveByPatient(ctx, patientID)
}
