package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
)

// AppointmentRepository holds booked appointments and their lifecycle.
type AppointmentRepository interface {
	// Book inserts the appointment as SCHEDULED after re-checking,
	// inside the same transaction, that no SCHEDULED appointment
	// exists for the same practitioner and exact start instant.
	// Returns ErrConflict when the slot was taken.
	Book(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)

	// FindConflict returns the SCHEDULED appointment starting at
	// exactly start for the practitioner, or ErrNotFound. Equality is
	// the exact timestamp, not interval overlap.
	FindConflict(ctx context.Context, practitionerID uuid.UUID, start time.Time) (domain.Appointment, error)

	// ListForDay returns SCHEDULED appointments whose start falls in
	// [dayStart, dayEnd].
	ListForDay(ctx context.Context, practitionerID uuid.UUID, dayStart, dayEnd time.Time) ([]domain.Appointment, error)

	GetWithActors(ctx context.Context, id uuid.UUID) (domain.AppointmentWithActors, error)

	// UpdateStatus performs a conditional single-row transition and
	// returns ErrNotFound when the row is missing or no longer in the
	// from status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.AppointmentStatus) (domain.Appointment, error)

	SetRating(ctx context.Context, id uuid.UUID, score int, comment *string) (domain.Appointment, error)

	ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]domain.PatientAppointment, error)
	ActivePatientIDs(ctx context.Context, practitionerID uuid.UUID) ([]uuid.UUID, error)

	// PractitionerIDsWithMinRating groups rated appointments by
	// practitioner and keeps those whose average score is >= min.
	PractitionerIDsWithMinRating(ctx context.Context, min float64) ([]uuid.UUID, error)

	// AverageRating averages all non-null rating scores, 0 when none.
	AverageRating(ctx context.Context) (float64, error)
}
