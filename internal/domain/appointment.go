package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentFinalized AppointmentStatus = "FINALIZED"
	AppointmentCanceled  AppointmentStatus = "CANCELED"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid"`
	PractitionerID  uuid.UUID         `bun:"practitioner_id,notnull,type:uuid"`
	PatientID       uuid.UUID         `bun:"patient_id,notnull,type:uuid"`
	AddressID       uuid.UUID         `bun:"address_id,notnull,type:uuid"`
	StartTime       time.Time         `bun:"start_time,notnull"`
	DurationMinutes int               `bun:"duration_minutes,notnull"`
	Status          AppointmentStatus `bun:"status,notnull"`
	RatingScore     *int              `bun:"rating_score"`
	RatingComment   *string           `bun:"rating_comment"`
	CreatedAt       time.Time         `bun:"created_at,notnull"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// AppointmentWithActors carries the user ids behind the appointment's
// patient and practitioner profiles, for the permission checks on
// finalize and cancel.
type AppointmentWithActors struct {
	Appointment

	PatientUserID      uuid.UUID
	PractitionerUserID uuid.UUID
}

// PatientAppointment is the patient-facing agenda row: the booking plus
// the practitioner and address details shown alongside it.
type PatientAppointment struct {
	Appointment

	PractitionerName     string
	PractitionerPhotoURL *string
	Address              Address
}
