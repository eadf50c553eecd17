package store

import (
	"context"

	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
)

// NewPatientAccount is everything a patient registration writes in one
// transaction.
type NewPatientAccount struct {
	User    domain.User
	Address domain.Address
	Patient domain.Patient
	Phone   domain.Phone
}

// NewPractitionerAccount is the practitioner counterpart; specialty and
// education names are created on first use and linked.
type NewPractitionerAccount struct {
	User         domain.User
	Address      domain.Address
	Practitioner domain.Practitioner
	Phone        domain.Phone
	Specialties  []string
	Educations   []string
}

type AccountRepository interface {
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	PatientByCPF(ctx context.Context, cpf string) (domain.Patient, error)
	PractitionerByCPF(ctx context.Context, cpf string) (domain.Practitioner, error)

	// Profile lookups by the owning user, used by the auth layer to
	// attach the caller's profile ids.
	PatientByUserID(ctx context.Context, userID uuid.UUID) (domain.Patient, error)
	PractitionerByUserID(ctx context.Context, userID uuid.UUID) (domain.Practitioner, error)

	CreatePatientAccount(ctx context.Context, in NewPatientAccount) (domain.User, domain.Patient, error)
	CreatePractitionerAccount(ctx context.Context, in NewPractitionerAccount) (domain.User, domain.Practitioner, error)

	PatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Patient, error)

	CountPatients(ctx context.Context) (int64, error)
	CountPractitioners(ctx context.Context) (int64, error)
}
