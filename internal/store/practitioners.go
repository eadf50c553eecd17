package store

import (
	"context"

	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
)

// PractitionerFilter narrows a discovery search. Zero values mean the
// dimension is not filtered. IDs, when non-nil, restricts results to
// that set (used by the minimum-average-rating pre-pass); an empty
// non-nil slice therefore matches nothing.
type PractitionerFilter struct {
	IDs              []uuid.UUID
	Specialty        string
	City             string
	State            string
	AcceptsInsurance *bool
	HomeVisits       *bool
	MaxFee           *float64
	NameContains     string
	Education        string
}

// PractitionerProfileUpdate carries the mutable profile fields. Nil
// pointer fields are left untouched; Tags and Languages, when non-nil,
// replace the practitioner's current sets wholesale.
type PractitionerProfileUpdate struct {
	Description      *string
	ConsultationFee  *float64
	AcceptsInsurance *bool
	HomeVisits       *bool
	Tags             []string
	Languages        []string
}

type PractitionerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Practitioner, error)
	Search(ctx context.Context, filter PractitionerFilter) ([]domain.PractitionerListing, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, changes PractitionerProfileUpdate) (domain.Practitioner, error)
	SetPhotoURL(ctx context.Context, id uuid.UUID, url *string) (domain.Practitioner, error)
}
