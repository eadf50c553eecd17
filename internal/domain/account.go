package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if u.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			u.ID = id
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		if u.UpdatedAt.IsZero() {
			u.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		u.UpdatedAt = now
	}
	return nil
}

type Address struct {
	bun.BaseModel `bun:"table:addresses"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	Label      string    `bun:"label"`
	Street     string    `bun:"street,notnull"`
	Number     string    `bun:"number,notnull"`
	District   string    `bun:"district"`
	City       string    `bun:"city,notnull"`
	State      string    `bun:"state,notnull"`
	PostalCode string    `bun:"postal_code"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (a *Address) BeforeAppendModel(ctx context.Context, query bun.Query) error {
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

type Phone struct {
	bun.BaseModel `bun:"table:phones"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	AreaCode  string    `bun:"area_code,notnull"`
	Number    string    `bun:"number,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (p *Phone) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			p.ID = id
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}

// Patient is the care-receiver profile. SelfResponsible is false when
// the account was registered by a guardian, in which case GuardianName
// names the responsible adult.
type Patient struct {
	bun.BaseModel `bun:"table:patients"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	UserID          uuid.UUID `bun:"user_id,notnull,type:uuid"`
	AddressID       uuid.UUID `bun:"address_id,notnull,type:uuid"`
	Name            string    `bun:"name,notnull"`
	CPF             string    `bun:"cpf,notnull,unique"`
	SelfResponsible bool      `bun:"self_responsible,notnull"`
	GuardianName    *string   `bun:"guardian_name"`
	BirthDate       time.Time `bun:"birth_date,notnull"`
	SupportLevel    *string   `bun:"support_level"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func (p *Patient) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			p.ID = id
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}

// Practitioner is the service-provider profile. RegistryType, number
// and state identify the professional council registration (CRM, CRP,
// CREFITO, ...).
type Practitioner struct {
	bun.BaseModel `bun:"table:practitioners"`

	ID               uuid.UUID `bun:"id,pk,type:uuid"`
	UserID           uuid.UUID `bun:"user_id,notnull,type:uuid"`
	AddressID        uuid.UUID `bun:"address_id,notnull,type:uuid"`
	Name             string    `bun:"name,notnull"`
	CPF              string    `bun:"cpf,notnull,unique"`
	RegistryType     string    `bun:"registry_type,notnull"`
	RegistryNumber   string    `bun:"registry_number,notnull"`
	RegistryState    string    `bun:"registry_state,notnull"`
	Description      *string   `bun:"description"`
	ConsultationFee  *float64  `bun:"consultation_fee"`
	AcceptsInsurance bool      `bun:"accepts_insurance,notnull,default:false"`
	HomeVisits       bool      `bun:"home_visits,notnull,default:false"`
	PhotoURL         *string   `bun:"photo_url"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
}

func (p *Practitioner) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			p.ID = id
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}

// PractitionerListing is a discovery result: the profile plus the
// joined data the marketplace cards display.
type PractitionerListing struct {
	Practitioner

	Address      Address
	Specialties  []string
	RatingScores []int
}

// AverageRating averages the listing's rated appointments, 0 when the
// practitioner has none.
func (l PractitionerListing) AverageRating() float64 {
	if len(l.RatingScores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range l.RatingScores {
		sum += s
	}
	return float64(sum) / float64(len(l.RatingScores))
}
