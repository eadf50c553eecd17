package domain

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Shared lookup tables. Rows are created on first use and linked to
// practitioners through the join tables below; names are unique.

type Specialty struct {
	bun.BaseModel `bun:"table:specialties"`

	ID   uuid.UUID `bun:"id,pk,type:uuid"`
	Name string    `bun:"name,notnull,unique"`
}

type Education struct {
	bun.BaseModel `bun:"table:educations"`

	ID   uuid.UUID `bun:"id,pk,type:uuid"`
	Name string    `bun:"name,notnull,unique"`
}

type Tag struct {
	bun.BaseModel `bun:"table:tags"`

	ID   uuid.UUID `bun:"id,pk,type:uuid"`
	Name string    `bun:"name,notnull,unique"`
}

type Language struct {
	bun.BaseModel `bun:"table:languages"`

	ID   uuid.UUID `bun:"id,pk,type:uuid"`
	Name string    `bun:"name,notnull,unique"`
}

type PractitionerSpecialty struct {
	bun.BaseModel `bun:"table:practitioner_specialties"`

	PractitionerID uuid.UUID `bun:"practitioner_id,pk,type:uuid"`
	SpecialtyID    uuid.UUID `bun:"specialty_id,pk,type:uuid"`
}

type PractitionerEducation struct {
	bun.BaseModel `bun:"table:practitioner_educations"`

	PractitionerID uuid.UUID `bun:"practitioner_id,pk,type:uuid"`
	EducationID    uuid.UUID `bun:"education_id,pk,type:uuid"`
}

type PractitionerTag struct {
	bun.BaseModel `bun:"table:practitioner_tags"`

	PractitionerID uuid.UUID `bun:"practitioner_id,pk,type:uuid"`
	TagID          uuid.UUID `bun:"tag_id,pk,type:uuid"`
}

type PractitionerLanguage struct {
	bun.BaseModel `bun:"table:practitioner_languages"`

	PractitionerID uuid.UUID `bun:"practitioner_id,pk,type:uuid"`
	LanguageID     uuid.UUID `bun:"language_id,pk,type:uuid"`
}
