// Package practitioners covers the provider side of the marketplace:
// the weekly work grid, computed day availability, discovery search,
// profile editing and the active patient roster.
package practitioners

import (
	"context"
	"fmt"
	"io"
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

// PhotoStorage is the object-store surface the profile photo flow
// needs.
type PhotoStorage interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, key string) error
}

type Service struct {
	practitioners store.PractitionerRepository
	schedules     store.WorkScheduleRepository
	appointments  store.AppointmentRepository
	accounts      store.AccountRepository
	photos        PhotoStorage
}

func NewService(
	practitioners store.PractitionerRepository,
	schedules store.WorkScheduleRepository,
	appointments store.AppointmentRepository,
	accounts store.AccountRepository,
	photos PhotoStorage,
) *Service {
	return &Service{
		practitioners: practitioners,
		schedules:     schedules,
		appointments:  appointments,
		accounts:      accounts,
		photos:        photos,
	}
}

// WorkGridEntry is one weekly rule as the API exchanges it: a day code
// (Monday 1 .. Sunday 7) plus "HH:MM" open and close labels.
type WorkGridEntry struct {
	DayOfWeek int
	Start     string
	End       string
}

// ReplaceWorkGrid swaps the practitioner's entire weekly grid for the
// given entries in one atomic write and returns the stored grid.
func (s *Service) ReplaceWorkGrid(ctx context.Context, practitionerID uuid.UUID, entries []WorkGridEntry) ([]domain.WorkHourRule, error) {
	if practitionerID == uuid.Nil {
		return nil, validationError("practitioner_id is required")
	}

	rules := make([]domain.WorkHourRule, 0, len(entries))
	for i, e := range entries {
		if e.DayOfWeek < 1 || e.DayOfWeek > 7 {
			return nil, validationError(fmt.Sprintf("entry %d: day_of_week must be 1..7", i))
		}
		start, err := domain.ParseClock(e.Start)
		if err != nil {
			return nil, validationError(fmt.Sprintf("entry %d: start: %v", i, err))
		}
		end, err := domain.ParseClock(e.End)
		if err != nil {
			return nil, validationError(fmt.Sprintf("entry %d: end: %v", i, err))
		}
		if end <= start {
			return nil, validationError(fmt.Sprintf("entry %d: end must be after start", i))
		}
		rules = append(rules, domain.WorkHourRule{
			DayOfWeek:   e.DayOfWeek,
			StartMinute: start,
			EndMinute:   end,
		})
	}

	return s.schedules.ReplaceRules(ctx, practitionerID, rules)
}

// WorkGrid returns the practitioner's stored weekly rules.
func (s *Service) WorkGrid(ctx context.Context, practitionerID uuid.UUID) ([]domain.WorkHourRule, error) {
	if practitionerID == uuid.Nil {
		return nil, validationError("practitioner_id is required")
	}
	return s.schedules.RulesFor(ctx, practitionerID)
}

// Availability computes the open "HH:MM" slot labels for one calendar
// date: the date's weekday rules expanded into slots, minus the labels
// of appointments already scheduled that day.
func (s *Service) Availability(ctx context.Context, practitionerID uuid.UUID, date time.Time) ([]string, error) {
	if practitionerID == uuid.Nil {
		return nil, validationError("practitioner_id is required")
	}
	if date.IsZero() {
		return nil, validationError("date is required")
	}

	rules, err := s.schedules.RulesForDay(ctx, practitionerID, domain.ISOWeekday(date))
	if err != nil {
		return nil, err
	}

	dayStart, dayEnd := domain.DayBounds(date)
	booked, err := s.appointments.ListForDay(ctx, practitionerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	return domain.DaySlots(rules, booked), nil
}

type SearchInput struct {
	Specialty        string
	City             string
	State            string
	AcceptsInsurance *bool
	HomeVisits       *bool
	MaxFee           *float64
	Name             string
	Education        string
	MinRating        *float64
}

// Search lists practitioners matching every given filter. A minimum
// rating runs as a pre-pass over rated appointments; its id set then
// restricts the main search, so no rated appointments means no results.
func (s *Service) Search(ctx context.Context, in SearchInput) ([]domain.PractitionerListing, error) {
	filter := store.PractitionerFilter{
		Specialty:        in.Specialty,
		City:             in.City,
		State:            in.State,
		AcceptsInsurance: in.AcceptsInsurance,
		HomeVisits:       in.HomeVisits,
		MaxFee:           in.MaxFee,
		NameContains:     in.Name,
		Education:        in.Education,
	}

	if in.MinRating != nil {
		ids, err := s.appointments.PractitionerIDsWithMinRating(ctx, *in.MinRating)
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		filter.IDs = ids
	}

	return s.practitioners.Search(ctx, filter)
}

// Get returns one practitioner's listing with address, specialties and
// rating scores hydrated.
func (s *Service) Get(ctx context.Context, practitionerID uuid.UUID) (domain.PractitionerListing, error) {
	if practitionerID == uuid.Nil {
		return domain.PractitionerListing{}, validationError("practitioner_id is required")
	}

	listings, err := s.practitioners.Search(ctx, store.PractitionerFilter{IDs: []uuid.UUID{practitionerID}})
	if err != nil {
		return domain.PractitionerListing{}, err
	}
	if len(listings) == 0 {
		return domain.PractitionerListing{}, store.ErrNotFound
	}
	return listings[0], nil
}

type ProfileUpdateInput struct {
	Description      *string
	ConsultationFee  *float64
	AcceptsInsurance *bool
	HomeVisits       *bool
	Tags             []string
	Languages        []string
}

// UpdateProfile applies the given fields; nil fields stay untouched,
// non-nil tag or language sets replace the current ones wholesale.
func (s *Service) UpdateProfile(ctx context.Context, practitionerID uuid.UUID, in ProfileUpdateInput) (domain.Practitioner, error) {
	if practitionerID == uuid.Nil {
		return domain.Practitioner{}, validationError("practitioner_id is required")
	}
	if in.ConsultationFee != nil && *in.ConsultationFee < 0 {
		return domain.Practitioner{}, validationError("consultation_fee must not be negative")
	}

	return s.practitioners.UpdateProfile(ctx, practitionerID, store.PractitionerProfileUpdate{
		Description:      in.Description,
		ConsultationFee:  in.ConsultationFee,
		AcceptsInsurance: in.AcceptsInsurance,
		HomeVisits:       in.HomeVisits,
		Tags:             in.Tags,
		Languages:        in.Languages,
	})
}

// SetPhoto uploads the photo and stores its URL on the profile. The
// object key is stable per practitioner so re-uploads overwrite.
func (s *Service) SetPhoto(ctx context.Context, practitionerID uuid.UUID, contentType string, r io.Reader, size int64) (domain.Practitioner, error) {
	if practitionerID == uuid.Nil {
		return domain.Practitioner{}, validationError("practitioner_id is required")
	}
	if size <= 0 {
		return domain.Practitioner{}, validationError("photo is empty")
	}
	if s.photos == nil {
		return domain.Practitioner{}, validationError("photo storage is not configured")
	}

	url, err := s.photos.Put(ctx, photoKey(practitionerID), contentType, r, size)
	if err != nil {
		return domain.Practitioner{}, err
	}
	return s.practitioners.SetPhotoURL(ctx, practitionerID, &url)
}

// RemovePhoto deletes the stored object and clears the profile URL.
func (s *Service) RemovePhoto(ctx context.Context, practitionerID uuid.UUID) (domain.Practitioner, error) {
	if practitionerID == uuid.Nil {
		return domain.Practitioner{}, validationError("practitioner_id is required")
	}
	if s.photos == nil {
		return domain.Practitioner{}, validationError("photo storage is not configured")
	}

	if err := s.photos.Remove(ctx, photoKey(practitionerID)); err != nil {
		return domain.Practitioner{}, err
	}
	return s.practitioners.SetPhotoURL(ctx, practitionerID, nil)
}

func photoKey(practitionerID uuid.UUID) string {
	return "practitioners/" + practitionerID.String() + "/photo"
}

// ListActivePatients returns the patients holding a SCHEDULED
// appointment with the practitioner.
func (s *Service) ListActivePatients(ctx context.Context, practitionerID uuid.UUID) ([]domain.Patient, error) {
	if practitionerID == uuid.Nil {
		return nil, validationError("practitioner_id is required")
	}

	ids, err := s.appointments.ActivePatientIDs(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	return s.accounts.PatientsByIDs(ctx, ids)
}
