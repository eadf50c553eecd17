package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
	"medagenda/backend/internal/service/practitioners"
	"medagenda/backend/internal/store"
)

const maxPhotoBytes = 5 << 20

type practitionerListingResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	ConsultationFee  *float64  `json:"consultation_fee,omitempty"`
	AcceptsInsurance bool      `json:"accepts_insurance"`
	HomeVisits       bool      `json:"home_visits"`
	PhotoURL         *string   `json:"photo_url,omitempty"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	Specialties      []string  `json:"specialties"`
	AverageRating    float64   `json:"average_rating"`
	RatingCount      int       `json:"rating_count"`
}

func listingResponse(l domain.PractitionerListing) practitionerListingResponse {
	specialties := l.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	return practitionerListingResponse{
		ID:               l.ID,
		Name:             l.Name,
		Description:      l.Description,
		ConsultationFee:  l.ConsultationFee,
		AcceptsInsurance: l.AcceptsInsurance,
		HomeVisits:       l.HomeVisits,
		PhotoURL:         l.PhotoURL,
		City:             l.Address.City,
		State:            l.Address.State,
		Specialties:      specialties,
		AverageRating:    l.AverageRating(),
		RatingCount:      len(l.RatingScores),
	}
}

func (s *Server) handleSearchPractitioners(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := practitioners.SearchInput{
		Specialty: q.Get("specialty"),
		City:      q.Get("city"),
		State:     q.Get("state"),
		Name:      q.Get("name"),
		Education: q.Get("education"),
	}

	if v := q.Get("accepts_insurance"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", "accepts_insurance must be a boolean")
			return
		}
		in.AcceptsInsurance = &b
	}
	if v := q.Get("home_visits"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", "home_visits must be a boolean")
			return
		}
		in.HomeVisits = &b
	}
	if v := q.Get("max_fee"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			writeError(w, http.StatusBadRequest, "invalid_filter", "max_fee must be a non-negative number")
			return
		}
		in.MaxFee = &f
	}
	if v := q.Get("min_rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 5 {
			writeError(w, http.StatusBadRequest, "invalid_filter", "min_rating must be between 0 and 5")
			return
		}
		in.MinRating = &f
	}

	listings, err := s.practitioners.Search(r.Context(), in)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}

	out := make([]practitionerListingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, listingResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPractitioner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
		return
	}

	listing, err := s.practitioners.Get(r.Context(), id)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingResponse(listing))
}

type availabilityResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
		return
	}

	dateStr := r.URL.Query().Get("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	slots, err := s.practitioners.Availability(r.Context(), id, date)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Date: dateStr, Slots: slots})
}

type workGridEntryPayload struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	Start     string `json:"start" validate:"required"`
	End       string `json:"end" validate:"required"`
}

type replaceWorkGridRequest struct {
	Entries []workGridEntryPayload `json:"entries"`
}

type workGridResponse struct {
	Entries []workGridEntryPayload `json:"entries"`
}

func gridResponse(rules []domain.WorkHourRule) workGridResponse {
	entries := make([]workGridEntryPayload, 0, len(rules))
	for _, rule := range rules {
		entries = append(entries, workGridEntryPayload{
			DayOfWeek: rule.DayOfWeek,
			Start:     domain.ClockLabel(rule.StartMinute),
			End:       domain.ClockLabel(rule.EndMinute),
		})
	}
	return workGridResponse{Entries: entries}
}

func (s *Server) handleGetWorkGrid(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	rules, err := s.practitioners.WorkGrid(r.Context(), identity.ProfileID)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gridResponse(rules))
}

func (s *Server) handleReplaceWorkGrid(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req replaceWorkGridRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entries := make([]practitioners.WorkGridEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, practitioners.WorkGridEntry{
			DayOfWeek: e.DayOfWeek,
			Start:     e.Start,
			End:       e.End,
		})
	}

	rules, err := s.practitioners.ReplaceWorkGrid(r.Context(), identity.ProfileID, entries)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gridResponse(rules))
}

type updateProfileRequest struct {
	Description      *string  `json:"description"`
	ConsultationFee  *float64 `json:"consultation_fee"`
	AcceptsInsurance *bool    `json:"accepts_insurance"`
	HomeVisits       *bool    `json:"home_visits"`
	Tags             []string `json:"tags"`
	Languages        []string `json:"languages"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.practitioners.UpdateProfile(r.Context(), identity.ProfileID, practitioners.ProfileUpdateInput{
		Description:      req.Description,
		ConsultationFee:  req.ConsultationFee,
		AcceptsInsurance: req.AcceptsInsurance,
		HomeVisits:       req.HomeVisits,
		Tags:             req.Tags,
		Languages:        req.Languages,
	})
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, practitionerResponse{
		ID:             updated.ID,
		UserID:         updated.UserID,
		Name:           updated.Name,
		RegistryType:   updated.RegistryType,
		RegistryNumber: updated.RegistryNumber,
		RegistryState:  updated.RegistryState,
	})
}

type photoResponse struct {
	PhotoURL *string `json:"photo_url"`
}

func (s *Server) handleSetPhoto(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	contentType := r.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		writeError(w, http.StatusBadRequest, "invalid_photo", "Content-Type must be image/jpeg or image/png")
		return
	}
	if r.ContentLength <= 0 || r.ContentLength > maxPhotoBytes {
		writeError(w, http.StatusBadRequest, "invalid_photo", "photo must be between 1 byte and 5 MiB")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	updated, err := s.practitioners.SetPhoto(r.Context(), identity.ProfileID, contentType, body, r.ContentLength)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photoResponse{PhotoURL: updated.PhotoURL})
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	updated, err := s.practitioners.RemovePhoto(r.Context(), identity.ProfileID)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photoResponse{PhotoURL: updated.PhotoURL})
}

type activePatientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BirthDate string    `json:"birth_date"`
}

func (s *Server) handleActivePatients(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	patients, err := s.practitioners.ListActivePatients(r.Context(), identity.ProfileID)
	if err != nil {
		s.writePractitionerError(w, err)
		return
	}

	out := make([]activePatientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, activePatientResponse{
			ID:        p.ID,
			Name:      p.Name,
			BirthDate: p.BirthDate.Format("2006-01-02"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) writePractitionerError(w http.ResponseWriter, err error) {
	var vErr *practitioners.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "invalid_request", vErr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "practitioner_not_found", "no such practitioner")
	default:
		s.logger.Error("practitioner request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
