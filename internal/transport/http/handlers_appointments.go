package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medagenda/backend/internal/domain"
	"medagenda/backend/internal/service/booking"
	"medagenda/backend/internal/store"
)

type bookAppointmentRequest struct {
	PractitionerID  string `json:"practitioner_id" validate:"required,uuid"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
}

type appointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PractitionerID  uuid.UUID `json:"practitioner_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	RatingScore     *int      `json:"rating_score,omitempty"`
	RatingComment   *string   `json:"rating_comment,omitempty"`
}

func apptResponse(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		PractitionerID:  a.PractitionerID,
		PatientID:       a.PatientID,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		RatingScore:     a.RatingScore,
		RatingComment:   a.RatingComment,
	}
}

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var req bookAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	practitionerID, err := uuid.Parse(req.PractitionerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
		return
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
		return
	}

	appt, err := s.bookingSvc.Create(r.Context(), booking.CreateInput{
		PatientID:       identity.ProfileID,
		PractitionerID:  practitionerID,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apptResponse(appt))
}

type patientAppointmentResponse struct {
	appointmentResponse
	PractitionerName     string  `json:"practitioner_name"`
	PractitionerPhotoURL *string `json:"practitioner_photo_url,omitempty"`
	AddressStreet        string  `json:"address_street"`
	AddressNumber        string  `json:"address_number"`
	AddressCity          string  `json:"address_city"`
	AddressState         string  `json:"address_state"`
}

func (s *Server) handleMyAppointments(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	rows, err := s.bookingSvc.ListByPatient(r.Context(), identity.ProfileID)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}

	out := make([]patientAppointmentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, patientAppointmentResponse{
			appointmentResponse:  apptResponse(row.Appointment),
			PractitionerName:     row.PractitionerName,
			PractitionerPhotoURL: row.PractitionerPhotoURL,
			AddressStreet:        row.Address.Street,
			AddressNumber:        row.Address.Number,
			AddressCity:          row.Address.City,
			AddressState:         row.Address.State,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFinalizeAppointment(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.bookingSvc.Finalize)
}

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.bookingSvc.Cancel)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, transition func(ctx context.Context, actorUserID, appointmentID uuid.UUID) (domain.Appointment, error)) {
	identity, _ := identityFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return
	}

	appt, err := transition(r.Context(), identity.UserID, id)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apptResponse(appt))
}

type rateAppointmentRequest struct {
	Score   int     `json:"score" validate:"required,min=1,max=5"`
	Comment *string `json:"comment"`
}

func (s *Server) handleRateAppointment(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return
	}

	var req rateAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	appt, err := s.bookingSvc.Rate(r.Context(), booking.RateInput{
		ActorUserID:   identity.UserID,
		AppointmentID: id,
		Score:         req.Score,
		Comment:       req.Comment,
	})
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apptResponse(appt))
}

func (s *Server) writeBookingError(w http.ResponseWriter, err error) {
	var vErr *booking.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "invalid_request", vErr.Error())
	case errors.Is(err, booking.ErrOutsideWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "outside_working_hours", "start time is outside the practitioner's working hours")
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "the slot is already booked")
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "you are not a party to this appointment")
	case errors.Is(err, booking.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", "the appointment is not in the required status")
	case errors.Is(err, booking.ErrAlreadyRated):
		writeError(w, http.StatusConflict, "already_rated", "the appointment was already rated")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "no such appointment")
	default:
		s.logger.Error("appointment request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}
