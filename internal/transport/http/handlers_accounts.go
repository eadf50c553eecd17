package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"medagenda/backend/internal/service/accounts"
	"medagenda/backend/internal/service/auth"
	"medagenda/backend/internal/store"
)

type addressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	District   string `json:"district"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code"`
}

type phoneRequest struct {
	AreaCode string `json:"area_code" validate:"required"`
	Number   string `json:"number" validate:"required"`
}

type registerPatientRequest struct {
	Email           string         `json:"email" validate:"required,email"`
	Password        string         `json:"password" validate:"required,min=8"`
	Name            string         `json:"name" validate:"required"`
	CPF             string         `json:"cpf" validate:"required,len=11,numeric"`
	SelfResponsible bool           `json:"self_responsible"`
	GuardianName    *string        `json:"guardian_name"`
	BirthDate       string         `json:"birth_date" validate:"required"`
	SupportLevel    *string        `json:"support_level"`
	Address         addressRequest `json:"address" validate:"required"`
	Phone           phoneRequest   `json:"phone" validate:"required"`
}

type patientResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	SelfResponsible bool      `json:"self_responsible"`
	BirthDate       string    `json:"birth_date"`
}

func (s *Server) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_birth_date", "birth_date must be YYYY-MM-DD")
		return
	}

	user, patient, err := s.accountsSvc.RegisterPatient(r.Context(), accounts.RegisterPatientInput{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		CPF:             req.CPF,
		SelfResponsible: req.SelfResponsible,
		GuardianName:    req.GuardianName,
		BirthDate:       birthDate,
		SupportLevel:    req.SupportLevel,
		Address:         addressInput(req.Address),
		Phone:           accounts.PhoneInput{AreaCode: req.Phone.AreaCode, Number: req.Phone.Number},
	})
	if err != nil {
		s.writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, patientResponse{
		ID:              patient.ID,
		UserID:          user.ID,
		Name:            patient.Name,
		Email:           user.Email,
		SelfResponsible: patient.SelfResponsible,
		BirthDate:       patient.BirthDate.Format("2006-01-02"),
	})
}

type registerPractitionerRequest struct {
	Email          string         `json:"email" validate:"required,email"`
	Password       string         `json:"password" validate:"required,min=8"`
	Name           string         `json:"name" validate:"required"`
	CPF            string         `json:"cpf" validate:"required,len=11,numeric"`
	RegistryType   string         `json:"registry_type" validate:"required"`
	RegistryNumber string         `json:"registry_number" validate:"required"`
	RegistryState  string         `json:"registry_state" validate:"required"`
	Specialties    []string       `json:"specialties"`
	Educations     []string       `json:"educations"`
	Address        addressRequest `json:"address" validate:"required"`
	Phone          phoneRequest   `json:"phone" validate:"required"`
}

type practitionerResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegistryType   string    `json:"registry_type"`
	RegistryNumber string    `json:"registry_number"`
	RegistryState  string    `json:"registry_state"`
}

func (s *Server) handleRegisterPractitioner(w http.ResponseWriter, r *http.Request) {
	var req registerPractitionerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, practitioner, err := s.accountsSvc.RegisterPractitioner(r.Context(), accounts.RegisterPractitionerInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		CPF:            req.CPF,
		RegistryType:   req.RegistryType,
		RegistryNumber: req.RegistryNumber,
		RegistryState:  req.RegistryState,
		Specialties:    req.Specialties,
		Educations:     req.Educations,
		Address:        addressInput(req.Address),
		Phone:          accounts.PhoneInput{AreaCode: req.Phone.AreaCode, Number: req.Phone.Number},
	})
	if err != nil {
		s.writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, practitionerResponse{
		ID:             practitioner.ID,
		UserID:         user.ID,
		Name:           practitioner.Name,
		Email:          user.Email,
		RegistryType:   practitioner.RegistryType,
		RegistryNumber: practitioner.RegistryNumber,
		RegistryState:  practitioner.RegistryState,
	})
}

func addressInput(in addressRequest) accounts.AddressInput {
	return accounts.AddressInput{
		Label:      in.Label,
		Street:     in.Street,
		Number:     in.Number,
		District:   in.District,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
	}
}

func (s *Server) writeRegistrationError(w http.ResponseWriter, err error) {
	var vErr *accounts.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "invalid_request", vErr.Error())
	case errors.Is(err, store.ErrEmailInUse):
		writeError(w, http.StatusConflict, "email_in_use", "an account with this email already exists")
	case errors.Is(err, store.ErrCPFInUse):
		writeError(w, http.StatusConflict, "cpf_in_use", "an account with this CPF already exists")
	default:
		s.logger.Error("registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Kind     string `json:"kind" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	ProfileID uuid.UUID `json:"profile_id"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.authSvc.Login(r.Context(), req.Email, req.Password, req.Kind)
	if err != nil {
		var vErr *auth.ValidationError
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, "invalid_request", vErr.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		default:
			s.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected error")
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		Kind:      session.Kind,
		ProfileID: session.ProfileID,
	})
}
