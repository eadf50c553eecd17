// Package accounts registers patient and practitioner accounts.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

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

type Service struct {
	accounts store.AccountRepository
}

func NewService(accounts store.AccountRepository) *Service {
	return &Service{accounts: accounts}
}

type AddressInput struct {
	Label      string
	Street     string
	Number     string
	District   string
	City       string
	State      string
	PostalCode string
}

type PhoneInput struct {
	AreaCode string
	Number   string
}

type RegisterPatientInput struct {
	Email           string
	Password        string
	Name            string
	CPF             string
	SelfResponsible bool
	GuardianName    *string
	BirthDate       time.Time
	SupportLevel    *string
	Address         AddressInput
	Phone           PhoneInput
}

// RegisterPatient creates the user, address, patient profile and phone
// in one transaction. The email and CPF are pre-checked for a clean
// error, with the database unique constraints as the final word.
func (s *Service) RegisterPatient(ctx context.Context, in RegisterPatientInput) (domain.User, domain.Patient, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateCommon(email, in.Password, in.Name, in.CPF, in.Address, in.Phone); err != nil {
		return domain.User{}, domain.Patient{}, err
	}
	if in.BirthDate.IsZero() {
		return domain.User{}, domain.Patient{}, validationError("birth_date is required")
	}
	if !in.SelfResponsible && (in.GuardianName == nil || strings.TrimSpace(*in.GuardianName) == "") {
		return domain.User{}, domain.Patient{}, validationError("guardian_name is required for non self-responsible patients")
	}

	if err := s.checkEmailFree(ctx, email); err != nil {
		return domain.User{}, domain.Patient{}, err
	}
	_, err := s.accounts.PatientByCPF(ctx, in.CPF)
	if err == nil {
		return domain.User{}, domain.Patient{}, store.ErrCPFInUse
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, domain.Patient{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.Patient{}, err
	}

	return s.accounts.CreatePatientAccount(ctx, store.NewPatientAccount{
		User:    domain.User{Email: email, PasswordHash: string(hash)},
		Address: addressModel(in.Address),
		Patient: domain.Patient{
			Name:            strings.TrimSpace(in.Name),
			CPF:             in.CPF,
			SelfResponsible: in.SelfResponsible,
			GuardianName:    in.GuardianName,
			BirthDate:       in.BirthDate.UTC(),
			SupportLevel:    in.SupportLevel,
		},
		Phone: domain.Phone{AreaCode: in.Phone.AreaCode, Number: in.Phone.Number},
	})
}

type RegisterPractitionerInput struct {
	Email          string
	Password       string
	Name           string
	CPF            string
	RegistryType   string
	RegistryNumber string
	RegistryState  string
	Specialties    []string
	Educations     []string
	Address        AddressInput
	Phone          PhoneInput
}

func (s *Service) RegisterPractitioner(ctx context.Context, in RegisterPractitionerInput) (domain.User, domain.Practitioner, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateCommon(email, in.Password, in.Name, in.CPF, in.Address, in.Phone); err != nil {
		return domain.User{}, domain.Practitioner{}, err
	}
	if strings.TrimSpace(in.RegistryType) == "" || strings.TrimSpace(in.RegistryNumber) == "" || strings.TrimSpace(in.RegistryState) == "" {
		return domain.User{}, domain.Practitioner{}, validationError("professional registry is required")
	}

	if err := s.checkEmailFree(ctx, email); err != nil {
		return domain.User{}, domain.Practitioner{}, err
	}
	_, err := s.accounts.PractitionerByCPF(ctx, in.CPF)
	if err == nil {
		return domain.User{}, domain.Practitioner{}, store.ErrCPFInUse
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, domain.Practitioner{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.Practitioner{}, err
	}

	return s.accounts.CreatePractitionerAccount(ctx, store.NewPractitionerAccount{
		User:    domain.User{Email: email, PasswordHash: string(hash)},
		Address: addressModel(in.Address),
		Practitioner: domain.Practitioner{
			Name:           strings.TrimSpace(in.Name),
			CPF:            in.CPF,
			RegistryType:   strings.TrimSpace(in.RegistryType),
			RegistryNumber: strings.TrimSpace(in.RegistryNumber),
			RegistryState:  strings.TrimSpace(in.RegistryState),
		},
		Phone:       domain.Phone{AreaCode: in.Phone.AreaCode, Number: in.Phone.Number},
		Specialties: in.Specialties,
		Educations:  in.Educations,
	})
}

func (s *Service) checkEmailFree(ctx context.Context, email string) error {
	_, err := s.accounts.UserByEmail(ctx, email)
	if err == nil {
		return store.ErrEmailInUse
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func validateCommon(email, password, name, cpf string, address AddressInput, phone PhoneInput) error {
	if email == "" || !strings.Contains(email, "@") {
		return validationError("a valid email is required")
	}
	if len(password) < 8 {
		return validationError("password must have at least 8 characters")
	}
	if strings.TrimSpace(name) == "" {
		return validationError("name is required")
	}
	if len(cpf) != 11 {
		return validationError("cpf must have 11 digits")
	}
	for _, c := range cpf {
		if c < '0' || c > '9' {
			return validationError("cpf must have 11 digits")
		}
	}
	if strings.TrimSpace(address.Street) == "" || strings.TrimSpace(address.City) == "" || strings.TrimSpace(address.State) == "" {
		return validationError("address street, city and state are required")
	}
	if strings.TrimSpace(phone.AreaCode) == "" || strings.TrimSpace(phone.Number) == "" {
		return validationError("phone is required")
	}
	return nil
}

func addressModel(in AddressInput) domain.Address {
	return domain.Address{
		Label:      in.Label,
		Street:     strings.TrimSpace(in.Street),
		Number:     strings.TrimSpace(in.Number),
		District:   in.District,
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: in.PostalCode,
	}
}
