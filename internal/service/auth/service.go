// Package auth exchanges account credentials for bearer tokens.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"medagenda/backend/internal/store"
)

const (
	KindPatient      = "paciente"
	KindPractitioner = "profissional"
)

// ErrInvalidCredentials covers both the unknown email and the wrong
// password so the response does not reveal which one failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// TokenIssuer abstracts the signed-token implementation.
type TokenIssuer interface {
	Issue(userID uuid.UUID, kind string) (string, error)
}

type Service struct {
	accounts store.AccountRepository
	tokens   TokenIssuer
}

func NewService(accounts store.AccountRepository, tokens TokenIssuer) *Service {
	return &Service{accounts: accounts, tokens: tokens}
}

// Session is a successful login: the bearer token plus the identity it
// encodes and the profile id of the requested kind.
type Session struct {
	Token     string
	UserID    uuid.UUID
	Kind      string
	ProfileID uuid.UUID
}

// Login verifies the password and that the account has a profile of the
// requested kind, then issues a token.
func (s *Service) Login(ctx context.Context, email, password, kind string) (Session, error) {
	if kind != KindPatient && kind != KindPractitioner {
		return Session{}, validationError("kind must be paciente or profissional")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, validationError("email and password are required")
	}

	user, err := s.accounts.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	var profileID uuid.UUID
	switch kind {
	case KindPatient:
		patient, err := s.accounts.PatientByUserID(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		if err != nil {
			return Session{}, err
		}
		profileID = patient.ID
	case KindPractitioner:
		practitioner, err := s.accounts.PractitionerByUserID(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		if err != nil {
			return Session{}, err
		}
		profileID = practitioner.ID
	}

	token, err := s.tokens.Issue(user.ID, kind)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Kind:      kind,
		ProfileID: profileID,
	}, nil
}
