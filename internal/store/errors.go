package store

import "errors"

var (
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrEmailInUse = errors.New("email already in use")
	ErrCPFInUse   = errors.New("cpf already registered")
)
