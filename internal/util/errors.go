package util

import "errors"

var (
	ErrEmailRegistered     = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrHabitNameRequired   = errors.New("habit_name and date are required")
	ErrDateRequired        = errors.New("date is required")
	ErrInvalidDate         = errors.New("invalid date")
	ErrValueRequired       = errors.New("value and date are required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrMissingRecipient    = errors.New("missing recipient email")
)
