package model

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrMissingCredentials = errors.New("missing credentials")
)

// MissingCredentialsError is returned when every source has been consulted
// and required fields are still empty.
type MissingCredentialsError struct {
	Fields []string
}

func (e *MissingCredentialsError) Error() string {
	if len(e.Fields) == 0 {
		return ErrMissingCredentials.Error()
	}
	return ErrMissingCredentials.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingCredentialsError) Is(target error) bool {
	return target == ErrMissingCredentials
}
