package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential signals a required credential absent from the environment.
	ErrMissingCredential = errors.New("missing credential")
	// ErrEmbeddingService signals an embedding provider failure or malformed response.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrSearchService signals a failed call to the remote match procedure.
	ErrSearchService = errors.New("search service error")
	// ErrInvalidRequest signals malformed client input.
	ErrInvalidRequest = errors.New("invalid request")
)

// MissingCredentialError wraps ErrMissingCredential with the environment variable name.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: %s is not set", ErrMissingCredential.Error(), e.Name)
}

func (e *MissingCredentialError) Unwrap() error { return ErrMissingCredential }

// NewMissingCredential creates a missing credential error.
func NewMissingCredential(name string) error {
	return &MissingCredentialError{Name: name}
}
