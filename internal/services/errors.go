package services

import (
	"errors"
	"fmt"
	"strings"

	"locatify/wanderlust/internal/repository"
)

var (
	// ErrNotFound is returned when a listing, review or user does not exist.
	ErrNotFound = repository.ErrNotFound
	// ErrLocationNotFound is returned when the geocoder has no match for a location.
	ErrLocationNotFound = errors.New("location not found")
	// ErrUnauthorized is returned when an operation needs a logged-in user.
	ErrUnauthorized = errors.New("login required")
	// ErrForbidden is returned when the user does not own the resource.
	ErrForbidden = errors.New("forbidden")

	ErrEmailExists        = errors.New("a user with the given email is already registered")
	ErrUsernameExists     = errors.New("a user with the given username is already registered")
	ErrWeakPassword       = errors.New("password does not meet the requirements")
	ErrInvalidCredentials = errors.New("password or username is incorrect")
)

// External collaborators named in ExternalServiceError.
const (
	ServiceGeocoder     = "geocoder"
	ServiceImageStorage = "image storage"
	ServiceEmail        = "email"
)

// FieldError is one violated field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field violation of a form.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, ", ")
}

// NewFieldError returns a ValidationError for a single field.
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

var (
	// ErrLocationRequired is returned for a blank location, before any geocoding.
	ErrLocationRequired = NewFieldError("location", "Location is a required field.")
	// ErrInvalidPrice is returned for a price that is not a finite number.
	ErrInvalidPrice = NewFieldError("price", "price must be a number")
)

// ExternalServiceError wraps a failure of a collaborator (geocoder, image storage, email).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// IsExternal reports whether err is an ExternalServiceError for service.
func IsExternal(err error, service string) bool {
	var ext *ExternalServiceError
	return errors.As(err, &ext) && ext.Service == service
}
