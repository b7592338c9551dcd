package service

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/iliyamo/notes-api/internal/repository"
)

// Sentinel errors returned by every service.  Handlers map them to HTTP
// status codes with errors.Is; the wrapped message is safe to show to
// clients.
var (
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrNotAcceptable = errors.New("not acceptable")
)

// validate runs the input's ozzo rules and reports failures as
// ErrNotAcceptable.
func validate(in validation.Validatable) error {
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAcceptable, err)
	}
	return nil
}

// storeErr translates repository sentinels at the service boundary.  what
// names the entity for the message.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case errors.Is(err, repository.ErrInUse):
		return fmt.Errorf("%w: %s is still in use", ErrConflict, what)
	}
	return err
}
