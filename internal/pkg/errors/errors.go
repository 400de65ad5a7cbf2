package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalid        = errors.New("invalid")
	ErrConflict       = errors.New("conflict")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrPathNotAllowed = errors.New("path not allowed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPathNotAllowed(err error) bool {
	return errors.Is(err, ErrPathNotAllowed)
}
