package entities

import "errors"

var (
	// ErrValidation means the request shape was malformed. It is raised
	// before any store lookup happens.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the two are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail is returned at registration when the email is
	// already in use.
	ErrDuplicateEmail = errors.New("email already in use")
)
