package game

import "errors"

var (
	ErrUserExists   = errors.New("user already logged in")
	ErrUserNotFound = errors.New("user not found")
)

// UserError is an error whose message should be shown to the player as-is.
// It marks bad input or impossible actions, not system failures.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func NewUserError(msg string) *UserError {
	return &UserError{Message: msg}
}
