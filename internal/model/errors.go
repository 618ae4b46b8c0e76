package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Field validation errors, one per submitted field
	ErrInvalidEnrollment    = errors.New("enrollment id is not valid")
	ErrInvalidIssueDate     = errors.New("issue date is not valid")
	ErrInvalidIssueTime     = errors.New("issue time is not valid")
	ErrInvalidSignatureCode = errors.New("signature code is not valid")
	ErrInvalidName          = errors.New("name is not valid")
	ErrInvalidEmail         = errors.New("email is not valid")
	ErrInvalidPhone         = errors.New("phone number is not valid")

	// ErrWeakPassword means the password does not satisfy the strength policy
	ErrWeakPassword = errors.New("password does not meet the strength policy")

	// ErrInvalidDocument means the portal could not authenticate the
	// enrollment document
	ErrInvalidDocument = errors.New("enrollment document could not be authenticated")
)

// OtherProgramError means the document authenticated, but the student is
// enrolled in a program that is not entitled to an account.
type OtherProgramError struct {
	Program string
}

func (e *OtherProgramError) Error() string {
	return fmt.Sprintf("students of %s are not entitled to an account", e.Program)
}

// RedundantRegistrationError means the enrollment id is already provisioned
// in the directory. Username is the account that already exists.
type RedundantRegistrationError struct {
	Username string
}

func (e *RedundantRegistrationError) Error() string {
	return fmt.Sprintf("registration already exists with username %q", e.Username)
}

// NameMismatchError means the self-reported name does not match the name the
// portal returned for the document.
type NameMismatchError struct {
	Reported string
	Official string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("reported name %q does not match the official name %q", e.Reported, e.Official)
}
