package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ic-ufrj/alumnic/internal/directory"
	"github.com/ic-ufrj/alumnic/internal/model"
	"github.com/ic-ufrj/alumnic/internal/portal"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Retryable tells the caller that repeating the exact same request
	// may succeed (transient contention, not a problem with the data).
	Retryable bool `json:"retryable,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidEnrollment     = "INVALID_ENROLLMENT"
	CodeInvalidIssueDate      = "INVALID_ISSUE_DATE"
	CodeInvalidIssueTime      = "INVALID_ISSUE_TIME"
	CodeInvalidSignatureCode  = "INVALID_SIGNATURE_CODE"
	CodeInvalidName           = "INVALID_NAME"
	CodeInvalidEmail          = "INVALID_EMAIL"
	CodeInvalidPhone          = "INVALID_PHONE"
	CodeWeakPassword          = "WEAK_PASSWORD"
	CodeNameMismatch          = "NAME_MISMATCH"
	CodeInvalidDocument       = "INVALID_DOCUMENT"
	CodeOtherProgram          = "OTHER_PROGRAM"
	CodeAlreadyRegistered     = "ALREADY_REGISTERED"
	CodeDirectoryContention   = "DIRECTORY_CONTENTION"
	CodeVerificationAmbiguous = "VERIFICATION_AMBIGUOUS"
	CodeInternalError         = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var (
		redundant *model.RedundantRegistrationError
		other     *model.OtherProgramError
		mismatch  *model.NameMismatchError
	)

	switch {
	// Field rejections: the submitted data can never succeed as is.
	case errors.Is(err, model.ErrInvalidEnrollment):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeInvalidEnrollment, Message: "Enrollment number must be nine digits"}}
	case errors.Is(err, model.ErrInvalidIssueDate):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeInvalidIssueDate, Message: "Issue date must be a valid dd/mm/yyyy date"}}
	case errors.Is(err, model.ErrInvalidIssueTime):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeInvalidIssueTime, Message: "Issue time must be hh:mm"}}
	case errors.Is(err, model.ErrInvalidSignatureCode):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeInvalidSignatureCode, Message: "Signature code must be eight groups of four hex digits"}}
	case errors.Is(err, model.ErrInvalidName):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeInvalidName, Message: "Name must have at least two words of plain letters"}}
	case errors.Is(err, model.ErrInvalidEmail):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeInvalidEmail, Message: "Invalid email address"}}
	case errors.Is(err, model.ErrInvalidPhone):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeInvalidPhone, Message: "Phone number must be a valid Brazilian number"}}
	case errors.Is(err, model.ErrWeakPassword):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeWeakPassword, Message: "Password must be 8-25 characters with a lowercase letter, an uppercase letter and a digit"}}
	case errors.As(err, &mismatch):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeNameMismatch, Message: "Submitted name does not match the enrollment record"}}

	// Outcomes of a well-formed but ineligible registration.
	case errors.Is(err, model.ErrInvalidDocument):
		return &httpError{http.StatusForbidden, APIError{Code: CodeInvalidDocument, Message: "Enrollment document could not be verified"}}
	case errors.As(err, &other):
		return &httpError{http.StatusForbidden, APIError{Code: CodeOtherProgram, Message: "Enrollment belongs to another program: " + other.Program}}
	case errors.As(err, &redundant):
		return &httpError{http.StatusConflict, APIError{Code: CodeAlreadyRegistered, Message: "An account for this enrollment already exists: " + redundant.Username}}

	// Transient directory contention: the same request may succeed on
	// a retry.
	case errors.Is(err, directory.ErrAllocationExhausted),
		errors.Is(err, directory.ErrAccountConflict):
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeDirectoryContention, Message: "Directory is busy, try again", Retryable: true}}

	case errors.Is(err, portal.ErrAmbiguousVerdict):
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeVerificationAmbiguous, Message: "Verification portal gave an ambiguous answer"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
