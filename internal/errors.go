package internal

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultErrorMessage is shown when a failure carries no usable message
const DefaultErrorMessage = "Something went wrong"

var (
	// ErrValidation marks client-detected input problems; no request was sent
	ErrValidation = errors.New("validation failed")
	// ErrNoCandidateSelected is returned when proposing without a selected match
	ErrNoCandidateSelected = fmt.Errorf("%w: select a match first", ErrValidation)
	// ErrAuthentication marks rejected login or registration
	ErrAuthentication = errors.New("authentication failed")
	// ErrInvalidSession marks a stored token rejected by the profile endpoint
	ErrInvalidSession = errors.New("session is no longer valid")
	// ErrIllegalTransition marks a status change rejected by the backend
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrNetwork marks transport failures
	ErrNetwork = errors.New("network error")
	// ErrServer marks any other backend failure
	ErrServer = errors.New("server error")
	// ErrMalformedResponse marks a payload that failed boundary validation
	ErrMalformedResponse = errors.New("malformed response")
	// ErrNotAuthenticated is returned by the guard for protected operations
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrSuperseded marks a response that arrived after a newer request was issued
	ErrSuperseded = errors.New("response superseded by a newer request")
)

// APIError is a failed backend call
type APIError struct {
	Op      string // "login", "sessions.list", ...
	Status  int    // HTTP status, 0 for transport failures
	Message string // "message" field of the error payload, verbatim
	Kind    error  // one of the sentinel errors above
	Err     error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error [%s]", e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, " status %d", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	} else if e.Kind != nil {
		fmt.Fprintf(&b, ": %v", e.Kind)
	}
	return b.String()
}

func (e *APIError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ValidationError is a client-side input error
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StoreError represents errors accessing the persistent session store
type StoreError struct {
	Op  string // "open", "load", "save", "clear", "read"
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// UserMessage turns err into the text presented to the user.
// Backend messages are used verbatim; validation errors describe the field;
// everything else falls back to fallback, or DefaultErrorMessage when empty.
func UserMessage(err error, fallback string) string {
	if fallback == "" {
		fallback = DefaultErrorMessage
	}
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	if errors.Is(err, ErrNoCandidateSelected) {
		return "Select a match first"
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "Please log in first"
	}
	return fallback
}

// IsTransient reports whether err is a failure that says nothing about token validity
func IsTransient(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrServer) || errors.Is(err, ErrMalformedResponse)
}
