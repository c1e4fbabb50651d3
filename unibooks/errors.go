package unibooks

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	// KindNetwork covers transport failures: connection refused, timeout,
	// DNS. No HTTP response was received.
	KindNetwork ErrorKind = iota
	// KindAuth covers 401 and 403.
	KindAuth
	// KindValidation covers 400.
	KindValidation
	// KindConflict covers 409. On loan creation the backend uses it to
	// signal the borrower already holds 5 active loans.
	KindConflict
	// KindServer covers 5xx.
	KindServer
	// KindUnexpected covers every other non-2xx status.
	KindUnexpected
)

// errorEnvelope is the backend's error body, when it sends one.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
	Code       string `json:"code"`
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

// Kind maps the status code onto the error taxonomy.
func (e *APIError) Kind() ErrorKind {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return KindAuth
	case e.StatusCode == http.StatusBadRequest:
		return KindValidation
	case e.StatusCode == http.StatusConflict:
		return KindConflict
	case e.StatusCode >= 500:
		return KindServer
	default:
		return KindUnexpected
	}
}

// NetworkError wraps a transport-level failure (no response received).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError reports a bearer token whose claims could not be decoded.
// Callers must treat it as "cannot establish identity" and force a new
// login.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "decode token: " + e.Reason }

// DateFormatError reports a date string that is not YYYY-MM-DD. Status
// derivation fails hard on it rather than defaulting.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid date %q: want YYYY-MM-DD", e.Value)
}

// ErrLoanLimit is the user-facing meaning of a 409 on loan creation.
var ErrLoanLimit = errors.New("the selected user already has 5 active loans; one must be returned before creating a new loan")

// KindOf classifies any error returned by a Client call.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind()
	}
	return KindNetwork
}
