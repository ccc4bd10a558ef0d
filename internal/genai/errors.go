package genai

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a generation failure so callers can branch on it.
type Kind int

const (
	// KindTransient failures may succeed if the user tries again later.
	KindTransient Kind = iota
	// KindUnauthorized failures need a new credential before retrying.
	KindUnauthorized
	// KindFatal failures will not succeed on retry with the same input.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindFatal:
		return "fatal"
	default:
		return "transient"
	}
}

// GenerationError is returned for every failed call to the generative API.
type GenerationError struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed (%s): HTTP %d: %s", e.Op, e.Kind, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s failed (%s): %s", e.Op, e.Kind, e.Message)
	}
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true when the same request may succeed later.
func (e *GenerationError) IsRetryable() bool {
	return e.Kind == KindTransient
}

// IsUnauthorized reports whether err requires the user to supply a
// credential before retrying.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrCredentialRequired) {
		return true
	}
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == KindUnauthorized
}

// KindOf returns the failure kind of err. Errors that did not come from the
// generative API are treated as transient.
func KindOf(err error) Kind {
	if errors.Is(err, ErrCredentialRequired) {
		return KindUnauthorized
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindTransient
}

// classifyHTTP maps an HTTP status to a failure kind. The video endpoint
// answers 404 for keys that are not entitled to the model.
func classifyHTTP(status int) Kind {
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusNotFound:
		return KindUnauthorized
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}

// isAuthStatus reports whether an error body's status or detail reasons name
// a credential problem. A bad key comes back as HTTP 400 INVALID_ARGUMENT
// with reason API_KEY_INVALID, so the HTTP status alone misses it.
func isAuthStatus(status string, reasons []string) bool {
	switch status {
	case "PERMISSION_DENIED", "UNAUTHENTICATED":
		return true
	}
	for _, r := range reasons {
		switch r {
		case "API_KEY_INVALID", "API_KEY_EXPIRED", "API_KEY_SERVICE_BLOCKED":
			return true
		}
	}
	return false
}

// classifyRPC maps a google.rpc.Code carried in an operation error.
func classifyRPC(code int) Kind {
	switch code {
	case 5, 7, 16: // NOT_FOUND, PERMISSION_DENIED, UNAUTHENTICATED
		return KindUnauthorized
	case 4, 8, 10, 13, 14: // DEADLINE_EXCEEDED, RESOURCE_EXHAUSTED, ABORTED, INTERNAL, UNAVAILABLE
		return KindTransient
	default:
		return KindFatal
	}
}
