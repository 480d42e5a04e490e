package gcm

import (
	"errors"
	"fmt"
)

// Outcome is the classified result of a single send. It is a closed set:
// Success, *ReplaceRegistrationID or *Error.
type Outcome interface {
	outcome()
}

// Success means the service accepted the message and has nothing to report.
type Success struct{}

func (Success) outcome() {}

// ReplaceRegistrationID means the message was accepted but the service wants
// the caller to store RegistrationID in place of the id it sent to.
// It implements error so that Send can surface it as a signal.
type ReplaceRegistrationID struct {
	RegistrationID string
}

func (*ReplaceRegistrationID) outcome() {}

func (r *ReplaceRegistrationID) Error() string {
	return fmt.Sprintf("gcm: replace registration id with %q", r.RegistrationID)
}

// FailureKind names one failure variant.
type FailureKind int

const (
	// Transport / protocol level.
	KindBadRequest FailureKind = iota + 1
	KindAuthentication
	KindInternalServerError
	KindUnknownHTTPStatus

	// Per-item, reported inside a 200 body.
	KindDeviceMessageRateExceeded
	KindServiceInternalError
	KindInvalidRegistration
	KindInvalidParameters
	KindMessageTooBig
	KindMismatchSenderID
	KindNotRegistered
	KindUnknownCode
)

var kindNames = map[FailureKind]string{
	KindBadRequest:                "bad_request",
	KindAuthentication:            "authentication_failed",
	KindInternalServerError:       "internal_server_error",
	KindUnknownHTTPStatus:         "unknown_http_status",
	KindDeviceMessageRateExceeded: "device_message_rate_exceeded",
	KindServiceInternalError:      "service_internal_error",
	KindInvalidRegistration:       "invalid_registration",
	KindInvalidParameters:         "invalid_parameters",
	KindMessageTooBig:             "message_too_big",
	KindMismatchSenderID:          "mismatch_sender_id",
	KindNotRegistered:             "not_registered",
	KindUnknownCode:               "unknown_code",
}

func (k FailureKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("failure_kind(%d)", int(k))
}

// Retryable reports whether a caller may reasonably retry a send that
// failed with this kind. Everything else is permanent.
func (k FailureKind) Retryable() bool {
	return k == KindInternalServerError || k == KindDeviceMessageRateExceeded
}

// Error is the failure variant of Outcome. Only the fields relevant to Kind
// are populated:
//
//	KindBadRequest                     Body
//	KindInternalServerError            StatusCode
//	KindUnknownHTTPStatus              StatusCode
//	per-item kinds, KindUnknownCode    Code
type Error struct {
	Kind       FailureKind
	StatusCode int
	Code       string
	Body       string
}

func (*Error) outcome() {}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadRequest:
		return "gcm: bad request: " + e.Body
	case KindAuthentication:
		return "gcm: authentication failed"
	case KindInternalServerError:
		return fmt.Sprintf("gcm: internal server error: %d", e.StatusCode)
	case KindUnknownHTTPStatus:
		return fmt.Sprintf("gcm: unknown http status: %d", e.StatusCode)
	case KindUnknownCode:
		return fmt.Sprintf("gcm: unknown error code: %s", e.Code)
	default:
		if e.Code != "" {
			return "gcm: " + e.Code
		}
		return "gcm: " + e.Kind.String()
	}
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable is shorthand for e.Kind.Retryable().
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// Sentinels for errors.Is. They carry no diagnostic data.
var (
	ErrBadRequest                = &Error{Kind: KindBadRequest}
	ErrAuthentication            = &Error{Kind: KindAuthentication}
	ErrInternalServerError       = &Error{Kind: KindInternalServerError}
	ErrUnknownHTTPStatus         = &Error{Kind: KindUnknownHTTPStatus}
	ErrDeviceMessageRateExceeded = &Error{Kind: KindDeviceMessageRateExceeded}
	ErrServiceInternalError      = &Error{Kind: KindServiceInternalError}
	ErrInvalidRegistration       = &Error{Kind: KindInvalidRegistration}
	ErrInvalidParameters         = &Error{Kind: KindInvalidParameters}
	ErrMessageTooBig             = &Error{Kind: KindMessageTooBig}
	ErrMismatchSenderID          = &Error{Kind: KindMismatchSenderID}
	ErrNotRegistered             = &Error{Kind: KindNotRegistered}
	ErrUnknownCode               = &Error{Kind: KindUnknownCode}
)

var (
	// ErrEmptyRegistrationID is returned before any request is made.
	ErrEmptyRegistrationID = errors.New("gcm: registration id is required")
	// ErrMalformedResponse wraps 200 bodies that cannot be classified.
	ErrMalformedResponse = errors.New("gcm: malformed response body")
)

// KindOf returns the FailureKind carried by err, if any.
func KindOf(err error) (FailureKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is a classified failure a caller may retry.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Retryable()
}

// IsNotRegistered reports whether the device is no longer registered.
func IsNotRegistered(err error) bool {
	return errors.Is(err, ErrNotRegistered)
}

// IsInvalidRegistration reports whether the registration id was rejected as
// malformed.
func IsInvalidRegistration(err error) bool {
	return errors.Is(err, ErrInvalidRegistration)
}
