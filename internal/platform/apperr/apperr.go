// Package apperr defines the typed failures returned by the ward and roster
// services. Validation failures are values the caller can branch on; storage
// faults are kept apart as StorageUnavailable so a client can tell "your
// request was invalid" from "the system could not be reached".
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a failure.
type Kind string

const (
	KindReferenceNotFound   Kind = "REFERENCE_NOT_FOUND"
	KindSchedulingConflict  Kind = "SCHEDULING_CONFLICT"
	KindOutOfPeriodRange    Kind = "OUT_OF_PERIOD_RANGE"
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindStorageUnavailable  Kind = "STORAGE_UNAVAILABLE"
	KindPartialWriteFailure Kind = "PARTIAL_WRITE_FAILURE"
	KindInvalid             Kind = "INVALID"
	KindRecordSigned        Kind = "RECORD_SIGNED"
)

// Error is a classified failure with optional details for the client.
type Error struct {
	Kind    Kind              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so errors.Is(err, apperr.ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound     = &Error{Kind: KindReferenceNotFound}
	ErrConflict     = &Error{Kind: KindSchedulingConflict}
	ErrOutOfRange   = &Error{Kind: KindOutOfPeriodRange}
	ErrForbidden    = &Error{Kind: KindPermissionDenied}
	ErrUnavailable  = &Error{Kind: KindStorageUnavailable}
	ErrPartialWrite = &Error{Kind: KindPartialWriteFailure}
	ErrInvalid      = &Error{Kind: KindInvalid}
	ErrRecordSigned = &Error{Kind: KindRecordSigned}
)

// NotFound reports a foreign key that did not resolve.
func NotFound(resource string, id string) *Error {
	return &Error{
		Kind:    KindReferenceNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]string{"resource": resource, "id": id},
	}
}

// Conflict reports a duplicate (nurse, date, shift) slot. existingID names
// the assignment already holding the slot, when known.
func Conflict(message string, existingID string) *Error {
	e := &Error{Kind: KindSchedulingConflict, Message: message}
	if existingID != "" {
		e.Details = map[string]string{"existing_assignment_id": existingID}
	}
	return e
}

// OutOfRange reports a date outside the roster period.
func OutOfRange(date, start, end string) *Error {
	return &Error{
		Kind:    KindOutOfPeriodRange,
		Message: fmt.Sprintf("date %s is outside roster period %s..%s", date, start, end),
		Details: map[string]string{"date": date, "start": start, "end": end},
	}
}

// Forbidden reports a caller lacking the privilege for a write.
func Forbidden(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

// Unavailable wraps a storage fault.
func Unavailable(err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: "storage unavailable", Err: err}
}

// PartialWrite reports a multi-step write that failed after its first step.
func PartialWrite(message string, err error) *Error {
	return &Error{Kind: KindPartialWriteFailure, Message: message, Err: err}
}

// Invalid reports malformed input.
func Invalid(message string) *Error {
	return &Error{Kind: KindInvalid, Message: message}
}

// Signed reports an attempt to change a signed nursing record.
func Signed(id string) *Error {
	return &Error{
		Kind:    KindRecordSigned,
		Message: "nursing record is signed and can no longer be changed",
		Details: map[string]string{"id": id},
	}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindReferenceNotFound:
		return http.StatusNotFound
	case KindSchedulingConflict, KindRecordSigned:
		return http.StatusConflict
	case KindOutOfPeriodRange:
		return http.StatusUnprocessableEntity
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts err into an echo.HTTPError carrying the code, message
// and details. Unclassified errors become 500 without leaking internals.
func HTTPError(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	body := map[string]interface{}{
		"code":    e.Kind,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return echo.NewHTTPError(e.Kind.HTTPStatus(), body).SetInternal(err)
}
