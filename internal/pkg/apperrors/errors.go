package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure raised by the service layer. The HTTP boundary
// maps kinds to status codes in exactly one place.
type Kind uint8

const (
	// KindUnauthenticated means no valid credential accompanied the request.
	KindUnauthenticated Kind = iota + 1
	// KindForbidden means the principal's role or ownership does not admit the operation.
	KindForbidden
	// KindNotFound means the target entity does not exist.
	KindNotFound
	// KindConflict means a uniqueness invariant was violated.
	KindConflict
	// KindInvalid means the request shape or a field range is wrong.
	KindInvalid
	// KindFailedPrecondition means the entity's current state disallows the transition.
	KindFailedPrecondition
	// KindInternal is everything else.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	case KindFailedPrecondition:
		return "failed precondition"
	default:
		return "internal"
	}
}

// Failure is the single error type services raise. Fields beyond Kind carry
// context for the specific variant: Entity/ID for NotFound, Key for Conflict,
// Field/Reason for Invalid and FailedPrecondition.
type Failure struct {
	Kind   Kind
	Entity string
	ID     int64
	Key    string
	Field  string
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindNotFound:
		if f.ID != 0 {
			return fmt.Sprintf("%s %d not found", f.Entity, f.ID)
		}
		return fmt.Sprintf("%s not found", f.Entity)
	case KindConflict:
		if f.Key != "" {
			return fmt.Sprintf("conflict on %s", f.Key)
		}
		return "conflict"
	case KindInvalid:
		if f.Field != "" {
			return fmt.Sprintf("invalid %s: %s", f.Field, f.Reason)
		}
		return f.Reason
	case KindFailedPrecondition:
		return f.Reason
	case KindInternal:
		if f.Err != nil {
			return f.Err.Error()
		}
		return "internal error"
	default:
		if f.Reason != "" {
			return f.Reason
		}
		return f.Kind.String()
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches failures by kind so callers can use errors.Is against the
// package sentinels below.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	return ok && t.Kind == f.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated    = &Failure{Kind: KindUnauthenticated}
	ErrForbidden          = &Failure{Kind: KindForbidden}
	ErrNotFound           = &Failure{Kind: KindNotFound}
	ErrConflict           = &Failure{Kind: KindConflict}
	ErrInvalid            = &Failure{Kind: KindInvalid}
	ErrFailedPrecondition = &Failure{Kind: KindFailedPrecondition}
	ErrInternal           = &Failure{Kind: KindInternal}
)

// Unauthenticated returns a failure for a missing or unusable credential.
func Unauthenticated(reason string) *Failure {
	return &Failure{Kind: KindUnauthenticated, Reason: reason}
}

// Forbidden returns a failure for a role or ownership mismatch.
func Forbidden(reason string) *Failure {
	return &Failure{Kind: KindForbidden, Reason: reason}
}

// NotFound returns a failure naming the missing entity.
func NotFound(entity string, id int64) *Failure {
	return &Failure{Kind: KindNotFound, Entity: entity, ID: id}
}

// Conflict returns a failure naming the violated unique key.
func Conflict(key string) *Failure {
	return &Failure{Kind: KindConflict, Key: key}
}

// Invalid returns a failure for a malformed field.
func Invalid(field, reason string) *Failure {
	return &Failure{Kind: KindInvalid, Field: field, Reason: reason}
}

// FailedPrecondition returns a failure for a disallowed state transition.
func FailedPrecondition(reason string) *Failure {
	return &Failure{Kind: KindFailedPrecondition, Reason: reason}
}

// Internal wraps an unexpected error.
func Internal(err error) *Failure {
	return &Failure{Kind: KindInternal, Err: err}
}

// KindOf extracts the failure kind from err, or KindInternal when err is not
// a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}
