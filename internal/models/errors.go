package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrEmptyContent       = errors.New("post content is empty")
	ErrContentTooLong     = fmt.Errorf("post content is longer than %d characters", MaxContentLength)
	ErrInFlight           = errors.New("request already in progress")
)

// Kind classifies failures the way the UI reacts to them.
type Kind int

const (
	// KindFetch is a failed read. It degrades the view and is never fatal.
	KindFetch Kind = iota + 1
	// KindWrite is a failed insert, upsert or delete. The action is aborted.
	KindWrite
	// KindAuth is a failed sign-up, sign-in or sign-out, shown to the user.
	KindAuth
	// KindValidation is input rejected before any network call.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindWrite:
		return "write"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s failed", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func FetchError(op string, err error) error {
	return &Error{Kind: KindFetch, Op: op, Err: err}
}

func WriteError(op string, err error) error {
	return &Error{Kind: KindWrite, Op: op, Err: err}
}

func AuthError(op string, err error) error {
	return &Error{Kind: KindAuth, Op: op, Err: err}
}

func ValidationError(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// IsKind reports whether any error in err's chain is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == k
}
