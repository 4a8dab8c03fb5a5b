package supabase

import (
	"fmt"
	"strings"

	"resty.dev/v3"

	"github.com/srikaanthtb/bolt-forum/internal/models"
)

const uniqueViolation = "23505"

// apiError covers both PostgREST ({code, message, details, hint}) and GoTrue
// ({error, error_description} or {code, error_code, msg}) error bodies.
type apiError struct {
	Code             any    `json:"code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Details          string `json:"details"`
	ErrorCode        string `json:"error_code"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.ErrorDescription, e.ErrorName} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Error is a non-2xx response. It unwraps to a models sentinel when the
// response maps onto one.
type Error struct {
	Op      string
	Status  int
	Code    string
	Message string

	sentinel error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.sentinel
}

func responseError(op string, res *resty.Response) *Error {
	e := &Error{Op: op, Status: res.StatusCode(), Message: res.Status()}

	if body, ok := res.Error().(*apiError); ok && body != nil {
		if body.Code != nil {
			e.Code = fmt.Sprint(body.Code)
		}
		if body.ErrorCode != "" {
			e.Code = body.ErrorCode
		}
		if text := body.text(); text != "" {
			e.Message = text
		}
		if body.ErrorName == "invalid_grant" {
			e.Code = body.ErrorName
		}
	}

	switch {
	case e.Code == uniqueViolation:
		e.sentinel = models.ErrDuplicate
	case e.Code == "invalid_grant" || e.Code == "invalid_credentials":
		e.sentinel = models.ErrInvalidCredentials
	case e.Code == "user_already_exists" || e.Code == "email_exists" ||
		strings.Contains(strings.ToLower(e.Message), "already registered"):
		e.sentinel = models.ErrDuplicateEmail
	}
	return e
}

// check turns a transport error or an error response into an error.
func check(op string, res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.IsError() {
		return responseError(op, res)
	}
	return nil
}
