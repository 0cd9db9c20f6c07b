package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const defaultPublicMsg = "An unexpected error occurred."

func (e *AppError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// New builds an error of the given kind. publicMsg is shown to callers and
// must not leak internals; cause may be nil.
func New(kind Kind, publicMsg string, cause error) *AppError {
	return &AppError{Kind: kind, PublicMsg: publicMsg, Err: cause}
}

func InvalidErr(publicMsg string, fields map[string]string) *AppError {
	e := New(Invalid, publicMsg, nil)
	e.Fields = fields
	return e
}

func NotFoundErr(publicMsg string) *AppError     { return New(NotFound, publicMsg, nil) }
func UnauthorizedErr(publicMsg string) *AppError { return New(Unauthorized, publicMsg, nil) }
func ForbiddenErr(publicMsg string) *AppError    { return New(Forbidden, publicMsg, nil) }
func ConflictErr(publicMsg string) *AppError     { return New(Conflict, publicMsg, nil) }

func RejectedErr(publicMsg string, cause error) *AppError {
	return New(Rejected, publicMsg, cause)
}

func UpstreamErr(publicMsg string, cause error) *AppError {
	return New(Upstream, publicMsg, cause)
}

func UnavailableErr(publicMsg string, cause error) *AppError {
	return New(Unavailable, publicMsg, cause)
}

// Wrap hides err behind the generic public message (500).
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return New(Internal, defaultPublicMsg, err)
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		return ae.Kind.Status()
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return defaultPublicMsg
}

// Code is the machine-readable kind sent next to the public message.
func Code(err error) string {
	if ae, ok := As(err); ok {
		return string(ae.Kind)
	}
	return string(Internal)
}
