package apperr

import "net/http"

// Kind classifies an error for the HTTP layer.
type Kind string

const (
	Invalid      Kind = "invalid"
	NotFound     Kind = "not_found"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	Conflict     Kind = "conflict"
	Rejected     Kind = "rejected"
	Upstream     Kind = "upstream"
	Unavailable  Kind = "unavailable"
	Internal     Kind = "internal"
)

var kindStatus = map[Kind]int{
	Invalid:      http.StatusBadRequest,
	Unauthorized: http.StatusUnauthorized,
	Forbidden:    http.StatusForbidden,
	NotFound:     http.StatusNotFound,
	Conflict:     http.StatusConflict,
	Rejected:     http.StatusUnprocessableEntity,
	Upstream:     http.StatusBadGateway,
	Unavailable:  http.StatusServiceUnavailable,
	Internal:     http.StatusInternalServerError,
}

// Status is the HTTP status for k; unknown kinds are 500.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

type AppError struct {
	Kind      Kind
	PublicMsg string            // safe to show to the caller
	Fields    map[string]string // per-field validation errors
	Err       error             // internal cause, logged only
}
