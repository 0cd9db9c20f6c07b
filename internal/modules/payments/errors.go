package payments

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicateOrder      = errors.New("order id already exists")
	ErrNotFound            = errors.New("payment not found")
	ErrStoreUnavailable    = errors.New("payment store unavailable")
	ErrConflictingTerminal = errors.New("conflicting terminal status")
	ErrInvalidTransition   = errors.New("invalid payment status transition")
	ErrInvalidStatus       = errors.New("invalid payment status")
	ErrInvalidSignature    = errors.New("invalid callback signature")
	ErrSimulatorClosed     = errors.New("simulator closed")
	ErrTaskCancelled       = errors.New("simulated completion cancelled")
)

// ValidationError lists the offending input fields by their JSON names.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "invalid " + strings.Join(names, ", ")
}

// GatewayFailure is returned by Initiate when the gateway did not accept the
// charge. The record stays pending.
type GatewayFailure struct {
	Result GatewayResult
}

func (e *GatewayFailure) Error() string {
	switch e.Result.Outcome {
	case GatewayRejected:
		return "gateway rejected: " + e.Result.Reason
	case GatewayUnreachable:
		return fmt.Sprintf("gateway unreachable: %v", e.Result.Cause)
	default:
		return fmt.Sprintf("gateway error: http %d", e.Result.HTTPStatus)
	}
}

func (e *GatewayFailure) Unwrap() error { return e.Result.Cause }
