package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/internal/shared/apperr"
)

func TestPaymentErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&payments.ValidationError{Fields: map[string]string{"amount": "x"}}, http.StatusBadRequest},
		{payments.ErrDuplicateOrder, http.StatusConflict},
		{payments.ErrNotFound, http.StatusNotFound},
		{payments.ErrInvalidSignature, http.StatusUnauthorized},
		{fmt.Errorf("%w: db down", payments.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{&payments.GatewayFailure{Result: payments.GatewayResult{Outcome: payments.GatewayRejected, Reason: "Invalid phone"}}, http.StatusUnprocessableEntity},
		{&payments.GatewayFailure{Result: payments.GatewayResult{Outcome: payments.GatewayError, HTTPStatus: 500}}, http.StatusBadGateway},
		{&payments.GatewayFailure{Result: payments.GatewayResult{Outcome: payments.GatewayUnreachable, Cause: errors.New("timeout")}}, http.StatusServiceUnavailable},
		{errors.New("surprise"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, apperr.HTTPStatus(PaymentError(tt.err)), "%v", tt.err)
	}
}

func TestPaymentErrorKeepsGatewayReason(t *testing.T) {
	err := PaymentError(&payments.GatewayFailure{Result: payments.GatewayResult{Outcome: payments.GatewayRejected, Reason: "Invalid phone"}})
	require.Equal(t, "Invalid phone", apperr.PublicMessage(err))

	err = PaymentError(&payments.GatewayFailure{Result: payments.GatewayResult{Outcome: payments.GatewayError, HTTPStatus: 500, Reason: "Merchant account suspended"}})
	require.Equal(t, http.StatusBadGateway, apperr.HTTPStatus(err))
	require.Equal(t, "Merchant account suspended", apperr.PublicMessage(err))

	err = PaymentError(&payments.GatewayFailure{Result: payments.GatewayResult{Outcome: payments.GatewayError, HTTPStatus: 500}})
	require.Contains(t, apperr.PublicMessage(err), "returned an error")

	fields := PaymentError(&payments.ValidationError{Fields: map[string]string{"buyerEmail": "bad"}})
	ae, ok := apperr.As(fields)
	require.True(t, ok)
	require.Equal(t, "bad", ae.Fields["buyerEmail"])
}
