package handlers

import (
	"errors"

	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/internal/shared/apperr"
)

// PaymentError maps payments errors onto apperr kinds for ErrorHandler.
func PaymentError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}

	var ve *payments.ValidationError
	if errors.As(err, &ve) {
		return apperr.InvalidErr("Invalid payment details.", ve.Fields)
	}

	var gf *payments.GatewayFailure
	if errors.As(err, &gf) {
		switch gf.Result.Outcome {
		case payments.GatewayRejected:
			return apperr.RejectedErr(gatewayMessage(gf, "The payment request was rejected."), err)
		case payments.GatewayUnreachable:
			return apperr.UnavailableErr("The payment gateway could not be reached. Please try again later.", err)
		default:
			return apperr.UpstreamErr(gatewayMessage(gf, "The payment gateway returned an error. Please try again later."), err)
		}
	}

	switch {
	case errors.Is(err, payments.ErrDuplicateOrder):
		return apperr.ConflictErr("This order id has already been used.")
	case errors.Is(err, payments.ErrNotFound):
		return apperr.NotFoundErr("Payment not found.")
	case errors.Is(err, payments.ErrInvalidSignature):
		return apperr.UnauthorizedErr("Invalid callback signature.")
	case errors.Is(err, payments.ErrStoreUnavailable):
		return apperr.UnavailableErr("Payment records are temporarily unavailable.", err)
	}
	return apperr.Wrap(err)
}

// gatewayMessage prefers the reason the gateway gave over fallback.
func gatewayMessage(gf *payments.GatewayFailure, fallback string) string {
	if gf.Result.Reason != "" {
		return gf.Result.Reason
	}
	return fallback
}
