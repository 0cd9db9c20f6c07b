package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/internal/shared/apperr"
)

const maxCallbackBody = 64 << 10

type CallbackHandler struct {
	Logger *slog.Logger
	Svc    *payments.CallbackService
}

func NewCallbackHandler(logger *slog.Logger, svc *payments.CallbackService) *CallbackHandler {
	return &CallbackHandler{Logger: logger, Svc: svc}
}

// POST /api/payment/callback
// Any matched callback gets 200, including failed payments and ignored
// conflicts; 5xx asks the gateway to retry.
func (h *CallbackHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		c.Error(apperr.InvalidErr("Invalid body.", nil))
		return
	}

	var in payments.CallbackInput
	if err := json.Unmarshal(body, &in); err != nil {
		c.Error(apperr.InvalidErr("Callback body is not valid JSON.", nil))
		return
	}

	res, err := h.Svc.Handle(c.Request.Context(), in, body)
	if err != nil {
		c.Error(PaymentError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": callbackMessage(res),
		"orderId": res.OrderID,
		"status":  res.Status,
	})
}

func callbackMessage(res payments.CallbackResult) string {
	switch res.Outcome {
	case payments.OutcomeConflict:
		return "ignored: conflicting terminal status"
	case payments.OutcomeDuplicate:
		return "already processed"
	case payments.OutcomeRecorded:
		return "callback recorded"
	}
	return "payment " + string(res.Status)
}
