package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"paybridge.app/app/internal/http/validation"
	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/internal/shared/apperr"
	"paybridge.app/app/pkg/view"
)

type PaymentsHandler struct {
	Svc   *payments.Service
	Store payments.Store
}

func NewPaymentsHandler(svc *payments.Service, store payments.Store) *PaymentsHandler {
	return &PaymentsHandler{Svc: svc, Store: store}
}

// POST /api/payment/initiate
func (h *PaymentsHandler) Initiate(c *gin.Context) {
	var in payments.InitiateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.Error(apperr.InvalidErr("Invalid request body.", validation.FromBindError(err, &in)))
		return
	}

	res, err := h.Svc.Initiate(c.Request.Context(), in)
	if err != nil {
		c.Error(PaymentError(err))
		return
	}

	body := gin.H{
		"success": true,
		"orderId": res.OrderID,
		"status":  res.Status,
		"message": res.Message,
	}
	if res.PaymentID != "" {
		body["paymentId"] = res.PaymentID
	}
	if res.PaymentURL != "" {
		body["paymentUrl"] = res.PaymentURL
	}
	if res.Task != nil {
		body["simulated"] = true
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/payment/status/:orderId
func (h *PaymentsHandler) Status(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))

	p, err := h.Store.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		c.Error(PaymentError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": view.PaymentStatus{
			OrderID:   p.OrderID,
			Status:    string(p.Status),
			UpdatedAt: p.UpdatedAt,
		},
	})
}
