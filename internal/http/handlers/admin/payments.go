package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"paybridge.app/app/internal/http/handlers"
	"paybridge.app/app/internal/http/middleware"
	"paybridge.app/app/internal/http/validation"
	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/internal/shared/apperr"
)

const pageSize = 30

type PaymentsHandler struct {
	Admin    *payments.AdminService
	Exporter *payments.Exporter
}

func NewPaymentsHandler(admin *payments.AdminService, exp *payments.Exporter) *PaymentsHandler {
	return &PaymentsHandler{Admin: admin, Exporter: exp}
}

// GET /api/payment/history
// Without filters every record is returned, newest first.
func (h *PaymentsHandler) List(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	status := strings.TrimSpace(c.Query("status"))
	pageParam := c.Query("page")

	if q == "" && status == "" && pageParam == "" {
		all, err := h.Admin.ListAll(c.Request.Context())
		if err != nil {
			c.Error(handlers.PaymentError(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"payments": handlers.PaymentViews(all),
			"total":    len(all),
		})
		return
	}

	page := parseInt(pageParam, 1)
	res, err := h.Admin.List(c.Request.Context(), payments.ListParams{
		Q: q, Status: status, Page: page, PageSize: pageSize,
	})
	if err != nil {
		c.Error(handlers.PaymentError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"payments":   handlers.PaymentViews(res.Items),
		"total":      res.Total,
		"page":       page,
		"totalPages": pagesFromTotal(res.Total, pageSize),
	})
}

type createRecordRequest struct {
	payments.InitiateInput
	GatewayResponse json.RawMessage `json:"gatewayResponse"`
}

// POST /api/payment/history
func (h *PaymentsHandler) Create(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.InvalidErr("Invalid request body.", validation.FromBindError(err, &req)))
		return
	}

	p, err := h.Admin.CreateRecord(c.Request.Context(), payments.CreateRecordInput{
		InitiateInput:   req.InitiateInput,
		GatewayResponse: handlers.JSONColumn(req.GatewayResponse),
	})
	if err != nil {
		c.Error(handlers.PaymentError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "payment": handlers.PaymentView(p)})
}

type updateStatusRequest struct {
	OrderID         string          `json:"orderId" binding:"required"`
	Status          string          `json:"status" binding:"required"`
	GatewayResponse json.RawMessage `json:"gatewayResponse"`
}

// PUT /api/payment/history
// Operator override: always applied, terminal or not.
func (h *PaymentsHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperr.InvalidErr("Invalid request body.", validation.FromBindError(err, &req)))
		return
	}

	p, err := h.Admin.ManualSetStatus(c.Request.Context(), payments.ManualStatusInput{
		OrderID:         req.OrderID,
		Status:          req.Status,
		GatewayResponse: handlers.JSONColumn(req.GatewayResponse),
		Actor:           middleware.AdminUser(c),
	})
	if err != nil {
		c.Error(handlers.PaymentError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": handlers.PaymentView(p)})
}

// GET /api/admin/payments/:orderId
func (h *PaymentsHandler) Detail(c *gin.Context) {
	d, err := h.Admin.Get(c.Request.Context(), strings.TrimSpace(c.Param("orderId")))
	if err != nil {
		c.Error(handlers.PaymentError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": handlers.PaymentDetailView(d)})
}

// POST /api/admin/payments/export?status=
func (h *PaymentsHandler) Export(c *gin.Context) {
	if h.Exporter == nil {
		c.Error(apperr.UnavailableErr("Export storage is not configured.", nil))
		return
	}
	res, err := h.Exporter.Export(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.Error(handlers.PaymentError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"key":     res.Key,
		"url":     res.URL,
		"count":   res.Count,
	})
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func pagesFromTotal(total int64, size int) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
