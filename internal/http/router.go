package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"paybridge.app/app/internal/http/handlers"
	"paybridge.app/app/internal/http/handlers/admin"
	"paybridge.app/app/internal/http/middleware"
	"paybridge.app/app/internal/modules/payments"
	"paybridge.app/app/internal/shared/apperr"
)

// Deps are the collaborators the router wires into handlers. A nil Store
// means payments are disabled and every payment route answers 503.
type Deps struct {
	Logger *slog.Logger

	Store     payments.Store
	Payments  *payments.Service
	Callbacks *payments.CallbackService
	Admin     *payments.AdminService
	Exporter  *payments.Exporter

	AdminCredentials middleware.AdminCredentials
	AllowedOrigins   []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))
	r.Use(middleware.Recovery(d.Logger))

	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "payments": d.Store != nil})
	})

	api := r.Group("/api")
	requireAdmin := middleware.RequireAdmin(d.AdminCredentials)

	if d.Store == nil {
		off := paymentsDisabled
		api.POST("/payment/initiate", off)
		api.GET("/payment/status/:orderId", off)
		api.POST("/payment/callback", off)
		api.GET("/payment/history", requireAdmin, off)
		api.POST("/payment/history", requireAdmin, off)
		api.PUT("/payment/history", requireAdmin, off)
		api.GET("/admin/payments/:orderId", requireAdmin, off)
		api.POST("/admin/payments/export", requireAdmin, off)
		return r
	}

	pay := handlers.NewPaymentsHandler(d.Payments, d.Store)
	cb := handlers.NewCallbackHandler(d.Logger, d.Callbacks)
	adm := admin.NewPaymentsHandler(d.Admin, d.Exporter)

	api.POST("/payment/initiate", pay.Initiate)
	api.GET("/payment/status/:orderId", pay.Status)
	api.POST("/payment/callback", cb.Handle)

	ops := api.Group("", requireAdmin)
	{
		ops.GET("/payment/history", adm.List)
		ops.POST("/payment/history", adm.Create)
		ops.PUT("/payment/history", adm.UpdateStatus)
		ops.GET("/admin/payments/:orderId", adm.Detail)
		ops.POST("/admin/payments/export", adm.Export)
	}

	return r
}

func paymentsDisabled(c *gin.Context) {
	middleware.Fail(c, apperr.UnavailableErr("Payments are not configured.", nil))
}
