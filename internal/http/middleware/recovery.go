package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"paybridge.app/app/internal/shared/apperr"
)

// Recovery logs the panic with its stack and answers with the generic 500
// body. Aborted responses that already wrote headers are left alone.
func Recovery(l *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		l.LogAttrs(c.Request.Context(), slog.LevelError, "panic_recovered",
			slog.String("request_id", GetRequestID(c)),
			slog.String("route", c.FullPath()),
			slog.Any("panic", recovered),
			slog.String("stack", string(debug.Stack())),
		)

		if c.Writer.Written() {
			c.Abort()
			return
		}
		Fail(c, apperr.Wrap(fmt.Errorf("panic: %v", recovered)))
	})
}
