package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"paybridge.app/app/internal/shared/apperr"
)

const CtxKeyAdmin = "admin_user"

type AdminCredentials struct {
	Username     string
	PasswordHash string // bcrypt
}

// RequireAdmin checks HTTP basic auth against a single operator account.
// Without a configured account every request is refused.
func RequireAdmin(creds AdminCredentials) gin.HandlerFunc {
	hash := []byte(creds.PasswordHash)
	configured := creds.Username != "" && len(hash) > 0

	return func(c *gin.Context) {
		if !configured {
			Fail(c, apperr.ForbiddenErr("Admin access is not configured."))
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="payments-admin", charset="UTF-8"`)
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(creds.Username)) == 1
		passOK := bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
		if !userOK || !passOK {
			c.Header("WWW-Authenticate", `Basic realm="payments-admin", charset="UTF-8"`)
			Fail(c, apperr.UnauthorizedErr("Invalid credentials."))
			return
		}

		c.Set(CtxKeyAdmin, user)
		c.Next()
	}
}

func AdminUser(c *gin.Context) string {
	return c.GetString(CtxKeyAdmin)
}
