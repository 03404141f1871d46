package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sleepvoice-server-go/internal/domain/auth"
	"sleepvoice-server-go/internal/platform/logging"
	"sleepvoice-server-go/internal/platform/ratelimit"
)

const identityKey = "sleepvoice.identity"

// DeviceMiddleware resolves the calling device and spends one token from its
// rate-limit bucket.
func DeviceMiddleware(authority *auth.TokenAuthority, limiter *ratelimit.Limiter, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := auth.FromRequest(c.Request, authority)
		if err != nil {
			logger.WarnTag("HTTP", "rejected %s from %s: %v", c.Request.URL.Path, c.ClientIP(), err)
			RespondError(c, http.StatusUnauthorized, "unauthorized", gin.H{})
			c.Abort()
			return
		}
		if !limiter.Allow(id.DeviceID) {
			c.Header("Retry-After", "1")
			RespondError(c, http.StatusTooManyRequests, "too many requests", gin.H{})
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by DeviceMiddleware.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
