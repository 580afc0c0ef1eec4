package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/johnagbike-dotcom/nesta-server/pkg/auth"
)

const (
	ctxSub   = "sub"
	ctxRole  = "role"
	ctxEmail = "email"
)

func JWTAuth(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			abort(c, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}
		claims, err := signer.ParseValidate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}
		c.Set(ctxSub, claims.Sub)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[c.GetString(ctxRole)]; !ok {
			abort(c, http.StatusForbidden, "forbidden", "Insufficient role")
			return
		}
		c.Next()
	}
}

// RequestLog writes one line per request.
func RequestLog(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		switch st := c.Writer.Status(); {
		case st >= 500:
			log.WithFields(fields).Error("request")
		case st >= 400:
			log.WithFields(fields).Warn("request")
		default:
			log.WithFields(fields).Debug("request")
		}
	}
}

// actor names the authenticated caller for audit fields.
func actor(c *gin.Context) string {
	if e := c.GetString(ctxEmail); e != "" {
		return e
	}
	return c.GetString(ctxSub)
}
