package api

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/service"
)

const identityKey = "taskboard_identity"

// IdentityVerifier turns a bearer token into the caller's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (service.Identity, error)
}

// Authenticate rejects the request with 401 unless it carries a valid
// bearer token. No store is touched before this passes.
func Authenticate(verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			respondError(c, service.ErrUnauthorized, "")
			return
		}
		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			slog.Debug("token rejected", "error", err)
			respondError(c, service.ErrUnauthorized, "")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func identityFrom(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return service.Identity{}, false
	}
	id, ok := v.(service.Identity)
	return id, ok
}

// extractBearerToken reads "Authorization: Bearer <token>".
func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
