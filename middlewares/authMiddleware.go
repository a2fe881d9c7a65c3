package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tariqtharwat-OPS/ocean-pearl-ops-sub001/utils"
)

const (
	HeaderActorUserId   = "X-Actor-User-Id"
	HeaderCorrelationId = "X-Correlation-Id"
	HeaderRequestSource = "X-Request-Source"
)

// ActorMiddleware takes the actor identity the authenticating gateway put on
// the request. Requests without one are rejected before reaching a handler.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.Request.Header.Get(HeaderActorUserId))
		if actor == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "actor identity is required"})
			c.Abort()
			return
		}
		ctx := utils.SetActorUserIdInContext(c.Request.Context(), actor)
		if source := strings.TrimSpace(c.Request.Header.Get(HeaderRequestSource)); source != "" {
			ctx = utils.SetRequestSourceInContext(ctx, source)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CorrelationMiddleware propagates X-Correlation-Id, minting one when absent.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := strings.TrimSpace(c.Request.Header.Get(HeaderCorrelationId))
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		c.Writer.Header().Set(HeaderCorrelationId, correlationId)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), correlationId))
		c.Next()
	}
}
