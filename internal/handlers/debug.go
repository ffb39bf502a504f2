package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chat-service/internal/telemetry"
)

// RegisterDebugRoutes wires endpoints that only exist when debug mode is
// on. /debug/audit-test ships a probe record through the audit pipeline so
// the bus wiring can be verified end to end without sending a message.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}

		requestID := requestIDFromContext(c)
		emitter.Emit(c.Request.Context(), "audit_test", requestID, userIDFromContext(c), map[string]any{
			"probe": true,
		})
		c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestID})
	})
}
