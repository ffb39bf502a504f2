package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"campus-chat-service/internal/observability"
)

// TokenVerifier authenticates a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (int, error)
}

// Handler upgrades presence connections and keeps the registry in sync
// with their lifecycle.
type Handler struct {
	registry *Registry
	verifier TokenVerifier
	log      *logrus.Logger
}

// NewHandler constructs a Handler.
func NewHandler(registry *Registry, verifier TokenVerifier, log *logrus.Logger) *Handler {
	return &Handler{registry: registry, verifier: verifier, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// connInfo carries per-connection metadata for presence events.
type connInfo struct {
	ConnID      string
	UserID      int
	Anonymous   bool
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Handle upgrades the connection and registers it. Connections presenting
// a valid token are registered under their user id; the rest stay
// connected as anonymous listeners. Either way the registry broadcasts the
// online set and cleanup runs when the connection closes, normally or not.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("campus-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID := 0
	anonymous := true
	if token := bearerToken(c); token != "" {
		if id, err := h.verifier.Verify(token); err == nil {
			userID = id
			anonymous = false
		} else {
			h.log.WithError(err).Debug("presence token rejected, tracking connection as anonymous")
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	info := connInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		Anonymous:   anonymous,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	client := NewClient(conn)
	if anonymous {
		h.registry.RegisterAnonymous(client)
	} else {
		h.registry.Register(userID, client)
	}

	kind := connKind(anonymous)
	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.presence", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload(info, "ws_connect", ""),
	}, observability.BuildHeaders(requestID, info.TraceID))

	go h.readLoop(ctx, client, conn, info)
}

// readLoop drains the connection until it closes, then deregisters it so
// the registry stays consistent even on abnormal termination.
func (h *Handler) readLoop(ctx context.Context, client *Client, conn *websocket.Conn, info connInfo) {
	var closeReason string
	kind := connKind(info.Anonymous)
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)

	defer func() {
		if info.Anonymous {
			h.registry.UnregisterAnonymous(client)
		} else {
			h.registry.Unregister(info.UserID, client)
		}
		conn.Close()

		observability.DecWSActive(kind)
		observability.IncWSEvent(kind, "ws_disconnect")
		_ = observability.PublishEvent(ctx, "ws_events.presence", observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload:   wsEventPayload(info, "ws_disconnect", closeReason),
		}, headers)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(kind, "ws_error")
				_ = observability.PublishEvent(ctx, "ws_events.presence", observability.EventEnvelope{
					EventType: "ws_events",
					EventName: "ws_error",
					Payload:   wsEventPayload(info, "ws_error", closeReason),
				}, headers)
			}
			return
		}
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return c.Query("token")
}

func connKind(anonymous bool) string {
	if anonymous {
		return "anonymous"
	}
	return "named"
}

func wsEventPayload(info connInfo, event, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        connKind(info.Anonymous),
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
