package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/auth"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/service"
)

// Gateway upgrades authenticated clients to a websocket and dispatches their
// frames. All state changes go through the same services as the REST
// handlers, so the socket path enforces the same rules.
type Gateway struct {
	hub      *Hub
	tokens   *auth.TokenService
	convos   *service.ConversationService
	messages *service.MessageService
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, tokens *auth.TokenService, convos *service.ConversationService, messages *service.MessageService) *Gateway {
	return &Gateway{hub: hub, tokens: tokens, convos: convos, messages: messages}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// conversationRef is a conversation id in a client frame: a number, a numeric
// string, or the literal "auto" meaning "the DIRECT conversation with
// recipientId, created if needed".
type conversationRef struct {
	ID   int
	Auto bool
}

func (v *conversationRef) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		v.ID = n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "auto" {
		v.Auto = true
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	v.ID = n
	return nil
}

// clientFrame is the envelope for every frame a client sends.
type clientFrame struct {
	Event           string                `json:"event"`
	ConversationID  conversationRef       `json:"conversationId"`
	ConversationIDs []int                 `json:"conversationIds"`
	RecipientID     int                   `json:"recipientId"`
	Content         string                `json:"content"`
	Attachments     models.AttachmentList `json:"attachments"`
	QuotedMessageID *int                  `json:"quotedMessageId"`
}

// Handle authenticates the request, upgrades it and runs the read pump until
// the client goes away.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := g.authenticate(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive(wsKind)
	observability.IncWSEvent(wsKind, "ws_connect")
	g.publishLifecycle(c, info, "ws_connect", "")

	var closeReason string
	defer func() {
		g.hub.Disconnect(conn)
		conn.Close()
		observability.DecWSActive(wsKind)
		observability.IncWSEvent(wsKind, "ws_disconnect")
		g.publishLifecycle(c, info, "ws_disconnect", closeReason)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(wsKind, "ws_error")
				g.publishLifecycle(c, info, "ws_error", closeReason)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			g.writeError(conn, "", "malformed frame")
			continue
		}

		switch frame.Event {
		case "rooms:join":
			g.handleJoin(c, conn, info, frame)
		case models.EventTyping:
			g.handleTyping(conn, userID, frame)
		case "message:send":
			g.handleSend(c, conn, info, frame)
		default:
			g.writeError(conn, frame.Event, "unknown event")
		}
	}
}

// handleJoin subscribes the connection to rooms the user participates in.
// Ids that fail the membership check are skipped without a response.
func (g *Gateway) handleJoin(c *gin.Context, conn *websocket.Conn, info ConnInfo, frame clientFrame) {
	ids := frame.ConversationIDs
	if frame.ConversationID.ID != 0 {
		ids = append(ids, frame.ConversationID.ID)
	}
	for _, id := range ids {
		if _, err := g.convos.Get(c.Request.Context(), info.UserID, id); err != nil {
			continue
		}
		g.hub.Join(id, conn, info)
		observability.IncWSEvent(wsKind, "rooms:join")
	}
}

// handleTyping relays the indicator to the room. Connections that never
// joined the room are ignored.
func (g *Gateway) handleTyping(conn *websocket.Conn, userID int, frame clientFrame) {
	conversationID := frame.ConversationID.ID
	if conversationID == 0 || !g.hub.InRoom(conversationID, conn) {
		return
	}
	g.hub.BroadcastTyping(conversationID, userID, conn)
	observability.IncWSEvent(wsKind, models.EventTyping)
}

// handleSend persists a message through the message service and joins the
// sender to the room. With conversationId "auto" the DIRECT conversation
// with recipientId is resolved first, creating it when absent.
func (g *Gateway) handleSend(c *gin.Context, conn *websocket.Conn, info ConnInfo, frame clientFrame) {
	ctx := c.Request.Context()

	conversationID := frame.ConversationID.ID
	if frame.ConversationID.Auto {
		if frame.RecipientID == 0 {
			g.writeError(conn, "message:send", "recipientId is required with auto")
			return
		}
		convo, err := g.convos.Create(ctx, info.UserID, service.CreateConversationInput{
			Type:           models.ConversationDirect,
			ParticipantIDs: []int{frame.RecipientID},
		})
		if err != nil {
			g.writeError(conn, "message:send", reasonFor(err))
			return
		}
		conversationID = convo.ID
	}
	if conversationID == 0 {
		g.writeError(conn, "message:send", "conversationId is required")
		return
	}

	_, err := g.messages.Send(ctx, info.UserID, conversationID, service.SendMessageInput{
		Content:         frame.Content,
		Attachments:     frame.Attachments,
		QuotedMessageID: frame.QuotedMessageID,
	})
	if err != nil {
		g.writeError(conn, "message:send", reasonFor(err))
		return
	}
	g.hub.Join(conversationID, conn, info)
	observability.IncWSEvent(wsKind, "message:send")
}

// writeError reports a failed frame back to its sender instead of dropping
// it silently.
func (g *Gateway) writeError(conn *websocket.Conn, failedEvent, reason string) {
	_ = g.hub.WriteEvent(conn, models.RoomEvent{
		Event:       models.EventError,
		FailedEvent: failedEvent,
		Reason:      reason,
	})
}

func (g *Gateway) authenticate(c *gin.Context) (int, error) {
	token := c.GetHeader("Authorization")
	if token != "" {
		parts := strings.SplitN(token, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return 0, auth.ErrInvalidToken
		}
		return g.tokens.Verify(parts[1])
	}
	if token = c.Query("token"); token != "" {
		return g.tokens.Verify(token)
	}
	return 0, auth.ErrInvalidToken
}

func (g *Gateway) publishLifecycle(c *gin.Context, info ConnInfo, event, reason string) {
	duration := int64(0)
	if event != "ws_connect" {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	_ = observability.PublishEvent(c.Request.Context(), wsRoutingKey, observability.EventEnvelope{
		EventType: wsEventsType,
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        wsKind,
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": duration,
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}

// reasonFor strips the sentinel prefix so clients see only the reason text.
func reasonFor(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{service.ErrInvalid, service.ErrForbidden, service.ErrNotFound} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	if errors.Is(err, service.ErrInvalid) || errors.Is(err, service.ErrForbidden) || errors.Is(err, service.ErrNotFound) {
		return msg
	}
	return "internal error"
}
