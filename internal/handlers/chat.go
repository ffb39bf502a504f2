package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/service"
	"campus-chat-service/internal/telemetry"
)

// ChatHandler exposes the messaging service over HTTP.
type ChatHandler struct {
	chat    service.API
	emitter *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chat service.API, emitter *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{chat: chat, emitter: emitter}
}

// ListConversations returns the caller's conversations annotated for the
// inbox view.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")

	conversations, err := h.chat.ListConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// UnreadCount returns the caller's total unread message count.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.chat.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// GetMessages returns the ordered history with another user about a
// product. A pair that never talked yields an empty list, not an error.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	productID, _ := strconv.Atoi(c.Query("product_id"))

	userID := c.GetInt("userID")
	msgs, err := h.chat.GetMessages(c.Request.Context(), userID, otherID, productID)
	if err != nil {
		status, message := statusForError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage stores a message for the recipient about a product. An empty
// body is tolerated with a null result so a stray empty submit from the UI
// is not an error.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	receiverID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Message   string `json:"message"`
		ProductID int    `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.chat.SendMessage(c.Request.Context(), userID, receiverID, req.ProductID, req.Message)
	if err != nil {
		status, message := statusForError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}
	if msg == nil {
		c.JSON(http.StatusOK, nil)
		return
	}

	h.emitter.Emit(c.Request.Context(), "message_sent", requestIDFromContext(c), userIDFromContext(c), map[string]any{
		"conversation_id": msg.ConversationID,
		"message_id":      msg.ID,
		"receiver_id":     receiverID,
	})

	c.JSON(http.StatusCreated, msg)
}

// MarkAsRead marks every unread message from the other user as read.
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	updated, err := h.chat.MarkAsRead(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "messages_read", requestIDFromContext(c), userIDFromContext(c), map[string]any{
		"other_user_id": otherID,
		"updated":       updated,
	})

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrProductRequired):
		return http.StatusBadRequest, "product id required"
	case errors.Is(err, service.ErrSelfMessage):
		return http.StatusBadRequest, "cannot message yourself"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "peer-to-peer chat is only allowed within the same college"
	case errors.Is(err, repositories.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, repositories.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, repositories.ErrConversationNotFound):
		return http.StatusNotFound, "conversation not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
