package models

// PushEvent is the frame written to live websocket connections.
type PushEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Event names pushed over the presence connection. new_message carries the
// delivered message, conversation_read is a payload-free invalidation so
// the other side can refresh read state, online_users carries the full
// current set of online user ids.
const (
	EventNewMessage       = "new_message"
	EventConversationRead = "conversation_read"
	EventOnlineUsers      = "online_users"
)
