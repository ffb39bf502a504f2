package models

import "time"

// Conversation is the single thread between two users about one product.
// The participant pair is stored normalized (user1_id < user2_id) so the
// unique index on (user1_id, user2_id, product_id) covers the unordered
// pair. Conversations are created lazily on first send and never deleted.
type Conversation struct {
	ID            int       `db:"id" json:"id"`
	User1ID       int       `db:"user1_id" json:"user1_id"`
	User2ID       int       `db:"user2_id" json:"user2_id"`
	ProductID     int       `db:"product_id" json:"product_id"`
	LastMessageID *int      `db:"last_message_id" json:"last_message_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// OtherParticipant returns the participant that is not userID.
func (c Conversation) OtherParticipant(userID int) int {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ConversationSummary is the annotated view returned by the conversation
// list: the other side's display name, the product summary, the last
// message and the per-request unread count.
type ConversationSummary struct {
	ConversationID int            `json:"conversation_id"`
	OtherUserID    int            `json:"other_user_id"`
	OtherUserName  string         `json:"other_user_name"`
	Product        ProductSummary `json:"product"`
	LastMessage    *Message       `json:"last_message,omitempty"`
	UnreadCount    int            `json:"unread_count"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
