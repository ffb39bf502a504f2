package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID, senderID, receiverID int, body string) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID int) ([]models.Message, error)
	GetByIDs(ctx context.Context, ids []int) ([]models.Message, error)
	MarkRead(ctx context.Context, userID, otherID int) (int64, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	UnreadCountsByConversation(ctx context.Context, userID int) (map[int]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, receiver_id, body, read, created_at`

// CreateMessage appends an unread message to a conversation.
func (r *MessageRepo) CreateMessage(ctx context.Context, conversationID, senderID, receiverID int, body string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `INSERT INTO messages (conversation_id, sender_id, receiver_id, body) VALUES ($1, $2, $3, $4)
        RETURNING `+messageColumns, conversationID, senderID, receiverID, body)
	return msg, err
}

// ListByConversation returns the conversation's messages in send order.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC, id ASC`, conversationID)
	return msgs, err
}

// GetByIDs fetches messages by id in one query. Unknown ids are skipped.
func (r *MessageRepo) GetByIDs(ctx context.Context, ids []int) ([]models.Message, error) {
	if len(ids) == 0 {
		return []models.Message{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+messageColumns+` FROM messages WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	err = r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), args...)
	return msgs, err
}

// MarkRead flips every unread message from otherID to userID and returns
// how many rows changed.
func (r *MessageRepo) MarkRead(ctx context.Context, userID, otherID int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read=TRUE WHERE receiver_id=$1 AND sender_id=$2 AND read=FALSE`, userID, otherID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount counts unread messages addressed to the user across all of
// their conversations.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE receiver_id=$1 AND read=FALSE`, userID)
	return count, err
}

// UnreadCountsByConversation returns per-conversation unread counts for the
// user. Conversations with no unread messages are absent from the map.
func (r *MessageRepo) UnreadCountsByConversation(ctx context.Context, userID int) (map[int]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT conversation_id, COUNT(*) FROM messages WHERE receiver_id=$1 AND read=FALSE GROUP BY conversation_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[int]int{}
	for rows.Next() {
		var conversationID, count int
		if err := rows.Scan(&conversationID, &count); err != nil {
			return nil, err
		}
		counts[conversationID] = count
	}
	return counts, rows.Err()
}
