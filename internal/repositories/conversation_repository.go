package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	FindOrCreate(ctx context.Context, userID, otherID, productID int) (models.Conversation, error)
	Find(ctx context.Context, userID, otherID, productID int) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int) ([]models.Conversation, error)
	HasAny(ctx context.Context, userID int) (bool, error)
	SetLastMessage(ctx context.Context, conversationID, messageID int) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func normalizePair(userID, otherID int) (int, int) {
	if userID > otherID {
		return otherID, userID
	}
	return userID, otherID
}

const conversationColumns = `id, user1_id, user2_id, product_id, last_message_id, created_at, updated_at`

// FindOrCreate returns the conversation for the unordered pair and product,
// creating it when absent. Two racing first sends both reach the insert;
// the unique index makes one a no-op, and the follow-up select returns the
// surviving row to both.
func (r *ConversationRepo) FindOrCreate(ctx context.Context, userID, otherID, productID int) (models.Conversation, error) {
	user1, user2 := normalizePair(userID, otherID)

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `INSERT INTO conversations (user1_id, user2_id, product_id) VALUES ($1, $2, $3)
        ON CONFLICT (user1_id, user2_id, product_id) DO NOTHING
        RETURNING `+conversationColumns, user1, user2, productID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	err = r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE user1_id=$1 AND user2_id=$2 AND product_id=$3`, user1, user2, productID)
	return conv, err
}

// Find locates the conversation for the pair and product, or
// ErrConversationNotFound.
func (r *ConversationRepo) Find(ctx context.Context, userID, otherID, productID int) (models.Conversation, error) {
	user1, user2 := normalizePair(userID, otherID)

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE user1_id=$1 AND user2_id=$2 AND product_id=$3`, user1, user2, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns every conversation the user participates in, newest
// activity first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs, `SELECT `+conversationColumns+` FROM conversations
        WHERE user1_id=$1 OR user2_id=$1
        ORDER BY updated_at DESC`, userID)
	return convs, err
}

// HasAny reports whether the user participates in any conversation.
func (r *ConversationRepo) HasAny(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conversations WHERE user1_id=$1 OR user2_id=$1)`, userID)
	return exists, err
}

// SetLastMessage advances the conversation's last-message pointer and its
// activity timestamp.
func (r *ConversationRepo) SetLastMessage(ctx context.Context, conversationID, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversations SET last_message_id=$2, updated_at=NOW() WHERE id=$1`, conversationID, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}
