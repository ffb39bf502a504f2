package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/policy"
	"campus-chat-service/internal/repositories"
)

var (
	ErrProductRequired = errors.New("product id required")
	ErrSelfMessage     = errors.New("cannot message yourself")
	ErrForbidden       = errors.New("messaging forbidden")
)

// Notifier pushes an event to a user's live connection. Implementations
// are best-effort: absent or failed delivery never produces an error.
type Notifier interface {
	Notify(userID int, event string, payload any)
}

// API is the messaging surface consumed by transport handlers.
type API interface {
	SendMessage(ctx context.Context, senderID, receiverID, productID int, text string) (*models.Message, error)
	GetMessages(ctx context.Context, requesterID, otherID, productID int) ([]models.Message, error)
	ListConversations(ctx context.Context, userID int) ([]models.ConversationSummary, error)
	MarkAsRead(ctx context.Context, userID, otherID int) (int64, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
}

// ChatService orchestrates access checks, conversation/message persistence
// and live delivery.
type ChatService struct {
	users         repositories.UserRepository
	products      repositories.ProductRepository
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	notifier      Notifier
	log           *logrus.Logger
}

// NewChatService builds a ChatService.
func NewChatService(
	users repositories.UserRepository,
	products repositories.ProductRepository,
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	notifier Notifier,
	log *logrus.Logger,
) *ChatService {
	return &ChatService{
		users:         users,
		products:      products,
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		log:           log,
	}
}

var _ API = (*ChatService)(nil)

// SendMessage validates access, finds or creates the conversation for the
// pair and product, appends the message and pushes it to the receiver's
// live connection if there is one.
//
// An empty body after trimming returns (nil, nil): no record is created and
// the caller answers with a null result, tolerating UI races where an empty
// submit slipped through.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID, productID int, text string) (*models.Message, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, nil
	}
	if productID <= 0 {
		return nil, ErrProductRequired
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	sender, err := s.users.GetUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.users.GetUser(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	if allowed, reason := policy.CanMessage(sender, receiver); !allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, reason)
	}

	conv, err := s.conversations.FindOrCreate(ctx, senderID, receiverID, productID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.CreateMessage(ctx, conv.ID, senderID, receiverID, body)
	if err != nil {
		return nil, err
	}
	if err := s.conversations.SetLastMessage(ctx, conv.ID, msg.ID); err != nil {
		// The message row exists but the conversation pointer did not
		// advance. The operation fails as a whole; the sender may resubmit.
		return nil, err
	}

	// Live delivery is decoupled from persistence: an offline receiver or
	// a failed push never affects the result.
	s.notifier.Notify(receiverID, models.EventNewMessage, msg)

	s.log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
		"sender_id":       senderID,
		"receiver_id":     receiverID,
	}).Debug("message sent")

	return &msg, nil
}

// GetMessages returns the ordered history for the pair and product. A pair
// that never talked about the product yields an empty slice, not an error.
func (s *ChatService) GetMessages(ctx context.Context, requesterID, otherID, productID int) ([]models.Message, error) {
	if productID <= 0 {
		return nil, ErrProductRequired
	}

	conv, err := s.conversations.Find(ctx, requesterID, otherID, productID)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	return s.messages.ListByConversation(ctx, conv.ID)
}

// ListConversations returns the user's conversations, newest activity
// first, annotated with the other participant's name, the product summary,
// the last message and the unread count. Counts are computed per request
// rather than stored, so they cannot drift from message state.
func (s *ChatService) ListConversations(ctx context.Context, userID int) ([]models.ConversationSummary, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []models.ConversationSummary{}, nil
	}

	otherIDs := make([]int, 0, len(convs))
	otherIDSet := map[int]struct{}{}
	productIDs := make([]int, 0, len(convs))
	productIDSet := map[int]struct{}{}
	lastMessageIDs := make([]int, 0, len(convs))
	for _, conv := range convs {
		other := conv.OtherParticipant(userID)
		if _, ok := otherIDSet[other]; !ok {
			otherIDSet[other] = struct{}{}
			otherIDs = append(otherIDs, other)
		}
		if _, ok := productIDSet[conv.ProductID]; !ok {
			productIDSet[conv.ProductID] = struct{}{}
			productIDs = append(productIDs, conv.ProductID)
		}
		if conv.LastMessageID != nil {
			lastMessageIDs = append(lastMessageIDs, *conv.LastMessageID)
		}
	}

	users, err := s.users.GetUsers(ctx, otherIDs)
	if err != nil {
		return nil, err
	}
	nameByID := map[int]string{}
	for _, u := range users {
		nameByID[u.ID] = u.FullName
	}

	products, err := s.products.GetProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productByID := map[int]models.ProductSummary{}
	for _, p := range products {
		productByID[p.ID] = p.Summary()
	}

	lastMessages, err := s.messages.GetByIDs(ctx, lastMessageIDs)
	if err != nil {
		return nil, err
	}
	messageByID := map[int]models.Message{}
	for _, m := range lastMessages {
		messageByID[m.ID] = m
	}

	unread, err := s.messages.UnreadCountsByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		other := conv.OtherParticipant(userID)
		summary := models.ConversationSummary{
			ConversationID: conv.ID,
			OtherUserID:    other,
			OtherUserName:  nameByID[other],
			Product:        productByID[conv.ProductID],
			UnreadCount:    unread[conv.ID],
			UpdatedAt:      conv.UpdatedAt,
		}
		if conv.LastMessageID != nil {
			if m, ok := messageByID[*conv.LastMessageID]; ok {
				summary.LastMessage = &m
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// MarkAsRead flips every unread message from otherID to userID and sends a
// lightweight invalidation push to the other side so their read state can
// refresh. Returns the number of messages flipped.
func (s *ChatService) MarkAsRead(ctx context.Context, userID, otherID int) (int64, error) {
	flipped, err := s.messages.MarkRead(ctx, userID, otherID)
	if err != nil {
		return 0, err
	}

	s.notifier.Notify(otherID, models.EventConversationRead, nil)

	if flipped > 0 {
		s.log.WithFields(logrus.Fields{
			"user_id":  userID,
			"other_id": otherID,
			"flipped":  flipped,
		}).Debug("messages marked read")
	}
	return flipped, nil
}

// UnreadCount sums unread messages across all of the user's conversations.
// Users with no conversations short-circuit to zero without touching the
// message store.
func (s *ChatService) UnreadCount(ctx context.Context, userID int) (int, error) {
	has, err := s.conversations.HasAny(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !has {
		return 0, nil
	}
	return s.messages.UnreadCount(ctx, userID)
}
