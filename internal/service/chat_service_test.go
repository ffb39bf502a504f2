package service_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat-service/internal/mocks"
	"campus-chat-service/internal/models"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/service"
)

type chatFixture struct {
	users         *mocks.UserRepositoryMock
	products      *mocks.ProductRepositoryMock
	conversations *mocks.ConversationRepositoryMock
	messages      *mocks.MessageRepositoryMock
	notifier      *mocks.NotifierMock
	svc           *service.ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		users:         new(mocks.UserRepositoryMock),
		products:      new(mocks.ProductRepositoryMock),
		conversations: new(mocks.ConversationRepositoryMock),
		messages:      new(mocks.MessageRepositoryMock),
		notifier:      new(mocks.NotifierMock),
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	f.svc = service.NewChatService(f.users, f.products, f.conversations, f.messages, f.notifier, logger)
	return f
}

func (f *chatFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.users.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.conversations.AssertExpectations(t)
	f.messages.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func intPtr(v int) *int { return &v }

func member(id, collegeID int) models.User {
	return models.User{ID: id, FullName: "user", Role: models.RoleMember, CollegeID: intPtr(collegeID)}
}

func TestSendMessageEmptyTextReturnsNullResult(t *testing.T) {
	f := newChatFixture()

	for _, text := range []string{"", "   ", "\n\t "} {
		msg, err := f.svc.SendMessage(context.Background(), 1, 2, 5, text)
		require.NoError(t, err)
		assert.Nil(t, msg)
	}

	// No store was touched and nothing was pushed.
	f.assertExpectations(t)
}

func TestSendMessageRequiresProduct(t *testing.T) {
	f := newChatFixture()

	_, err := f.svc.SendMessage(context.Background(), 1, 2, 0, "hi")
	assert.ErrorIs(t, err, service.ErrProductRequired)
	f.assertExpectations(t)
}

func TestSendMessageRejectsSelf(t *testing.T) {
	f := newChatFixture()

	_, err := f.svc.SendMessage(context.Background(), 1, 1, 5, "hi")
	assert.ErrorIs(t, err, service.ErrSelfMessage)
	f.assertExpectations(t)
}

func TestSendMessageUnknownReceiver(t *testing.T) {
	f := newChatFixture()

	f.users.On("GetUser", mock.Anything, 1).Return(member(1, 10), nil).Once()
	f.users.On("GetUser", mock.Anything, 2).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := f.svc.SendMessage(context.Background(), 1, 2, 5, "hi")
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
	f.assertExpectations(t)
}

func TestSendMessageUnknownProduct(t *testing.T) {
	f := newChatFixture()

	f.users.On("GetUser", mock.Anything, 1).Return(member(1, 10), nil).Once()
	f.users.On("GetUser", mock.Anything, 2).Return(member(2, 10), nil).Once()
	f.products.On("GetProduct", mock.Anything, 5).Return(models.Product{}, repositories.ErrProductNotFound).Once()

	_, err := f.svc.SendMessage(context.Background(), 1, 2, 5, "hi")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	f.assertExpectations(t)
}

func TestSendMessageCrossCollegeForbidden(t *testing.T) {
	f := newChatFixture()

	f.users.On("GetUser", mock.Anything, 1).Return(member(1, 10), nil).Once()
	f.users.On("GetUser", mock.Anything, 2).Return(member(2, 20), nil).Once()
	f.products.On("GetProduct", mock.Anything, 5).Return(models.Product{ID: 5}, nil).Once()

	_, err := f.svc.SendMessage(context.Background(), 1, 2, 5, "hi")
	assert.ErrorIs(t, err, service.ErrForbidden)

	// Denial happens before any conversation is created.
	f.conversations.AssertNotCalled(t, "FindOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSendMessageMemberToShopAllowed(t *testing.T) {
	f := newChatFixture()

	shop := models.User{ID: 2, FullName: "campus store", Role: models.RoleShop}
	conv := models.Conversation{ID: 9, User1ID: 1, User2ID: 2, ProductID: 5}
	stored := models.Message{ID: 42, ConversationID: 9, SenderID: 1, ReceiverID: 2, Body: "hi", CreatedAt: time.Now()}

	f.users.On("GetUser", mock.Anything, 1).Return(member(1, 10), nil).Once()
	f.users.On("GetUser", mock.Anything, 2).Return(shop, nil).Once()
	f.products.On("GetProduct", mock.Anything, 5).Return(models.Product{ID: 5}, nil).Once()
	f.conversations.On("FindOrCreate", mock.Anything, 1, 2, 5).Return(conv, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, 9, 1, 2, "hi").Return(stored, nil).Once()
	f.conversations.On("SetLastMessage", mock.Anything, 9, 42).Return(nil).Once()
	f.notifier.On("Notify", 2, models.EventNewMessage, stored).Once()

	msg, err := f.svc.SendMessage(context.Background(), 1, 2, 5, "  hi  ")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, 42, msg.ID)
	assert.Equal(t, 9, msg.ConversationID)
	f.assertExpectations(t)
}

func TestSendMessageReusesConversation(t *testing.T) {
	f := newChatFixture()

	conv := models.Conversation{ID: 9, User1ID: 1, User2ID: 2, ProductID: 5}

	f.users.On("GetUser", mock.Anything, 1).Return(member(1, 10), nil).Twice()
	f.users.On("GetUser", mock.Anything, 2).Return(member(2, 10), nil).Twice()
	f.products.On("GetProduct", mock.Anything, 5).Return(models.Product{ID: 5}, nil).Twice()
	f.conversations.On("FindOrCreate", mock.Anything, 1, 2, 5).Return(conv, nil).Twice()
	f.messages.On("CreateMessage", mock.Anything, 9, 1, 2, "first").
		Return(models.Message{ID: 1, ConversationID: 9, SenderID: 1, ReceiverID: 2, Body: "first"}, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, 9, 1, 2, "second").
		Return(models.Message{ID: 2, ConversationID: 9, SenderID: 1, ReceiverID: 2, Body: "second"}, nil).Once()
	f.conversations.On("SetLastMessage", mock.Anything, 9, 1).Return(nil).Once()
	f.conversations.On("SetLastMessage", mock.Anything, 9, 2).Return(nil).Once()
	f.notifier.On("Notify", 2, models.EventNewMessage, mock.Anything).Twice()

	first, err := f.svc.SendMessage(context.Background(), 1, 2, 5, "first")
	require.NoError(t, err)
	second, err := f.svc.SendMessage(context.Background(), 1, 2, 5, "second")
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	f.assertExpectations(t)
}

func TestSendMessageLastMessageUpdateFailureFailsWhole(t *testing.T) {
	f := newChatFixture()

	f.users.On("GetUser", mock.Anything, 1).Return(member(1, 10), nil).Once()
	f.users.On("GetUser", mock.Anything, 2).Return(member(2, 10), nil).Once()
	f.products.On("GetProduct", mock.Anything, 5).Return(models.Product{ID: 5}, nil).Once()
	f.conversations.On("FindOrCreate", mock.Anything, 1, 2, 5).Return(models.Conversation{ID: 9}, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, 9, 1, 2, "hi").
		Return(models.Message{ID: 42, ConversationID: 9}, nil).Once()
	f.conversations.On("SetLastMessage", mock.Anything, 9, 42).Return(assert.AnError).Once()

	_, err := f.svc.SendMessage(context.Background(), 1, 2, 5, "hi")
	assert.Error(t, err)

	// The operation failed, so nothing was pushed.
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestGetMessagesRequiresProduct(t *testing.T) {
	f := newChatFixture()

	_, err := f.svc.GetMessages(context.Background(), 1, 2, 0)
	assert.ErrorIs(t, err, service.ErrProductRequired)
	f.assertExpectations(t)
}

func TestGetMessagesNoConversationIsEmptyNotError(t *testing.T) {
	f := newChatFixture()

	f.conversations.On("Find", mock.Anything, 1, 2, 5).
		Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	msgs, err := f.svc.GetMessages(context.Background(), 1, 2, 5)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
	f.assertExpectations(t)
}

func TestGetMessagesReturnsOrderedHistory(t *testing.T) {
	f := newChatFixture()

	history := []models.Message{
		{ID: 1, ConversationID: 9, Body: "hey"},
		{ID: 2, ConversationID: 9, Body: "is this available?"},
	}
	f.conversations.On("Find", mock.Anything, 1, 2, 5).Return(models.Conversation{ID: 9}, nil).Once()
	f.messages.On("ListByConversation", mock.Anything, 9).Return(history, nil).Once()

	msgs, err := f.svc.GetMessages(context.Background(), 1, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, history, msgs)
	f.assertExpectations(t)
}

func TestListConversationsEmpty(t *testing.T) {
	f := newChatFixture()

	f.conversations.On("ListForUser", mock.Anything, 1).Return([]models.Conversation{}, nil).Once()

	summaries, err := f.svc.ListConversations(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	f.assertExpectations(t)
}

func TestListConversationsAnnotates(t *testing.T) {
	f := newChatFixture()

	convs := []models.Conversation{
		{ID: 9, User1ID: 1, User2ID: 2, ProductID: 5, LastMessageID: intPtr(42)},
		{ID: 10, User1ID: 1, User2ID: 3, ProductID: 6},
	}
	f.conversations.On("ListForUser", mock.Anything, 1).Return(convs, nil).Once()
	f.users.On("GetUsers", mock.Anything, []int{2, 3}).Return([]models.User{
		{ID: 2, FullName: "Bea"},
		{ID: 3, FullName: "Cal"},
	}, nil).Once()
	f.products.On("GetProducts", mock.Anything, []int{5, 6}).Return([]models.Product{
		{ID: 5, Title: "lamp", Price: 300},
		{ID: 6, Title: "desk", Price: 900},
	}, nil).Once()
	f.messages.On("GetByIDs", mock.Anything, []int{42}).Return([]models.Message{
		{ID: 42, ConversationID: 9, Body: "sold?"},
	}, nil).Once()
	f.messages.On("UnreadCountsByConversation", mock.Anything, 1).Return(map[int]int{9: 2}, nil).Once()

	summaries, err := f.svc.ListConversations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, 9, summaries[0].ConversationID)
	assert.Equal(t, "Bea", summaries[0].OtherUserName)
	assert.Equal(t, "lamp", summaries[0].Product.Title)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "sold?", summaries[0].LastMessage.Body)
	assert.Equal(t, 2, summaries[0].UnreadCount)

	assert.Equal(t, 10, summaries[1].ConversationID)
	assert.Equal(t, "Cal", summaries[1].OtherUserName)
	assert.Nil(t, summaries[1].LastMessage)
	assert.Zero(t, summaries[1].UnreadCount)
	f.assertExpectations(t)
}

func TestMarkAsReadFlipsAndNotifies(t *testing.T) {
	f := newChatFixture()

	f.messages.On("MarkRead", mock.Anything, 1, 2).Return(int64(3), nil).Once()
	f.notifier.On("Notify", 2, models.EventConversationRead, nil).Once()

	flipped, err := f.svc.MarkAsRead(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), flipped)
	f.assertExpectations(t)
}

func TestMarkAsReadErrorSkipsNotify(t *testing.T) {
	f := newChatFixture()

	f.messages.On("MarkRead", mock.Anything, 1, 2).Return(int64(0), assert.AnError).Once()

	_, err := f.svc.MarkAsRead(context.Background(), 1, 2)
	assert.Error(t, err)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestUnreadCountShortCircuitsWithoutConversations(t *testing.T) {
	f := newChatFixture()

	f.conversations.On("HasAny", mock.Anything, 1).Return(false, nil).Once()

	count, err := f.svc.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
	f.messages.AssertNotCalled(t, "UnreadCount", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestUnreadCountSums(t *testing.T) {
	f := newChatFixture()

	f.conversations.On("HasAny", mock.Anything, 1).Return(true, nil).Once()
	f.messages.On("UnreadCount", mock.Anything, 1).Return(5, nil).Once()

	count, err := f.svc.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	f.assertExpectations(t)
}
