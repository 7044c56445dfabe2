package service

import (
	"context"

	"github.com/mbeoliero/tradehub/internal/entity"
)

// Store interfaces are declared here, on the consumer side, so services
// can be exercised against in-memory fakes. The Mongo/MySQL repos in
// internal/repository are the production implementations.

// ConversationStore persists conversation documents
type ConversationStore interface {
	Create(ctx context.Context, conv *entity.Conversation) error
	GetById(ctx context.Context, id string) (*entity.Conversation, error)
	FindDirect(ctx context.Context, userA, userB string) (*entity.Conversation, error)
	ListForUser(ctx context.Context, userId string) ([]*entity.Conversation, error)
	UpdateLastMessage(ctx context.Context, id string, snapshot *entity.LastMessage) error
	IncrUnread(ctx context.Context, id, userId string, delta int64) error
	ResetUnread(ctx context.Context, id, userId string) error
}

// MessageStore persists message documents under a conversation
type MessageStore interface {
	Create(ctx context.Context, msg *entity.Message) error
	GetById(ctx context.Context, id string) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationId string, limit int64) ([]*entity.Message, error)
	MarkAllRead(ctx context.Context, conversationId, userId string) (int64, error)
}

// NotificationStore persists one notification per recipient and owns
// the per-(event, recipient) fan-out dedup keys
type NotificationStore interface {
	Create(ctx context.Context, n *entity.Notification) error
	AcquireFanoutKey(ctx context.Context, eventId, recipientId string) (bool, error)
	ReleaseFanoutKey(ctx context.Context, eventId, recipientId string) error
	ListForUser(ctx context.Context, userId string, onlyUnread bool, limit int64) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userId string) (int64, error)
	MarkRead(ctx context.Context, userId, notificationId string) (bool, error)
	MarkAllRead(ctx context.Context, userId string) (int64, error)
}

// QuoteStore persists quote documents under an RFQ
type QuoteStore interface {
	Create(ctx context.Context, quote *entity.Quote) error
	ListByRfq(ctx context.Context, rfqId string, limit int64) ([]*entity.Quote, error)
}

// UserStore persists user accounts
type UserStore interface {
	Create(ctx context.Context, user *entity.User) error
	GetById(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	ListByRole(ctx context.Context, role string) ([]*entity.User, error)
}
