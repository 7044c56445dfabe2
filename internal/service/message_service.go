package service

import (
	"context"
	"strings"
	"time"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/mbeoliero/tradehub/pkg/errcode"
)

// MessagePusher interface for pushing messages to connected clients
type MessagePusher interface {
	AsyncPushToUsers(msg *entity.Message, userIds []string)
}

// MessageService orchestrates message sending and notification fan-out
type MessageService struct {
	convStore   ConversationStore
	msgStore    MessageStore
	notifyStore NotificationStore
	pusher      MessagePusher
}

// NewMessageService creates a new MessageService
func NewMessageService(convStore ConversationStore, msgStore MessageStore, notifyStore NotificationStore) *MessageService {
	return &MessageService{
		convStore:   convStore,
		msgStore:    msgStore,
		notifyStore: notifyStore,
	}
}

// SetPusher sets the message pusher
func (s *MessageService) SetPusher(pusher MessagePusher) {
	s.pusher = pusher
}

// SendMessageRequest represents send message request
type SendMessageRequest struct {
	ConversationId string            `json:"conversation_id"`
	Content        string            `json:"content"`
	Type           string            `json:"type,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Send persists a message, refreshes the conversation summary, and fans
// out unread increments plus one notification per recipient.
//
// The steps run in a fixed order with no shared transaction: the
// message is made durable first, then the advisory side effects
// (summary cache, badges, notifications) follow. A failure mid fan-out
// leaves already-processed recipients committed and surfaces the error;
// Send is safe to retry because each per-recipient step is guarded by a
// (message, recipient) dedup key.
func (s *MessageService) Send(ctx context.Context, senderId, senderName string, req *SendMessageRequest) (*entity.Message, error) {
	// Validate before any store call
	if req.ConversationId == "" || senderId == "" {
		return nil, errcode.ErrInvalidParam
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errcode.ErrEmptyContent
	}
	if len([]rune(content)) > constant.MaxMessageContentLen {
		return nil, errcode.ErrContentTooLong
	}
	msgType := req.Type
	if msgType == "" {
		msgType = constant.MsgTypeText
	}

	// Load the parent conversation
	conv, err := s.convStore.GetById(ctx, req.ConversationId)
	if err != nil {
		log.CtxError(ctx, "load conversation failed: id=%s, error=%v", req.ConversationId, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}

	// Persist the message; the sender has read their own message
	msg := &entity.Message{
		ConversationId: req.ConversationId,
		SenderId:       senderId,
		SenderName:     senderName,
		Content:        content,
		Type:           msgType,
		Metadata:       req.Metadata,
		ReadBy:         []string{senderId},
		CreatedAt:      time.Now(),
	}
	if err := s.msgStore.Create(ctx, msg); err != nil {
		log.CtxError(ctx, "create message failed: conversation_id=%s, error=%v", req.ConversationId, err)
		return nil, errcode.ErrSendFailed.Wrap(err)
	}

	// Refresh the last-message cache. Concurrent sends race
	// last-write-wins here; the message log stays authoritative.
	if err := s.convStore.UpdateLastMessage(ctx, req.ConversationId, msg.Snapshot(constant.LastMessageSnapshotLen)); err != nil {
		log.CtxError(ctx, "update last message failed: conversation_id=%s, error=%v", req.ConversationId, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	// Fan out to every participant except the sender
	recipients := conv.RecipientsExcept(senderId)
	if err := s.fanOut(ctx, conv, msg, recipients); err != nil {
		return nil, err
	}

	// Push to online participants, best effort
	if s.pusher != nil && len(recipients) > 0 {
		s.pusher.AsyncPushToUsers(msg, recipients)
	}

	log.CtxInfo(ctx, "message sent: id=%s, conversation_id=%s, sender_id=%s, recipients=%d",
		msg.IdHex(), req.ConversationId, senderId, len(recipients))
	return msg, nil
}

// fanOut applies the per-recipient side effects sequentially. Each
// recipient's increment+notification is one retryable unit keyed by
// (messageId, recipientId): a retry of Send skips recipients that were
// already processed and resumes with the rest.
func (s *MessageService) fanOut(ctx context.Context, conv *entity.Conversation, msg *entity.Message, recipients []string) error {
	preview := entity.Truncate(msg.Content, constant.NotifyPreviewLen)

	for _, recipientId := range recipients {
		acquired, err := s.notifyStore.AcquireFanoutKey(ctx, msg.IdHex(), recipientId)
		if err != nil {
			log.CtxError(ctx, "acquire fanout key failed: message_id=%s, recipient_id=%s, error=%v", msg.IdHex(), recipientId, err)
			return errcode.ErrFanoutFailed.Wrap(err)
		}
		if !acquired {
			// A previous attempt already processed this recipient
			log.CtxDebug(ctx, "fanout already applied: message_id=%s, recipient_id=%s", msg.IdHex(), recipientId)
			continue
		}

		if err := s.convStore.IncrUnread(ctx, msg.ConversationId, recipientId, 1); err != nil {
			// Nothing was applied for this recipient: free the key so a
			// retry can redo the step
			if relErr := s.notifyStore.ReleaseFanoutKey(ctx, msg.IdHex(), recipientId); relErr != nil {
				log.CtxError(ctx, "release fanout key failed: message_id=%s, recipient_id=%s, error=%v", msg.IdHex(), recipientId, relErr)
			}
			log.CtxError(ctx, "increment unread failed: conversation_id=%s, recipient_id=%s, error=%v", msg.ConversationId, recipientId, err)
			return errcode.ErrFanoutFailed.Wrap(err)
		}

		notification := &entity.Notification{
			RecipientId: recipientId,
			Type:        constant.NotifyTypeNewMessage,
			Payload: entity.NotifyPayload{
				ConversationId: msg.ConversationId,
				MessageId:      msg.IdHex(),
				SenderId:       msg.SenderId,
				SenderName:     msg.SenderName,
				Preview:        preview,
			},
		}
		if err := s.notifyStore.Create(ctx, notification); err != nil {
			// The increment is committed, so the key stays claimed:
			// a retry must not double-count this recipient. The badge
			// survives, the notification row is lost.
			log.CtxError(ctx, "create notification failed: message_id=%s, recipient_id=%s, error=%v", msg.IdHex(), recipientId, err)
			return errcode.ErrFanoutFailed.Wrap(err)
		}
	}

	return nil
}

// ListMessages returns the recent messages of a conversation in
// chronological order
func (s *MessageService) ListMessages(ctx context.Context, conversationId string, limit int64) ([]*entity.MessageInfo, error) {
	if conversationId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	conv, err := s.convStore.GetById(ctx, conversationId)
	if err != nil {
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}

	messages, err := s.msgStore.ListByConversation(ctx, conversationId, limit)
	if err != nil {
		log.CtxError(ctx, "list messages failed: conversation_id=%s, error=%v", conversationId, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	result := make([]*entity.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		result = append(result, msg.ToInfo())
	}
	return result, nil
}
