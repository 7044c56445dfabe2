package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/errcode"
)

// ReadStateService marks conversations and notifications as read
type ReadStateService struct {
	convStore   ConversationStore
	msgStore    MessageStore
	notifyStore NotificationStore
}

// NewReadStateService creates a new ReadStateService
func NewReadStateService(convStore ConversationStore, msgStore MessageStore, notifyStore NotificationStore) *ReadStateService {
	return &ReadStateService{
		convStore:   convStore,
		msgStore:    msgStore,
		notifyStore: notifyStore,
	}
}

// MarkConversationRead adds the user to read_by on every message of the
// conversation and resets the user's unread counter. The two writes are
// independent and both idempotent, so a partial failure is safe to
// retry.
func (s *ReadStateService) MarkConversationRead(ctx context.Context, conversationId, userId string) error {
	if conversationId == "" || userId == "" {
		return errcode.ErrInvalidParam
	}

	modified, err := s.msgStore.MarkAllRead(ctx, conversationId, userId)
	if err != nil {
		log.CtxError(ctx, "mark messages read failed: conversation_id=%s, user_id=%s, error=%v", conversationId, userId, err)
		return errcode.ErrStoreUnavailable.Wrap(err)
	}

	if err := s.convStore.ResetUnread(ctx, conversationId, userId); err != nil {
		log.CtxError(ctx, "reset unread failed: conversation_id=%s, user_id=%s, error=%v", conversationId, userId, err)
		return errcode.ErrStoreUnavailable.Wrap(err)
	}

	log.CtxDebug(ctx, "conversation marked read: conversation_id=%s, user_id=%s, messages_updated=%d", conversationId, userId, modified)
	return nil
}

// MarkNotificationRead flips read on one of the user's notifications
func (s *ReadStateService) MarkNotificationRead(ctx context.Context, userId, notificationId string) error {
	if userId == "" || notificationId == "" {
		return errcode.ErrInvalidParam
	}

	matched, err := s.notifyStore.MarkRead(ctx, userId, notificationId)
	if err != nil {
		log.CtxError(ctx, "mark notification read failed: user_id=%s, notification_id=%s, error=%v", userId, notificationId, err)
		return errcode.ErrStoreUnavailable.Wrap(err)
	}
	if !matched {
		return errcode.ErrNotifyNotFound
	}
	return nil
}

// MarkAllNotificationsRead flips read on all of the user's unread
// notifications
func (s *ReadStateService) MarkAllNotificationsRead(ctx context.Context, userId string) error {
	if userId == "" {
		return errcode.ErrInvalidParam
	}

	modified, err := s.notifyStore.MarkAllRead(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "mark all notifications read failed: user_id=%s, error=%v", userId, err)
		return errcode.ErrStoreUnavailable.Wrap(err)
	}

	log.CtxDebug(ctx, "all notifications marked read: user_id=%s, modified=%d", userId, modified)
	return nil
}

// ListNotifications lists a user's notifications, newest first
func (s *ReadStateService) ListNotifications(ctx context.Context, userId string, onlyUnread bool, limit int64) ([]*entity.NotificationInfo, error) {
	if userId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	notifications, err := s.notifyStore.ListForUser(ctx, userId, onlyUnread, limit)
	if err != nil {
		log.CtxError(ctx, "list notifications failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	result := make([]*entity.NotificationInfo, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, n.ToInfo())
	}
	return result, nil
}

// UnreadNotificationCount counts a user's unread notifications
func (s *ReadStateService) UnreadNotificationCount(ctx context.Context, userId string) (int64, error) {
	if userId == "" {
		return 0, errcode.ErrInvalidParam
	}

	count, err := s.notifyStore.CountUnread(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "count unread notifications failed: user_id=%s, error=%v", userId, err)
		return 0, errcode.ErrStoreUnavailable.Wrap(err)
	}
	return count, nil
}
