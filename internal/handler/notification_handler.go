package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/mbeoliero/tradehub/internal/middleware"
	"github.com/mbeoliero/tradehub/internal/service"
	"github.com/mbeoliero/tradehub/pkg/errcode"
	"github.com/mbeoliero/tradehub/pkg/response"
)

// NotificationHandler handles notification-related requests
type NotificationHandler struct {
	readStateService *service.ReadStateService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(readStateService *service.ReadStateService) *NotificationHandler {
	return &NotificationHandler{readStateService: readStateService}
}

// ListNotifications handles list notifications request
func (h *NotificationHandler) ListNotifications(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	onlyUnread := c.Query("only_unread") == "true"
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)

	notifies, err := h.readStateService.ListNotifications(ctx, userId, onlyUnread, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, notifies)
}

// GetUnreadCount handles unread notification count request
func (h *NotificationHandler) GetUnreadCount(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	count, err := h.readStateService.UnreadNotificationCount(ctx, userId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"unread_count": count,
	})
}

// MarkNotificationReadRequest represents mark notification read request
type MarkNotificationReadRequest struct {
	NotificationId string `json:"notification_id"`
}

// MarkRead handles mark single notification as read request
func (h *NotificationHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req MarkNotificationReadRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.readStateService.MarkNotificationRead(ctx, userId, req.NotificationId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}

// MarkAllRead handles mark all notifications as read request
func (h *NotificationHandler) MarkAllRead(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	if err := h.readStateService.MarkAllNotificationsRead(ctx, userId); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, nil)
}
