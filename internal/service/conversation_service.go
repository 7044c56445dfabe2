package service

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/mbeoliero/tradehub/pkg/errcode"
)

// ConversationService handles conversation-related business logic
type ConversationService struct {
	convStore ConversationStore
}

// NewConversationService creates a new ConversationService
func NewConversationService(convStore ConversationStore) *ConversationService {
	return &ConversationService{convStore: convStore}
}

// CreateConversationRequest represents create conversation request
type CreateConversationRequest struct {
	Type           string            `json:"type"`
	ParticipantIds []string          `json:"participant_ids"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Create creates a conversation. Duplicate direct conversations between
// the same pair are not prevented here: callers that want exactly one
// thread per pair use FindDirect first.
func (s *ConversationService) Create(ctx context.Context, creatorId string, req *CreateConversationRequest) (*entity.Conversation, error) {
	if req.Type != constant.ConversationTypeDirect && req.Type != constant.ConversationTypeContact {
		return nil, errcode.ErrInvalidParam
	}
	if len(req.ParticipantIds) == 0 {
		return nil, errcode.ErrEmptyParticipants
	}
	if req.Type == constant.ConversationTypeDirect {
		if len(req.ParticipantIds) != 2 || req.ParticipantIds[0] == req.ParticipantIds[1] {
			return nil, errcode.ErrBadParticipants
		}
	}

	conv := &entity.Conversation{
		Type:         req.Type,
		Participants: req.ParticipantIds,
		UnreadCount:  map[string]int64{},
		Metadata:     req.Metadata,
		CreatorId:    creatorId,
	}

	if err := s.convStore.Create(ctx, conv); err != nil {
		log.CtxError(ctx, "create conversation failed: type=%s, error=%v", req.Type, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	log.CtxInfo(ctx, "conversation created: id=%s, type=%s, participants=%d", conv.IdHex(), conv.Type, len(conv.Participants))
	return conv, nil
}

// GetById gets a conversation by id
func (s *ConversationService) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	if id == "" {
		return nil, errcode.ErrInvalidParam
	}

	conv, err := s.convStore.GetById(ctx, id)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: id=%s, error=%v", id, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}
	return conv, nil
}

// FindDirect looks up an existing direct conversation between two users.
// Returns ErrConvNotFound when none exists.
func (s *ConversationService) FindDirect(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	if userA == "" || userB == "" || userA == userB {
		return nil, errcode.ErrInvalidParam
	}

	conv, err := s.convStore.FindDirect(ctx, userA, userB)
	if err != nil {
		log.CtxError(ctx, "find direct conversation failed: error=%v", err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}
	if conv == nil {
		return nil, errcode.ErrConvNotFound
	}
	return conv, nil
}

// ListForUser lists conversations the user participates in
func (s *ConversationService) ListForUser(ctx context.Context, userId string) ([]*entity.ConversationInfo, error) {
	if userId == "" {
		return nil, errcode.ErrInvalidParam
	}

	convs, err := s.convStore.ListForUser(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list conversations failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrStoreUnavailable.Wrap(err)
	}

	result := make([]*entity.ConversationInfo, 0, len(convs))
	for _, conv := range convs {
		result = append(result, conv.ToInfo(userId))
	}
	return result, nil
}
