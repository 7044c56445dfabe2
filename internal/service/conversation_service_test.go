package service

import (
	"context"
	"testing"

	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/mbeoliero/tradehub/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewConversationService(newFakeConvStore())

	t.Run("direct", func(t *testing.T) {
		conv, err := svc.Create(ctx, "u1", &CreateConversationRequest{
			Type:           constant.ConversationTypeDirect,
			ParticipantIds: []string{"u1", "u2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "u1", conv.CreatorId)
		assert.NotEmpty(t, conv.IdHex())
		assert.NotNil(t, conv.UnreadCount)
	})

	t.Run("contact inquiry from anonymous", func(t *testing.T) {
		conv, err := svc.Create(ctx, constant.AnonymousUserId, &CreateConversationRequest{
			Type:           constant.ConversationTypeContact,
			ParticipantIds: []string{constant.AnonymousUserId, "supplier1"},
			Metadata:       map[string]string{"subject": "Bulk pricing"},
		})
		require.NoError(t, err)
		assert.Equal(t, constant.ConversationTypeContact, conv.Type)
		assert.Equal(t, "Bulk pricing", conv.Metadata["subject"])
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := svc.Create(ctx, "u1", &CreateConversationRequest{
			Type:           "group",
			ParticipantIds: []string{"u1", "u2"},
		})
		assert.Equal(t, errcode.ErrInvalidParam, err)
	})

	t.Run("empty participants", func(t *testing.T) {
		_, err := svc.Create(ctx, "u1", &CreateConversationRequest{
			Type: constant.ConversationTypeDirect,
		})
		assert.Equal(t, errcode.ErrEmptyParticipants, err)
	})

	t.Run("direct with wrong participant count", func(t *testing.T) {
		_, err := svc.Create(ctx, "u1", &CreateConversationRequest{
			Type:           constant.ConversationTypeDirect,
			ParticipantIds: []string{"u1", "u2", "u3"},
		})
		assert.Equal(t, errcode.ErrBadParticipants, err)
	})

	t.Run("direct with duplicate participant", func(t *testing.T) {
		_, err := svc.Create(ctx, "u1", &CreateConversationRequest{
			Type:           constant.ConversationTypeDirect,
			ParticipantIds: []string{"u1", "u1"},
		})
		assert.Equal(t, errcode.ErrBadParticipants, err)
	})
}

func TestConversationService_FindDirect(t *testing.T) {
	ctx := context.Background()
	store := newFakeConvStore()
	svc := NewConversationService(store)

	created, err := svc.Create(ctx, "u1", &CreateConversationRequest{
		Type:           constant.ConversationTypeDirect,
		ParticipantIds: []string{"u1", "u2"},
	})
	require.NoError(t, err)

	found, err := svc.FindDirect(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, created.IdHex(), found.IdHex())

	_, err = svc.FindDirect(ctx, "u1", "u9")
	assert.Equal(t, errcode.ErrConvNotFound, err)

	_, err = svc.FindDirect(ctx, "u1", "u1")
	assert.Equal(t, errcode.ErrInvalidParam, err)
}

func TestConversationService_ListForUser(t *testing.T) {
	ctx := context.Background()
	svc := NewConversationService(newFakeConvStore())

	_, err := svc.Create(ctx, "u1", &CreateConversationRequest{
		Type:           constant.ConversationTypeDirect,
		ParticipantIds: []string{"u1", "u2"},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", &CreateConversationRequest{
		Type:           constant.ConversationTypeDirect,
		ParticipantIds: []string{"u1", "u3"},
	})
	require.NoError(t, err)

	convs, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	convs, err = svc.ListForUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, convs, 1)

	convs, err = svc.ListForUser(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestConversationService_GetById(t *testing.T) {
	ctx := context.Background()
	svc := NewConversationService(newFakeConvStore())

	_, err := svc.GetById(ctx, "")
	assert.Equal(t, errcode.ErrInvalidParam, err)

	_, err = svc.GetById(ctx, "aaaaaaaaaaaaaaaaaaaaaaaa")
	assert.Equal(t, errcode.ErrConvNotFound, err)
}
