package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// In-memory store fakes. Error injection fields let tests exercise the
// partial-failure paths without a real backend.

type fakeConvStore struct {
	mu    sync.Mutex
	convs map[string]*entity.Conversation

	incrErr map[string]error // recipientId -> error
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{
		convs:   make(map[string]*entity.Conversation),
		incrErr: make(map[string]error),
	}
}

func (f *fakeConvStore) Create(_ context.Context, conv *entity.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv.Id = bson.NewObjectID()
	conv.CreatedAt = time.Now()
	if conv.UnreadCount == nil {
		conv.UnreadCount = map[string]int64{}
	}
	f.convs[conv.IdHex()] = conv
	return nil
}

func (f *fakeConvStore) GetById(_ context.Context, id string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.convs[id], nil
}

func (f *fakeConvStore) FindDirect(_ context.Context, userA, userB string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.convs {
		if conv.Type == constant.ConversationTypeDirect &&
			len(conv.Participants) == 2 &&
			conv.HasParticipant(userA) && conv.HasParticipant(userB) {
			return conv, nil
		}
	}
	return nil, nil
}

func (f *fakeConvStore) ListForUser(_ context.Context, userId string) ([]*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Conversation
	for _, conv := range f.convs {
		if conv.HasParticipant(userId) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (f *fakeConvStore) UpdateLastMessage(_ context.Context, id string, snapshot *entity.LastMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	conv.LastMessage = snapshot
	return nil
}

func (f *fakeConvStore) IncrUnread(_ context.Context, id, userId string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.incrErr[userId]; err != nil {
		return err
	}
	conv, ok := f.convs[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	conv.UnreadCount[userId] += delta
	return nil
}

func (f *fakeConvStore) ResetUnread(_ context.Context, id, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	conv.UnreadCount[userId] = 0
	return nil
}

type fakeMsgStore struct {
	mu   sync.Mutex
	msgs []*entity.Message
}

func newFakeMsgStore() *fakeMsgStore {
	return &fakeMsgStore{}
}

func (f *fakeMsgStore) Create(_ context.Context, msg *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.Id = bson.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeMsgStore) GetById(_ context.Context, id string) (*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.msgs {
		if msg.IdHex() == id {
			return msg, nil
		}
	}
	return nil, nil
}

func (f *fakeMsgStore) ListByConversation(_ context.Context, conversationId string, limit int64) ([]*entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, msg := range f.msgs {
		if msg.ConversationId == conversationId {
			out = append(out, msg)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (f *fakeMsgStore) MarkAllRead(_ context.Context, conversationId, userId string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var modified int64
	for _, msg := range f.msgs {
		if msg.ConversationId != conversationId || msg.ReadByUser(userId) {
			continue
		}
		msg.ReadBy = append(msg.ReadBy, userId)
		modified++
	}
	return modified, nil
}

type fakeNotifyStore struct {
	mu            sync.Mutex
	notifications []*entity.Notification
	keys          map[string]bool

	createErr error
}

func newFakeNotifyStore() *fakeNotifyStore {
	return &fakeNotifyStore{keys: make(map[string]bool)}
}

func fanoutKey(eventId, recipientId string) string {
	return eventId + "|" + recipientId
}

func (f *fakeNotifyStore) Create(_ context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	n.Id = bson.NewObjectID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotifyStore) AcquireFanoutKey(_ context.Context, eventId, recipientId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fanoutKey(eventId, recipientId)
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeNotifyStore) ReleaseFanoutKey(_ context.Context, eventId, recipientId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, fanoutKey(eventId, recipientId))
	return nil
}

func (f *fakeNotifyStore) ListForUser(_ context.Context, userId string, onlyUnread bool, limit int64) ([]*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Notification
	for i := len(f.notifications) - 1; i >= 0; i-- {
		n := f.notifications[i]
		if n.RecipientId != userId {
			continue
		}
		if onlyUnread && n.Read {
			continue
		}
		out = append(out, n)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotifyStore) CountUnread(_ context.Context, userId string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.notifications {
		if n.RecipientId == userId && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifyStore) MarkRead(_ context.Context, userId, notificationId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notifications {
		if n.IdHex() == notificationId && n.RecipientId == userId {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotifyStore) MarkAllRead(_ context.Context, userId string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var modified int64
	for _, n := range f.notifications {
		if n.RecipientId == userId && !n.Read {
			n.Read = true
			modified++
		}
	}
	return modified, nil
}

func (f *fakeNotifyStore) forRecipient(userId string) []*entity.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Notification
	for _, n := range f.notifications {
		if n.RecipientId == userId {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeNotifyStore) hasKey(eventId, recipientId string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[fanoutKey(eventId, recipientId)]
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*entity.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.Id] = user
	return nil
}

func (f *fakeUserStore) GetById(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Update(_ context.Context, id string, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %s not found", id)
	}
	if status, ok := updates["status"].(string); ok {
		user.Status = status
	}
	return nil
}

func (f *fakeUserStore) ListByRole(_ context.Context, role string) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.User
	for _, user := range f.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

type fakeQuoteStore struct {
	mu     sync.Mutex
	quotes []*entity.Quote
}

func newFakeQuoteStore() *fakeQuoteStore {
	return &fakeQuoteStore{}
}

func (f *fakeQuoteStore) Create(_ context.Context, quote *entity.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now()
	}
	f.quotes = append(f.quotes, quote)
	return nil
}

func (f *fakeQuoteStore) ListByRfq(_ context.Context, rfqId string, limit int64) ([]*entity.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Quote
	for i := len(f.quotes) - 1; i >= 0; i-- {
		if f.quotes[i].RfqId == rfqId {
			out = append(out, f.quotes[i])
		}
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

type capturePusher struct {
	mu     sync.Mutex
	pushes []pushCall
}

type pushCall struct {
	msg     *entity.Message
	userIds []string
}

func (p *capturePusher) AsyncPushToUsers(msg *entity.Message, userIds []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushCall{msg: msg, userIds: userIds})
}
