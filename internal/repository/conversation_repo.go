package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConversationRepo is the repository for conversation documents
type ConversationRepo struct {
	coll *mongo.Collection
}

// NewConversationRepo creates a new ConversationRepo
func NewConversationRepo(coll *mongo.Collection) *ConversationRepo {
	return &ConversationRepo{coll: coll}
}

// Create inserts a conversation and populates the store-assigned id
func (r *ConversationRepo) Create(ctx context.Context, conv *entity.Conversation) error {
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	if conv.UnreadCount == nil {
		conv.UnreadCount = map[string]int64{}
	}

	result, err := r.coll.InsertOne(ctx, conv)
	if err != nil {
		return err
	}
	conv.Id = result.InsertedID.(bson.ObjectID)
	return nil
}

// GetById gets a conversation by id, nil when absent
func (r *ConversationRepo) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// Malformed ids cannot reference any stored conversation
		return nil, nil
	}

	var conv entity.Conversation
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// FindDirect finds an existing direct conversation with exactly this
// participant pair. Offered so callers can find-or-create; Create
// itself never deduplicates.
func (r *ConversationRepo) FindDirect(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	filter := bson.M{
		"type":         constant.ConversationTypeDirect,
		"participants": bson.M{"$all": bson.A{userA, userB}, "$size": 2},
	}

	var conv entity.Conversation
	err := r.coll.FindOne(ctx, filter).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// ListForUser lists conversations the user participates in, most
// recently updated first
func (r *ConversationRepo) ListForUser(ctx context.Context, userId string) ([]*entity.Conversation, error) {
	opts := options.Find().SetSort(bson.M{"last_message.created_at": -1})

	cursor, err := r.coll.Find(ctx, bson.M{"participants": userId}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []*entity.Conversation
	if err = cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// UpdateLastMessage overwrites the denormalized last-message snapshot.
// Plain $set: concurrent senders race last-write-wins, which is fine
// for a display cache.
func (r *ConversationRepo) UpdateLastMessage(ctx context.Context, id string, snapshot *entity.LastMessage) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"last_message": snapshot},
	})
	return err
}

// IncrUnread atomically increments a participant's unread counter
func (r *ConversationRepo) IncrUnread(ctx context.Context, id, userId string, delta int64) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$inc": bson.M{"unread_count." + userId: delta},
	})
	return err
}

// ResetUnread sets a participant's unread counter to zero. Absolute
// $set rather than a decrement so retries are idempotent.
func (r *ConversationRepo) ResetUnread(ctx context.Context, id, userId string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"unread_count." + userId: int64(0)},
	})
	return err
}
