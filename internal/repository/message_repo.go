package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mbeoliero/tradehub/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessageRepo is the repository for message documents. Messages live in
// their own collection keyed by conversation_id so they can be queried
// and streamed without loading the parent conversation.
type MessageRepo struct {
	coll *mongo.Collection
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(coll *mongo.Collection) *MessageRepo {
	return &MessageRepo{coll: coll}
}

// Create inserts a message and populates the store-assigned id
func (r *MessageRepo) Create(ctx context.Context, msg *entity.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	result, err := r.coll.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	msg.Id = result.InsertedID.(bson.ObjectID)
	return nil
}

// GetById gets a message by id, nil when absent
func (r *MessageRepo) GetById(ctx context.Context, id string) (*entity.Message, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var msg entity.Message
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListByConversation returns the most recent messages of a conversation
// in chronological order (oldest first)
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationId string, limit int64) ([]*entity.Message, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationId}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*entity.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// Query sorted newest-first to honor the limit; callers expect
	// chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkAllRead adds userId to read_by on every message of the
// conversation. $addToSet keeps the operation idempotent: re-adding an
// existing id modifies nothing.
func (r *MessageRepo) MarkAllRead(ctx context.Context, conversationId, userId string) (int64, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.M{"conversation_id": conversationId},
		bson.M{"$addToSet": bson.M{"read_by": userId}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
