package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// fanoutDedupTTL bounds how long a (message, recipient) fan-out key is
// remembered. Retries of a failed send happen within seconds, not days.
const fanoutDedupTTL = 24 * time.Hour

// NotificationRepo is the repository for notification documents
type NotificationRepo struct {
	coll *mongo.Collection
	rdb  *redis.Client
}

// NewNotificationRepo creates a new NotificationRepo
func NewNotificationRepo(coll *mongo.Collection, rdb *redis.Client) *NotificationRepo {
	return &NotificationRepo{coll: coll, rdb: rdb}
}

// Create inserts a notification and populates the store-assigned id
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	result, err := r.coll.InsertOne(ctx, n)
	if err != nil {
		return err
	}
	n.Id = result.InsertedID.(bson.ObjectID)
	return nil
}

// AcquireFanoutKey claims the (eventId, recipientId) dedup key.
// Returns false when another attempt already processed this recipient,
// which makes per-recipient fan-out steps safe to retry.
func (r *NotificationRepo) AcquireFanoutKey(ctx context.Context, eventId, recipientId string) (bool, error) {
	key := fmt.Sprintf(constant.RedisKeyNotifyDedup(), eventId, recipientId)
	return r.rdb.SetNX(ctx, key, 1, fanoutDedupTTL).Result()
}

// ReleaseFanoutKey drops a claimed dedup key so a failed recipient step
// can be retried immediately
func (r *NotificationRepo) ReleaseFanoutKey(ctx context.Context, eventId, recipientId string) error {
	key := fmt.Sprintf(constant.RedisKeyNotifyDedup(), eventId, recipientId)
	return r.rdb.Del(ctx, key).Err()
}

// ListForUser lists a user's notifications, newest first
func (r *NotificationRepo) ListForUser(ctx context.Context, userId string, onlyUnread bool, limit int64) ([]*entity.Notification, error) {
	filter := bson.M{"recipient_id": userId}
	if onlyUnread {
		filter["read"] = false
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []*entity.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread counts a user's unread notifications
func (r *NotificationRepo) CountUnread(ctx context.Context, userId string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"recipient_id": userId, "read": false})
}

// MarkRead flips read on one of the user's notifications. Returns
// false when no notification matched (absent or owned by someone else).
func (r *NotificationRepo) MarkRead(ctx context.Context, userId, notificationId string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(notificationId)
	if err != nil {
		return false, nil
	}

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "recipient_id": userId},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// MarkAllRead flips read on all of the user's unread notifications
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userId string) (int64, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.M{"recipient_id": userId, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// GetById gets a notification by id, nil when absent
func (r *NotificationRepo) GetById(ctx context.Context, id string) (*entity.Notification, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var n entity.Notification
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
