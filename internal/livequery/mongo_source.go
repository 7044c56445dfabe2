package livequery

import (
	"context"

	"github.com/mbeoliero/kit/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoSource implements Source on MongoDB change streams
type MongoSource struct {
	db *mongo.Database
}

// NewMongoSource creates a new MongoSource
func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{db: db}
}

// Fetch returns the current child set, unordered. Ordering is the
// subscriber's comparator's job.
func (s *MongoSource) Fetch(ctx context.Context, q Query) ([]bson.M, error) {
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := s.db.Collection(q.Child).Find(ctx, bson.M{q.ParentKey: q.ParentId}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Watch opens a change stream filtered to this parent's children and
// coalesces events into change signals
func (s *MongoSource) Watch(ctx context.Context, q Query) (<-chan struct{}, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"fullDocument." + q.ParentKey: q.ParentId,
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := s.db.Collection(q.Child).Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer func() {
			if err := stream.Close(context.Background()); err != nil {
				log.Debug("change stream close: %v", err)
			}
		}()

		for stream.Next(ctx) {
			// Coalesce: a pending signal already forces a full re-fetch
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.CtxError(ctx, "change stream ended: collection=%s, parent_id=%s, error=%v", q.Child, q.ParentId, err)
		}
	}()

	return ch, nil
}
