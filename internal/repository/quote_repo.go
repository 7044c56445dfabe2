package repository

import (
	"context"
	"time"

	"github.com/mbeoliero/tradehub/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// QuoteRepo is the repository for quote documents, keyed by rfq_id
type QuoteRepo struct {
	coll *mongo.Collection
}

// NewQuoteRepo creates a new QuoteRepo
func NewQuoteRepo(coll *mongo.Collection) *QuoteRepo {
	return &QuoteRepo{coll: coll}
}

// Create inserts a quote
func (r *QuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now()
	}
	_, err := r.coll.InsertOne(ctx, quote)
	return err
}

// ListByRfq lists quotes under an RFQ, newest first
func (r *QuoteRepo) ListByRfq(ctx context.Context, rfqId string, limit int64) ([]*entity.Quote, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.M{"rfq_id": rfqId}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var quotes []*entity.Quote
	if err = cursor.All(ctx, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}
