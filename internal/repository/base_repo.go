package repository

import (
	"context"
	"time"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/config"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repositories holds all repositories
type Repositories struct {
	MongoClient  *mongo.Client
	Mongo        *mongo.Database
	DB           *gorm.DB
	Redis        *redis.Client
	User         *UserRepo
	Conversation *ConversationRepo
	Message      *MessageRepo
	Notification *NotificationRepo
	Quote        *QuoteRepo
}

// NewRepositories creates all repositories
func NewRepositories(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	// Initialize MongoDB
	mongoClient, mongoDB, err := initMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Initialize MySQL
	db, err := initMySQL(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize Redis
	rdb := initRedis(cfg)

	repos := &Repositories{
		MongoClient: mongoClient,
		Mongo:       mongoDB,
		DB:          db,
		Redis:       rdb,
	}

	// Initialize individual repositories
	repos.User = NewUserRepo(db)
	repos.Conversation = NewConversationRepo(mongoDB.Collection(constant.CollConversations))
	repos.Message = NewMessageRepo(mongoDB.Collection(constant.CollMessages))
	repos.Notification = NewNotificationRepo(mongoDB.Collection(constant.CollNotifications), rdb)
	repos.Quote = NewQuoteRepo(mongoDB.Collection(constant.CollQuotes))

	return repos, nil
}

// initMongo initializes the MongoDB connection
func initMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, nil, err
	}

	return client, client.Database(cfg.Mongo.Database), nil
}

// initMySQL initializes MySQL connection
func initMySQL(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// CreateIndexes creates the indexes the document-side queries rely on.
// Single-field / parent-id indexes only: result-set ordering is done by
// subscribers, so no composite sort indexes are provisioned.
func (r *Repositories) CreateIndexes(ctx context.Context) error {
	_, err := r.Mongo.Collection(constant.CollConversations).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: map[string]int{"participants": 1},
	})
	if err != nil {
		return err
	}

	_, err = r.Mongo.Collection(constant.CollMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: map[string]int{"conversation_id": 1},
	})
	if err != nil {
		return err
	}

	_, err = r.Mongo.Collection(constant.CollNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: map[string]int{"recipient_id": 1},
	})
	if err != nil {
		return err
	}

	_, err = r.Mongo.Collection(constant.CollQuotes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: map[string]int{"rfq_id": 1},
	})
	return err
}

// Close closes all connections
func (r *Repositories) Close(ctx context.Context) error {
	if err := r.MongoClient.Disconnect(ctx); err != nil {
		return err
	}
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	return r.Redis.Close()
}

// CheckConnection checks if all backing stores are reachable
func (r *Repositories) CheckConnection(ctx context.Context) error {
	if err := r.MongoClient.Ping(ctx, readpref.Primary()); err != nil {
		log.CtxError(ctx, "mongo ping failed: %v", err)
		return err
	}

	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.CtxError(ctx, "mysql ping failed: %v", err)
		return err
	}

	if err := r.Redis.Ping(ctx).Err(); err != nil {
		log.CtxError(ctx, "redis ping failed: %v", err)
		return err
	}

	return nil
}
