package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// integration tests require MONGODB_URI set externally

func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return client.Database("tradehub_test")
}

func TestConversationRepo(t *testing.T) {
	ctx := context.Background()
	db := testDatabase(t)
	coll := db.Collection(constant.CollConversations)
	_ = coll.Drop(ctx)

	repo := NewConversationRepo(coll)

	conv := &entity.Conversation{
		Type:         constant.ConversationTypeDirect,
		Participants: []string{"alice", "bob"},
		UnreadCount:  map[string]int64{},
		CreatorId:    "alice",
	}
	if err := repo.Create(ctx, conv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if conv.IdHex() == "" {
		t.Fatal("expected store-assigned id")
	}

	got, err := repo.GetById(ctx, conv.IdHex())
	if err != nil {
		t.Fatalf("GetById failed: %v", err)
	}
	if got == nil || !got.HasParticipant("bob") {
		t.Fatalf("unexpected conversation: %+v", got)
	}

	// Absent and malformed ids both come back as nil, nil
	if got, err := repo.GetById(ctx, "aaaaaaaaaaaaaaaaaaaaaaaa"); err != nil || got != nil {
		t.Fatalf("expected nil, nil for absent id, got %v, %v", got, err)
	}
	if got, err := repo.GetById(ctx, "not-a-hex-id"); err != nil || got != nil {
		t.Fatalf("expected nil, nil for malformed id, got %v, %v", got, err)
	}

	// FindDirect matches regardless of argument order
	found, err := repo.FindDirect(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("FindDirect failed: %v", err)
	}
	if found == nil || found.IdHex() != conv.IdHex() {
		t.Fatalf("expected the created conversation, got %+v", found)
	}
	if found, err := repo.FindDirect(ctx, "alice", "carol"); err != nil || found != nil {
		t.Fatalf("expected nil, nil for missing pair, got %v, %v", found, err)
	}

	// Unread counters: increment twice, then reset to zero
	if err := repo.IncrUnread(ctx, conv.IdHex(), "bob", 1); err != nil {
		t.Fatalf("IncrUnread failed: %v", err)
	}
	if err := repo.IncrUnread(ctx, conv.IdHex(), "bob", 1); err != nil {
		t.Fatalf("IncrUnread failed: %v", err)
	}
	got, _ = repo.GetById(ctx, conv.IdHex())
	if got.UnreadFor("bob") != 2 {
		t.Fatalf("expected unread 2, got %d", got.UnreadFor("bob"))
	}

	if err := repo.ResetUnread(ctx, conv.IdHex(), "bob"); err != nil {
		t.Fatalf("ResetUnread failed: %v", err)
	}
	got, _ = repo.GetById(ctx, conv.IdHex())
	if got.UnreadFor("bob") != 0 {
		t.Fatalf("expected unread 0 after reset, got %d", got.UnreadFor("bob"))
	}

	// Resetting again stays at zero
	if err := repo.ResetUnread(ctx, conv.IdHex(), "bob"); err != nil {
		t.Fatalf("ResetUnread repeat failed: %v", err)
	}

	// Last-message snapshot
	snap := &entity.LastMessage{
		Content:    "latest",
		SenderId:   "alice",
		SenderName: "Alice",
		Type:       constant.MsgTypeText,
		CreatedAt:  time.Now(),
	}
	if err := repo.UpdateLastMessage(ctx, conv.IdHex(), snap); err != nil {
		t.Fatalf("UpdateLastMessage failed: %v", err)
	}
	got, _ = repo.GetById(ctx, conv.IdHex())
	if got.LastMessage == nil || got.LastMessage.Content != "latest" {
		t.Fatalf("unexpected last message: %+v", got.LastMessage)
	}

	convs, err := repo.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
}

func TestMessageRepo(t *testing.T) {
	ctx := context.Background()
	db := testDatabase(t)
	coll := db.Collection(constant.CollMessages)
	_ = coll.Drop(ctx)

	repo := NewMessageRepo(coll)

	base := time.Now().Truncate(time.Millisecond)
	for i, content := range []string{"first", "second", "third"} {
		msg := &entity.Message{
			ConversationId: "conv1",
			SenderId:       "alice",
			SenderName:     "Alice",
			Content:        content,
			Type:           constant.MsgTypeText,
			ReadBy:         []string{"alice"},
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(ctx, msg); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	// Chronological order with the limit applied to the newest
	msgs, err := repo.ListByConversation(ctx, "conv1", 2)
	if err != nil {
		t.Fatalf("ListByConversation failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "second" || msgs[1].Content != "third" {
		t.Fatalf("unexpected order: %s, %s", msgs[0].Content, msgs[1].Content)
	}

	// MarkAllRead adds the reader everywhere and is idempotent
	modified, err := repo.MarkAllRead(ctx, "conv1", "bob")
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if modified != 3 {
		t.Fatalf("expected 3 modified, got %d", modified)
	}
	modified, err = repo.MarkAllRead(ctx, "conv1", "bob")
	if err != nil {
		t.Fatalf("MarkAllRead repeat failed: %v", err)
	}
	if modified != 0 {
		t.Fatalf("expected 0 modified on repeat, got %d", modified)
	}

	msgs, _ = repo.ListByConversation(ctx, "conv1", 10)
	for _, msg := range msgs {
		if !msg.ReadByUser("bob") || !msg.ReadByUser("alice") {
			t.Fatalf("expected both readers on %q, got %v", msg.Content, msg.ReadBy)
		}
	}
}
