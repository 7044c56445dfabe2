package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// LastMessage is a denormalized snapshot of the newest message in a
// conversation. It is a read cache for list views, never a source of
// truth: the messages collection is authoritative.
type LastMessage struct {
	Content    string    `bson:"content" json:"content"`
	SenderId   string    `bson:"sender_id" json:"sender_id"`
	SenderName string    `bson:"sender_name" json:"sender_name"`
	Type       string    `bson:"type" json:"type"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// Conversation represents a thread between a fixed set of participants
type Conversation struct {
	Id           bson.ObjectID     `bson:"_id,omitempty" json:"-"`
	Type         string            `bson:"type" json:"type"`
	Participants []string          `bson:"participants" json:"participants"`
	LastMessage  *LastMessage      `bson:"last_message,omitempty" json:"last_message,omitempty"`
	UnreadCount  map[string]int64  `bson:"unread_count" json:"unread_count"`
	Metadata     map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatorId    string            `bson:"creator_id" json:"creator_id"`
	CreatedAt    time.Time         `bson:"created_at" json:"created_at"`
}

// IdHex returns the store-assigned id as an opaque string
func (c *Conversation) IdHex() string {
	return c.Id.Hex()
}

// HasParticipant checks if userId is a participant
func (c *Conversation) HasParticipant(userId string) bool {
	for _, p := range c.Participants {
		if p == userId {
			return true
		}
	}
	return false
}

// RecipientsExcept returns all participants except the given user.
// Duplicate participant ids are collapsed so a malformed participant
// list cannot double-notify a recipient.
func (c *Conversation) RecipientsExcept(userId string) []string {
	seen := make(map[string]struct{}, len(c.Participants))
	recipients := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p == userId {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		recipients = append(recipients, p)
	}
	return recipients
}

// UnreadFor returns the unread count for a participant, absent entries
// are zero
func (c *Conversation) UnreadFor(userId string) int64 {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[userId]
}

// ConversationInfo represents conversation info for API response
type ConversationInfo struct {
	Id           string            `json:"id"`
	Type         string            `json:"type"`
	Participants []string          `json:"participants"`
	LastMessage  *LastMessage      `json:"last_message,omitempty"`
	UnreadCount  int64             `json:"unread_count"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    int64             `json:"created_at"`
}

// ToInfo converts Conversation to ConversationInfo from the viewpoint
// of one participant
func (c *Conversation) ToInfo(userId string) *ConversationInfo {
	return &ConversationInfo{
		Id:           c.IdHex(),
		Type:         c.Type,
		Participants: c.Participants,
		LastMessage:  c.LastMessage,
		UnreadCount:  c.UnreadFor(userId),
		Metadata:     c.Metadata,
		CreatedAt:    c.CreatedAt.UnixMilli(),
	}
}
