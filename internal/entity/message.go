package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Message represents a message in a conversation. Messages are created
// once and never deleted; the only mutation is growth of ReadBy.
type Message struct {
	Id             bson.ObjectID     `bson:"_id,omitempty" json:"-"`
	ConversationId string            `bson:"conversation_id" json:"conversation_id"`
	SenderId       string            `bson:"sender_id" json:"sender_id"`
	SenderName     string            `bson:"sender_name" json:"sender_name"`
	Content        string            `bson:"content" json:"content"`
	Type           string            `bson:"type" json:"type"`
	Metadata       map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	ReadBy         []string          `bson:"read_by" json:"read_by"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
}

// IdHex returns the store-assigned id as an opaque string
func (m *Message) IdHex() string {
	return m.Id.Hex()
}

// ReadByUser checks if userId has observed the message
func (m *Message) ReadByUser(userId string) bool {
	for _, u := range m.ReadBy {
		if u == userId {
			return true
		}
	}
	return false
}

// Snapshot returns the truncated last-message cache entry for this
// message
func (m *Message) Snapshot(maxLen int) *LastMessage {
	return &LastMessage{
		Content:    Truncate(m.Content, maxLen),
		SenderId:   m.SenderId,
		SenderName: m.SenderName,
		Type:       m.Type,
		CreatedAt:  m.CreatedAt,
	}
}

// MessageInfo represents message info for API response
type MessageInfo struct {
	Id             string            `json:"id"`
	ConversationId string            `json:"conversation_id"`
	SenderId       string            `json:"sender_id"`
	SenderName     string            `json:"sender_name"`
	Content        string            `json:"content"`
	Type           string            `json:"type"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ReadBy         []string          `json:"read_by"`
	CreatedAt      int64             `json:"created_at"`
}

// ToInfo converts Message to MessageInfo
func (m *Message) ToInfo() *MessageInfo {
	return &MessageInfo{
		Id:             m.IdHex(),
		ConversationId: m.ConversationId,
		SenderId:       m.SenderId,
		SenderName:     m.SenderName,
		Content:        m.Content,
		Type:           m.Type,
		Metadata:       m.Metadata,
		ReadBy:         m.ReadBy,
		CreatedAt:      m.CreatedAt.UnixMilli(),
	}
}
