package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotifyPayload carries the type-specific data of a notification.
// Only the fields relevant to the notification type are set.
type NotifyPayload struct {
	ConversationId string `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	MessageId      string `bson:"message_id,omitempty" json:"message_id,omitempty"`
	SenderId       string `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	SenderName     string `bson:"sender_name,omitempty" json:"sender_name,omitempty"`
	Preview        string `bson:"preview,omitempty" json:"preview,omitempty"`
	UserId         string `bson:"user_id,omitempty" json:"user_id,omitempty"`
	RfqId          string `bson:"rfq_id,omitempty" json:"rfq_id,omitempty"`
	QuoteId        string `bson:"quote_id,omitempty" json:"quote_id,omitempty"`
}

// Notification is the handoff artifact to the delivery layer: one row
// per recipient, mutated only to flip Read.
type Notification struct {
	Id          bson.ObjectID `bson:"_id,omitempty" json:"-"`
	RecipientId string        `bson:"recipient_id" json:"recipient_id"`
	Type        string        `bson:"type" json:"type"`
	Payload     NotifyPayload `bson:"payload" json:"payload"`
	Read        bool          `bson:"read" json:"read"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}

// IdHex returns the store-assigned id as an opaque string
func (n *Notification) IdHex() string {
	return n.Id.Hex()
}

// NotificationInfo represents notification info for API response
type NotificationInfo struct {
	Id          string        `json:"id"`
	RecipientId string        `json:"recipient_id"`
	Type        string        `json:"type"`
	Payload     NotifyPayload `json:"payload"`
	Read        bool          `json:"read"`
	CreatedAt   int64         `json:"created_at"`
}

// ToInfo converts Notification to NotificationInfo
func (n *Notification) ToInfo() *NotificationInfo {
	return &NotificationInfo{
		Id:          n.IdHex(),
		RecipientId: n.RecipientId,
		Type:        n.Type,
		Payload:     n.Payload,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt.UnixMilli(),
	}
}
