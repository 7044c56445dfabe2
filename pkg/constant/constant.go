package constant

// Conversation types
const (
	ConversationTypeDirect  = "direct"  // Peer-to-peer, exactly two participants
	ConversationTypeContact = "contact" // Inbound inquiry, may include an anonymous originator
)

// Message types
const (
	MsgTypeText           = "text"
	MsgTypeContactInquiry = "contact_inquiry"
)

// Notification types
const (
	NotifyTypeNewMessage     = "new_message"
	NotifyTypeNewUserPending = "new_user_pending_approval"
	NotifyTypeNewQuote       = "new_quote"
)

// AnonymousUserId is the sentinel id for an unauthenticated originator
// of a contact conversation. It never appears in the users table.
const AnonymousUserId = "anonymous"

// Content limits
const (
	MaxMessageContentLen   = 5000 // Message content, after trimming
	LastMessageSnapshotLen = 100  // Conversation last_message cache
	NotifyPreviewLen       = 50   // Notification content preview
)

// User status
const (
	UserStatusPending = "pending"
	UserStatusActive  = "active"
)

// User roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Quote status
const (
	QuoteStatusOpen     = "open"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
)

// Mongo collection names
const (
	CollConversations = "conversations"
	CollMessages      = "messages"
	CollNotifications = "notifications"
	CollQuotes        = "quotes"
	CollRfqs          = "rfqs"
)

// Redis key patterns (without prefix, use RedisKey() to get full key)
const (
	redisKeyNotifyDedup = "notify:%s:%s" // notify:{message_id}:{recipient_id}
	redisKeyOnline      = "online:%s"    // online:{user_id}
	redisKeyOnlineConns = "online:conns:%s"
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "tradehub:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Redis key getters with prefix
func RedisKeyNotifyDedup() string { return redisKeyPrefix + redisKeyNotifyDedup }
func RedisKeyOnline() string      { return redisKeyPrefix + redisKeyOnline }
func RedisKeyOnlineConns() string { return redisKeyPrefix + redisKeyOnlineConns }
