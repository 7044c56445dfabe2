package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// onlineTTL bounds how long a stale presence key survives a crashed
// instance
const onlineTTL = 5 * time.Minute

// UserMap manages user connections and mirrors presence into Redis so
// other instances can see who is online
type UserMap struct {
	mu    sync.RWMutex
	users map[string][]*Client
	rdb   *redis.Client
}

// NewUserMap creates a new UserMap
func NewUserMap(rdb *redis.Client) *UserMap {
	return &UserMap{
		users: make(map[string][]*Client),
		rdb:   rdb,
	}
}

// Register registers a client connection
func (m *UserMap) Register(ctx context.Context, client *Client) {
	m.mu.Lock()
	m.users[client.UserId] = append(m.users[client.UserId], client)
	conns := len(m.users[client.UserId])
	m.mu.Unlock()

	m.setOnline(ctx, client.UserId, conns)
}

// Unregister removes a client connection. Returns true when the user
// has no connections left.
func (m *UserMap) Unregister(ctx context.Context, client *Client) bool {
	m.mu.Lock()
	clients := m.users[client.UserId]
	for i, c := range clients {
		if c.ConnId == client.ConnId {
			clients = append(clients[:i], clients[i+1:]...)
			break
		}
	}

	offline := len(clients) == 0
	if offline {
		delete(m.users, client.UserId)
	} else {
		m.users[client.UserId] = clients
	}
	m.mu.Unlock()

	if offline {
		m.setOffline(ctx, client.UserId)
	} else {
		m.setOnline(ctx, client.UserId, len(clients))
	}
	return offline
}

// GetAll returns all connections of a user
func (m *UserMap) GetAll(userId string) ([]*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clients, ok := m.users[userId]
	if !ok {
		return nil, false
	}
	out := make([]*Client, len(clients))
	copy(out, clients)
	return out, true
}

func (m *UserMap) setOnline(ctx context.Context, userId string, conns int) {
	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	connsKey := fmt.Sprintf(constant.RedisKeyOnlineConns(), userId)

	pipe := m.rdb.Pipeline()
	pipe.Set(ctx, key, 1, onlineTTL)
	pipe.Set(ctx, connsKey, conns, onlineTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.CtxDebug(ctx, "set online status failed: user_id=%s, error=%v", userId, err)
	}
}

func (m *UserMap) setOffline(ctx context.Context, userId string) {
	key := fmt.Sprintf(constant.RedisKeyOnline(), userId)
	connsKey := fmt.Sprintf(constant.RedisKeyOnlineConns(), userId)

	if err := m.rdb.Del(ctx, key, connsKey).Err(); err != nil {
		log.CtxDebug(ctx, "set offline status failed: user_id=%s, error=%v", userId, err)
	}
}
