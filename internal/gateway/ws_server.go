package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/config"
	"github.com/mbeoliero/tradehub/internal/entity"
	"github.com/mbeoliero/tradehub/internal/livequery"
	"github.com/mbeoliero/tradehub/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

// WsServer is the realtime gateway: it pushes new messages to online
// participants and bridges live query streams to connected clients
type WsServer struct {
	cfg            *config.Config
	upgrader       *websocket.Upgrader
	userMap        *UserMap
	registerChan   chan *Client
	unregisterChan chan *Client
	pushChan       chan *PushTask
	live           *livequery.Gateway
	httpServer     *http.Server

	onlineUserNum atomic.Int64
	onlineConnNum atomic.Int64
	maxConnNum    int64
}

// PushTask represents a message push task
type PushTask struct {
	Msg       *entity.Message
	TargetIds []string
}

// NewWsServer creates a new WebSocket server
func NewWsServer(cfg *config.Config, rdb *redis.Client, live *livequery.Gateway) *WsServer {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return checkOrigin(r.Header.Get("Origin"), cfg.Server.AllowedOrigins)
		},
	}

	return &WsServer{
		cfg:            cfg,
		upgrader:       upgrader,
		userMap:        NewUserMap(rdb),
		registerChan:   make(chan *Client, 1000),
		unregisterChan: make(chan *Client, 1000),
		pushChan:       make(chan *PushTask, cfg.WebSocket.PushChannelSize),
		live:           live,
		maxConnNum:     cfg.WebSocket.MaxConnNum,
	}
}

// Run starts the event loop, the push workers and the ws listener
func (s *WsServer) Run(ctx context.Context) {
	go s.eventLoop(ctx)

	workerNum := s.cfg.WebSocket.PushWorkerNum
	if workerNum <= 0 {
		workerNum = 10
	}
	for i := 0; i < workerNum; i++ {
		go s.pushLoop(ctx)
	}
	log.Info("started %d push workers", workerNum)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleConnection)
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.WSPort),
		Handler: mux,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.CtxError(ctx, "ws listener failed: %v", err)
		}
	}()
	log.Info("websocket server listening on port %d", s.cfg.Server.WSPort)
}

// Shutdown stops the ws listener
func (s *WsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// AsyncPushToUsers queues a message push to the given users; dropped
// with a log line when the queue is full
func (s *WsServer) AsyncPushToUsers(msg *entity.Message, userIds []string) {
	task := &PushTask{Msg: msg, TargetIds: userIds}
	select {
	case s.pushChan <- task:
	default:
		log.Warn("push queue full, dropping task: message_id=%s", msg.IdHex())
	}
}

// handleConnection authenticates and upgrades an incoming connection
func (s *WsServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := jwt.ParseToken(token, s.cfg.JWT.Secret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if s.onlineConnNum.Load() >= s.maxConnNum {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.CtxError(r.Context(), "upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, claims.UserId, claims.DisplayName, s)
	s.registerChan <- client
	client.Start()
}

// eventLoop handles client registration and unregistration
func (s *WsServer) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-s.registerChan:
			s.registerClient(ctx, client)
		case client := <-s.unregisterChan:
			s.unregisterClient(ctx, client)
		}
	}
}

// pushLoop handles async message pushing
func (s *WsServer) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.pushChan:
			s.processPushTask(ctx, task)
		}
	}
}

// processPushTask delivers one message to every connection of every
// target user
func (s *WsServer) processPushTask(ctx context.Context, task *PushTask) {
	frame := &ServerFrame{Type: FrameNewMessage, Data: task.Msg.ToInfo()}

	for _, userId := range task.TargetIds {
		clients, ok := s.userMap.GetAll(userId)
		if !ok {
			continue
		}
		for _, client := range clients {
			if err := client.PushFrame(frame); err != nil {
				log.CtxDebug(ctx, "push to client failed: user_id=%s, conn_id=%s, error=%v", userId, client.ConnId, err)
			}
		}
	}
}

func (s *WsServer) registerClient(ctx context.Context, client *Client) {
	_, exists := s.userMap.GetAll(client.UserId)
	if !exists {
		s.onlineUserNum.Add(1)
	}

	s.userMap.Register(ctx, client)
	s.onlineConnNum.Add(1)

	log.CtxInfo(ctx, "client registered: user_id=%s, conn_id=%s, online_users=%d, online_conns=%d",
		client.UserId, client.ConnId, s.onlineUserNum.Load(), s.onlineConnNum.Load())
}

func (s *WsServer) unregisterClient(ctx context.Context, client *Client) {
	offline := s.userMap.Unregister(ctx, client)
	s.onlineConnNum.Add(-1)
	if offline {
		s.onlineUserNum.Add(-1)
	}

	log.CtxInfo(ctx, "client unregistered: user_id=%s, conn_id=%s, online_conns=%d",
		client.UserId, client.ConnId, s.onlineConnNum.Load())
}

// checkOrigin validates the Origin header against allowed origins
func checkOrigin(origin string, allowedOrigins []string) bool {
	// No origin header: same-origin request or non-browser client
	if origin == "" {
		return true
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
