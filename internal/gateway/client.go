package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/tradehub/internal/livequery"
	"github.com/mbeoliero/tradehub/pkg/constant"
	"github.com/mbeoliero/tradehub/pkg/errcode"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/google/uuid"
)

// Client represents a connected WebSocket client
type Client struct {
	conn        *websocket.Conn
	UserId      string
	DisplayName string
	ConnId      string
	server      *WsServer

	sendChan chan []byte
	closed   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc

	streamMu sync.Mutex
	streams  map[string]func() // streamId -> livequery cancel
}

// NewClient creates a new client
func NewClient(conn *websocket.Conn, userId, displayName string, server *WsServer) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:        conn,
		UserId:      userId,
		DisplayName: displayName,
		ConnId:      uuid.NewString(),
		server:      server,
		sendChan:    make(chan []byte, server.cfg.WebSocket.WriteChannelSize),
		ctx:         ctx,
		cancel:      cancel,
		streams:     make(map[string]func()),
	}
}

// Start launches the read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// PushFrame enqueues a frame for delivery. Slow consumers drop frames
// rather than block the push workers.
func (c *Client) PushFrame(frame *ServerFrame) error {
	if c.closed.Load() {
		return errcode.ErrConnClosed
	}

	data, err := frame.Encode()
	if err != nil {
		return err
	}

	select {
	case c.sendChan <- data:
		return nil
	default:
		return errcode.ErrPushFailed
	}
}

// Close tears the connection down once; safe to call repeatedly
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.cancel()
	c.cancelAllStreams()
	_ = c.conn.Close()
	c.server.unregisterChan <- c
}

func (c *Client) readPump() {
	defer c.Close()

	cfg := c.server.cfg.WebSocket
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.CtxDebug(c.ctx, "read failed: user_id=%s, conn_id=%s, error=%v", c.UserId, c.ConnId, err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.sendError(errcode.ErrInvalidProtocol.Msg)
			continue
		}
		c.handleFrame(&frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.server.cfg.WebSocket.PingPeriod)
	defer ticker.Stop()
	defer c.Close()

	writeWait := c.server.cfg.WebSocket.WriteWait
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.sendChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame dispatches a client frame
func (c *Client) handleFrame(frame *ClientFrame) {
	switch frame.Op {
	case OpWatchMessages:
		if frame.ConversationId == "" {
			c.sendError("conversation_id required")
			return
		}
		c.watch(livequery.Query{
			Parent:   constant.CollConversations,
			ParentId: frame.ConversationId,
			Child:    constant.CollMessages,
			Less:     livequery.LessByTime("created_at"),
		})
	case OpWatchQuotes:
		if frame.RfqId == "" {
			c.sendError("rfq_id required")
			return
		}
		c.watch(livequery.Query{
			Parent:   constant.CollRfqs,
			ParentId: frame.RfqId,
			Child:    constant.CollQuotes,
			Less:     livequery.LessByTimeDesc("created_at"),
		})
	case OpUnwatch:
		c.unwatch(frame.StreamId)
	default:
		c.sendError(errcode.ErrInvalidProtocol.Msg)
	}
}

// watch opens a live query stream and forwards every snapshot to the
// client
func (c *Client) watch(q livequery.Query) {
	streamId := uuid.NewString()

	cancel := c.server.live.Subscribe(c.ctx, q,
		func(docs []bson.M) {
			_ = c.PushFrame(&ServerFrame{Type: FrameSnapshot, StreamId: streamId, Data: docs})
		},
		func(err error) {
			log.CtxError(c.ctx, "live stream failed: user_id=%s, stream_id=%s, error=%v", c.UserId, streamId, err)
			_ = c.PushFrame(&ServerFrame{Type: FrameStreamError, StreamId: streamId, Msg: err.Error()})
			c.removeStream(streamId)
		},
	)

	c.streamMu.Lock()
	c.streams[streamId] = cancel
	c.streamMu.Unlock()

	_ = c.PushFrame(&ServerFrame{Type: FrameWatchOk, StreamId: streamId})
}

// unwatch cancels one live stream; unknown ids are ignored
func (c *Client) unwatch(streamId string) {
	c.streamMu.Lock()
	cancel, ok := c.streams[streamId]
	delete(c.streams, streamId)
	c.streamMu.Unlock()

	if ok {
		cancel()
	}
}

func (c *Client) removeStream(streamId string) {
	c.streamMu.Lock()
	delete(c.streams, streamId)
	c.streamMu.Unlock()
}

func (c *Client) cancelAllStreams() {
	c.streamMu.Lock()
	cancels := make([]func(), 0, len(c.streams))
	for _, cancel := range c.streams {
		cancels = append(cancels, cancel)
	}
	c.streams = make(map[string]func())
	c.streamMu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (c *Client) sendError(msg string) {
	_ = c.PushFrame(&ServerFrame{Type: FrameError, Msg: msg})
}
